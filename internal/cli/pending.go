package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/approval"
)

func init() {
	rootCmd.AddCommand(pendingCmd)
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List pending source approval requests",
	Long:  "Shows approval requests waiting for a decision: web domains and repo URLs the agent asked for.",
	RunE:  runPending,
}

func runPending(cmd *cobra.Command, args []string) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	store, err := approval.NewStore(filepath.Join(dataDir, "approvals"))
	if err != nil {
		return fmt.Errorf("failed to open approval store: %w", err)
	}

	list, err := store.List(approval.StatusPending, "", 0)
	if err != nil {
		return fmt.Errorf("failed to list approvals: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No pending approvals.")
		return nil
	}

	fmt.Printf("%-36s %-12s %-40s %s\n", "ID", "KIND", "TARGET", "CREATED")
	for _, rec := range list {
		fmt.Printf("%-36s %-12s %-40s %s\n",
			rec.ApprovalID,
			rec.Kind,
			truncate(rec.Target, 40),
			rec.CreatedAt,
		)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
