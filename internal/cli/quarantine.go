package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

var (
	quarantineKind  string
	quarantineLimit int
	excerptLimit    int
)

func init() {
	rootCmd.AddCommand(quarantineCmd)
	quarantineCmd.AddCommand(quarantineListCmd)
	quarantineCmd.AddCommand(quarantineViewCmd)
	quarantineListCmd.Flags().StringVar(&quarantineKind, "kind", "", "Filter by source kind (file/web/repo)")
	quarantineListCmd.Flags().IntVar(&quarantineLimit, "limit", 0, "Maximum entries to show (default 100)")
	quarantineViewCmd.Flags().IntVar(&excerptLimit, "excerpt", 0, "Excerpt length in characters")
}

var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "Inspect quarantined content",
}

var quarantineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List quarantined items, newest first",
	RunE:  runQuarantineList,
}

var quarantineViewCmd = &cobra.Command{
	Use:   "view <quarantine-id>",
	Short: "Show a redacted view of one quarantined item",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuarantineView,
}

func runQuarantineList(cmd *cobra.Command, args []string) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	index, err := quarantine.OpenIndex(filepath.Join(dataDir, "quarantine.db"))
	if err != nil {
		return err
	}
	defer index.Close()

	entries, err := index.List(quarantineKind, quarantineLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Quarantine is empty.")
		return nil
	}

	fmt.Printf("%-20s %-6s %-6s %-24s %s\n", "ID", "KIND", "RISK", "CREATED", "REASONS")
	for _, e := range entries {
		fmt.Printf("%-20s %-6s %-6.2f %-24s %s\n",
			truncate(e.QuarantineID, 20),
			e.SourceKind,
			e.RiskScore,
			e.CreatedAt,
			e.Reasons,
		)
	}
	return nil
}

func runQuarantineView(cmd *cobra.Command, args []string) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	store, err := quarantine.NewStore(filepath.Join(dataDir, "quarantine"))
	if err != nil {
		return err
	}

	view, err := store.GetView(args[0], excerptLimit)
	if err != nil {
		return err
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	fmt.Println(string(out))
	return nil
}
