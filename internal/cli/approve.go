package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/approval"
)

var (
	approveNotes string
	approveBy    string
)

func init() {
	rootCmd.AddCommand(approveCmd)
	approveCmd.Flags().StringVar(&approveNotes, "notes", "", "Reviewer notes recorded on the decision")
	approveCmd.Flags().StringVar(&approveBy, "by", "", "Identity of the reviewer")
}

var approveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve a pending source request",
	Long:  "Approves a pending web domain or repo URL request. The next fetch of that source will go through.",
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	return decideApproval(args[0], approval.StatusApproved, approveNotes, approveBy)
}

func decideApproval(approvalID, decision, notes, decidedBy string) error {
	dataDir, err := resolveDataDir()
	if err != nil {
		return err
	}
	store, err := approval.NewStore(filepath.Join(dataDir, "approvals"))
	if err != nil {
		return fmt.Errorf("failed to open approval store: %w", err)
	}

	rec, err := store.Decide(approvalID, decision, notes, decidedBy)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s %q -> %s\n", rec.ApprovalID, rec.Kind, rec.Target, rec.Status)
	return nil
}
