package cli

import (
	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/approval"
)

var (
	denyNotes string
	denyBy    string
)

func init() {
	rootCmd.AddCommand(denyCmd)
	denyCmd.Flags().StringVar(&denyNotes, "notes", "", "Reviewer notes recorded on the decision")
	denyCmd.Flags().StringVar(&denyBy, "by", "", "Identity of the reviewer")
}

var denyCmd = &cobra.Command{
	Use:   "deny <approval-id>",
	Short: "Deny a pending source request",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeny,
}

func runDeny(cmd *cobra.Command, args []string) error {
	return decideApproval(args[0], approval.StatusDenied, denyNotes, denyBy)
}
