package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	guardmcp "github.com/bridgewarden/bridgewarden/internal/mcp"
)

var (
	serveBaseDir string
	serveDataDir string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveBaseDir, "base-dir", "", "Directory file reads are confined to (default: working directory)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "", "State directory for approvals, quarantine, and logs")
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"mcp"},
	Short:   "Start the MCP guard server for agent integration",
	Long:    "Runs bridgewarden as an MCP (Model Context Protocol) server over stdio.\nExposes guarded tools: read_file, web_fetch, fetch_repo, quarantine_get, and source approvals.",
	RunE:    runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := guardmcp.New(guardmcp.Config{
		ConfigPath: configPath,
		BaseDir:    serveBaseDir,
		DataDir:    serveDataDir,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down MCP server...")
		cancel()
	}()

	fmt.Fprintln(os.Stderr, "bridgewarden MCP server running on stdio")
	return srv.Run(ctx)
}
