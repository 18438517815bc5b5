// Package cli implements the bridgewarden command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bridgewarden",
	Short: "Content guard between AI agents and untrusted sources",
	Long:  "Screens files, web pages, and repositories for prompt injection before an agent reads them. Suspicious content is sanitized or quarantined; new sources need approval.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.bridgewarden/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configured or default config file.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// resolveDataDir loads config and returns the effective data directory.
func resolveDataDir() (string, error) {
	conf, err := loadConfig()
	if err != nil {
		return "", err
	}
	return conf.ResolveDataDir()
}
