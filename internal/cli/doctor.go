package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check guard readiness and diagnose configuration issues",
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []checkResult

	// 1. Binary location and version.
	execPath, _ := os.Executable()
	if execPath != "" {
		checks = append(checks, checkResult{
			label:  "bridgewarden binary",
			ok:     true,
			detail: fmt.Sprintf("%s (v%s)", execPath, version),
		})
	} else {
		checks = append(checks, checkResult{
			label:  "bridgewarden binary",
			ok:     false,
			detail: "cannot determine executable path",
		})
	}

	// 2. Config file.
	conf, confErr := loadConfig()
	if confErr != nil {
		checks = append(checks, checkResult{
			label:  "config",
			ok:     false,
			detail: confErr.Error(),
			fix:    "fix the config file or remove it to use defaults",
		})
	} else {
		checks = append(checks, checkResult{
			label:  "config",
			ok:     true,
			detail: fmt.Sprintf("profile=%s network=%v", conf.Profile, conf.Network.Enabled),
		})
	}

	// 3. Data directory and stores.
	if confErr == nil {
		dataDir, err := conf.ResolveDataDir()
		if err != nil {
			checks = append(checks, checkResult{
				label:  "data directory",
				ok:     false,
				detail: err.Error(),
			})
		} else if info, statErr := os.Stat(dataDir); statErr == nil && info.IsDir() {
			checks = append(checks, checkResult{
				label:  "data directory",
				ok:     true,
				detail: dataDir,
			})
			checks = append(checks, storeChecks(dataDir)...)
		} else {
			checks = append(checks, checkResult{
				label:  "data directory",
				ok:     false,
				detail: "missing (created on first serve)",
				fix:    "bridgewarden serve",
			})
		}
	}

	// Print results.
	hasFailures := false
	for _, c := range checks {
		mark := "✓"
		if !c.ok {
			mark = "✗"
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-22s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Println(line)
	}

	if hasFailures {
		fmt.Println()
		fmt.Println("Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}

	fmt.Println()
	fmt.Println("All checks passed.")
	return nil
}

// storeChecks inspects the stores under an existing data directory.
func storeChecks(dataDir string) []checkResult {
	var checks []checkResult

	indexPath := filepath.Join(dataDir, "quarantine.db")
	if _, err := os.Stat(indexPath); err == nil {
		if index, err := quarantine.OpenIndex(indexPath); err == nil {
			n, countErr := index.Count()
			index.Close()
			if countErr == nil {
				checks = append(checks, checkResult{
					label:  "quarantine index",
					ok:     true,
					detail: fmt.Sprintf("%d item(s)", n),
				})
			}
		} else {
			checks = append(checks, checkResult{
				label:  "quarantine index",
				ok:     false,
				detail: err.Error(),
			})
		}
	}

	auditPath := filepath.Join(dataDir, "logs", "audit.jsonl")
	if info, err := os.Stat(auditPath); err == nil {
		checks = append(checks, checkResult{
			label:  "audit log",
			ok:     true,
			detail: humanize.Bytes(uint64(info.Size())),
		})
	}

	if entries, err := os.ReadDir(filepath.Join(dataDir, "approvals")); err == nil {
		checks = append(checks, checkResult{
			label:  "approval store",
			ok:     true,
			detail: fmt.Sprintf("%d record(s)", len(entries)),
		})
	}

	return checks
}
