package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

var checkProfile string

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkProfile, "profile", "", "Policy profile (strict/balanced/permissive)")
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Run content through the guard pipeline and print the result",
	Long:  "Guards the given file, or stdin when no file is given. Prints the guard result as JSON.\nExits 77 when the content is blocked.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	profile := checkProfile
	if profile == "" {
		profile = conf.Profile
	}

	var text string
	source := model.Source{Kind: model.SourceLocal}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		text = string(data)
		source = model.Source{Kind: model.SourceFile, Path: args[0]}
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	result, err := pipeline.Guard(context.Background(), text, source, pipeline.Options{
		Profile: profile,
	})
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if result.Decision == model.Block {
		os.Exit(77)
	}
	return nil
}
