package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsugix/tsugix/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved tsugix configuration",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(workingDir)
	if err != nil {
		return err
	}

	printField(cmd, cfg, "provider", cfg.Provider)
	printField(cmd, cfg, "model", cfg.Model)
	printField(cmd, cfg, "maxTokens", cfg.MaxTokens)
	printField(cmd, cfg, "autoBackup", cfg.AutoBackup)
	printField(cmd, cfg, "autoApply", cfg.AutoApply)
	printField(cmd, cfg, "autoRerun", cfg.AutoRerun)
	printField(cmd, cfg, "timeout", cfg.TimeoutSeconds)
	printField(cmd, cfg, "retryCount", cfg.RetryCount)
	printField(cmd, cfg, "temperature", cfg.Temperature)

	if cfg.APIKey == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "  api_key         (not set)")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "  api_key         (set, source: env)")
	}
	return nil
}

func printField(cmd *cobra.Command, cfg *config.Config, key string, value any) {
	source := config.SourceDefault
	if src, ok := cfg.Sources[key]; ok {
		source = src
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-15s %v\t(%s)\n", key, value, source)
}
