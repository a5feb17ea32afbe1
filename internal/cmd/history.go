package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsugix/tsugix/internal/config"
	"github.com/tsugix/tsugix/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent pipeline run outcomes",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of recent runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	workingDir, err := os.Getwd()
	if err != nil {
		return err
	}

	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	dbPath, err := store.DatabasePath(home, workingDir)
	if err != nil {
		return err
	}

	hist, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer hist.Close()

	records, err := hist.Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  %-10s  %s\n",
			r.Timestamp.Format("2006-01-02 15:04:05"), r.Outcome, r.Language, r.Command)
	}
	return nil
}
