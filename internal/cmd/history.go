package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/pkg/jobregistry"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded linter runs",
	Long: `List runs recorded by the on-disk run history, newest first.

History is written by 'lintkit check' and 'lintkit serve' when
history.enabled is set (LINTKIT_HISTORY_ENABLED=true).`,
	RunE: runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum runs to list")
}

func runHistory(_ *cobra.Command, _ []string) error {
	cfg := config.GetConfig()
	store := jobregistry.NewHistoryStore(cfg.History.Dir)

	records, err := store.List()
	if err != nil {
		return exitError(foundry.ExitFileNotFound, "Cannot read run history", err)
	}
	if len(records) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	fmt.Printf("%-36s  %-20s  %-10s  %-5s  %s\n", "RUN", "LINTER", "STATE", "EXIT", "DOCUMENT")
	for _, r := range records {
		fmt.Printf("%-36s  %-20s  %-10s  %-5d  %s\n", r.RunID, r.Linter, r.State, r.ExitCode, r.Document)
	}
	return nil
}
