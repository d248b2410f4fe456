package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/pkg/linter"
	"github.com/3leaps/lintkit/pkg/probe"
)

var lintersCmd = &cobra.Command{
	Use:   "linters",
	Short: "List configured linters and whether their tools are installed",
	Long: `List every linter in the manifest with its kind, executable and
whether the executable is currently runnable.

Example:
  lintkit linters
  lintkit linters --linters ./linters.yaml`,
	RunE: runLinters,
}

func init() {
	rootCmd.AddCommand(lintersCmd)
}

func runLinters(cmd *cobra.Command, _ []string) error {
	linters, err := loadLinters(config.GetConfig())
	if err != nil {
		return err
	}

	prober := probe.New()
	for _, l := range linters {
		fmt.Printf("%-20s %-10s %s\n", l.Name, kindLabel(l.Kind), availability(prober, l))
	}
	return nil
}

func kindLabel(kind linter.LSPKind) string {
	switch kind {
	case linter.LSPGeneric:
		return "lsp"
	case linter.LSPTSServer:
		return "tsserver"
	default:
		return "process"
	}
}

func availability(prober *probe.Prober, l *linter.Linter) string {
	if l.Kind != linter.LSPNone {
		return "(server-backed)"
	}
	if prober.IsExecutable(l.Executable) {
		return fmt.Sprintf("✅ %s", l.Executable)
	}
	return fmt.Sprintf("❌ %s (not found)", l.Executable)
}
