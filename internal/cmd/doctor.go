package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/internal/observability"
	"github.com/3leaps/lintkit/pkg/linter"
	"github.com/3leaps/lintkit/pkg/probe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the environment and the linter setup, and
suggest fixes for common issues.

Examples:
  lintkit doctor
  lintkit doctor --linters ./linters.yaml`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) {
	log := observability.CLILogger
	log.Info("=== lintkit doctor ===")
	log.Info("")
	log.Info("Running diagnostic checks...")
	log.Info("")

	allChecks := true
	checkNum := 1
	totalChecks := 4

	// Check 1: environment
	log.Info(fmt.Sprintf("[%d/%d] Checking environment... ✅ %s %s/%s", checkNum, totalChecks, runtime.Version(), runtime.GOOS, runtime.GOARCH),
		zap.String("go_version", runtime.Version()),
		zap.String("os", runtime.GOOS),
		zap.String("arch", runtime.GOARCH))
	checkNum++

	// Check 2: linter manifest
	cfg := config.GetConfig()
	linters, err := func() ([]*linter.Linter, error) {
		path, err := manifestPath(cfg)
		if err != nil {
			return nil, err
		}
		return linter.Load(path)
	}()
	if err != nil {
		log.Warn(fmt.Sprintf("[%d/%d] Checking linter manifest... ⚠️  %v", checkNum, totalChecks, err))
		allChecks = false
	} else {
		log.Info(fmt.Sprintf("[%d/%d] Checking linter manifest... ✅ %d linters configured", checkNum, totalChecks, len(linters)),
			zap.Int("linters", len(linters)))
	}
	checkNum++

	// Check 3: linter executables
	if len(linters) > 0 {
		prober := probe.New()
		missing := 0
		for _, l := range linters {
			if l.Kind != linter.LSPNone {
				continue
			}
			if !prober.IsExecutable(l.Executable) {
				missing++
				log.Warn(fmt.Sprintf("        missing: %s (linter %q)", l.Executable, l.Name))
			}
		}
		if missing == 0 {
			log.Info(fmt.Sprintf("[%d/%d] Checking linter executables... ✅ all present", checkNum, totalChecks))
		} else {
			log.Warn(fmt.Sprintf("[%d/%d] Checking linter executables... ⚠️  %d missing", checkNum, totalChecks, missing),
				zap.Int("missing", missing))
			allChecks = false
		}
	} else {
		log.Warn(fmt.Sprintf("[%d/%d] Checking linter executables... ⚠️  skipped (no manifest)", checkNum, totalChecks))
	}
	checkNum++

	// Check 4: history directory
	if cfg != nil && cfg.History.Enabled {
		if err := os.MkdirAll(cfg.History.Dir, 0755); err != nil {
			log.Warn(fmt.Sprintf("[%d/%d] Checking history directory... ⚠️  %v", checkNum, totalChecks, err),
				zap.String("dir", cfg.History.Dir))
			allChecks = false
		} else {
			log.Info(fmt.Sprintf("[%d/%d] Checking history directory... ✅ %s", checkNum, totalChecks, cfg.History.Dir),
				zap.String("dir", cfg.History.Dir))
		}
	} else {
		log.Info(fmt.Sprintf("[%d/%d] Checking history directory... ✅ disabled", checkNum, totalChecks))
	}

	log.Info("")
	if allChecks {
		log.Info("✅ All checks passed! Your lintkit installation is healthy.")
	} else {
		log.Warn("⚠️  Some checks failed. Review the output above for details.")
	}
	log.Info("")
	log.Info("=== End Diagnostics ===")
}
