// Package cmd implements the lintkit command-line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/internal/observability"
	"github.com/3leaps/lintkit/pkg/linter"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build-time version metadata. Called from main
// before Execute.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	rootLogLevel string
	rootLogJSON  bool
	rootLinters  string
)

var rootCmd = &cobra.Command{
	Use:   "lintkit",
	Short: "Run configured linters against files and aggregate the results",
	Long: `lintkit runs external linters and language-server diagnostics against
files, normalizes their findings into one sorted list per file and
renders or serves the result.

Linters are declared in a YAML manifest (see 'lintkit linters').`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := observability.Init(rootLogLevel, rootLogJSON); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid logging flags", err)
		}
		if _, err := config.Load(cmd.Context(), runtimeOverrides()); err != nil {
			return exitError(foundry.ExitInvalidArgument, "Invalid configuration", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVar(&rootLogJSON, "log-json", false, "Emit structured JSON logs")
	rootCmd.PersistentFlags().StringVar(&rootLinters, "linters", "", "Path to the linter manifest (YAML)")
}

func runtimeOverrides() map[string]any {
	ov := map[string]any{}
	if rootLinters != "" {
		ov["linters"] = rootLinters
	}
	return ov
}

// exitCodeError carries a process exit code through cobra's error path.
type exitCodeError struct {
	code int
	msg  string
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *exitCodeError) Unwrap() error { return e.err }

func exitError(code int, msg string, err error) error {
	return &exitCodeError{code: code, msg: msg, err: err}
}

// Execute runs the root command and exits the process with the
// appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", versionInfo.Version, versionInfo.Commit, versionInfo.BuildDate)

	err := rootCmd.ExecuteContext(ctx)
	observability.Sync()
	if err == nil {
		return
	}

	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		os.Exit(foundry.ExitSignalInt)
	}

	var ec *exitCodeError
	if errors.As(err, &ec) {
		observability.CLILogger.Error(ec.msg, zap.Error(ec.err))
		os.Exit(ec.code)
	}
	observability.CLILogger.Error("command failed", zap.Error(err))
	os.Exit(1)
}

// manifestPath resolves the linter manifest location: the --linters flag
// (already merged into config), then ./linters.yaml, then the user
// config dir.
func manifestPath(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Linters != "" {
		return cfg.Linters, nil
	}
	if _, err := os.Stat("linters.yaml"); err == nil {
		return "linters.yaml", nil
	}
	confDir, err := os.UserConfigDir()
	if err == nil {
		candidate := filepath.Join(confDir, "lintkit", "linters.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no linter manifest found (tried --linters, ./linters.yaml, user config dir)")
}

// loadLinters loads and validates the manifest the current invocation
// points at.
func loadLinters(cfg *config.Config) ([]*linter.Linter, error) {
	path, err := manifestPath(cfg)
	if err != nil {
		return nil, exitError(foundry.ExitFileNotFound, "Linter manifest not found", err)
	}
	linters, err := linter.Load(path)
	if err != nil {
		return nil, exitError(foundry.ExitInvalidArgument, "Invalid linter manifest", err)
	}
	observability.CLILogger.Debug("loaded linter manifest",
		zap.String("path", path),
		zap.Int("linters", len(linters)))
	return linters, nil
}
