package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/internal/observability"
	"github.com/3leaps/lintkit/pkg/diag"
	"github.com/3leaps/lintkit/pkg/engine"
	"github.com/3leaps/lintkit/pkg/jobregistry"
	"github.com/3leaps/lintkit/pkg/linter"
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Lint files and print the merged findings",
	Long: `Lint one or more files with the configured linters, wait for every
job (including chained steps) to finish, and print the merged,
sorted findings per file.

Example:
  lintkit check src/app.py
  lintkit check --only flake8,mypy src/*.py
  lintkit check --format json --fail-on warning src/app.py`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var (
	checkOnly      []string
	checkFormat    string
	checkFailOn    string
	checkFileLevel bool
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringSliceVar(&checkOnly, "only", nil, "Run only these linters (comma-separated names)")
	checkCmd.Flags().StringVar(&checkFormat, "format", "text", "Output format (text|json|jsonl)")
	checkCmd.Flags().StringVar(&checkFailOn, "fail-on", "error", "Exit non-zero when findings reach this severity (error|warning|info|never)")
	checkCmd.Flags().BoolVar(&checkFileLevel, "file-level", true, "Also run file-level (whole-project) linters")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig()

	switch checkFormat {
	case "text", "json", "jsonl":
	default:
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value",
			fmt.Errorf("unsupported format: %s", checkFormat))
	}
	failSev, err := parseFailOn(checkFailOn)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --fail-on value", err)
	}

	linters, err := loadLinters(cfg)
	if err != nil {
		return err
	}
	selected, err := selectLinters(linters, checkOnly)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Unknown linter in --only", err)
	}

	docs, err := readDocuments(ctx, args, cfg.Workers)
	if err != nil {
		return exitError(foundry.ExitFileNotFound, "Cannot read input files", err)
	}

	engCfg := engine.Config{
		Logger:            observability.CLILogger,
		MinRelintInterval: cfg.Engine.MinRelintInterval,
		SettleDelay:       cfg.Engine.SettleDelay,
		PollInterval:      cfg.Engine.PollInterval,
		EventBuffer:       cfg.Engine.EventBuffer,
	}
	if cfg.History.Enabled {
		engCfg.History = jobregistry.NewHistoryStore(cfg.History.Dir)
	}
	eng := engine.New(engCfg)
	defer eng.Close()

	for _, doc := range docs {
		eng.RunLinters(doc, selected, checkFileLevel)
	}
	if err := eng.WaitUntilIdle(cfg.Engine.WaitTimeout); err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "Linters did not finish", err)
	}

	results := make(map[int][]diag.Diagnostic, len(docs))
	for _, doc := range docs {
		if diags, ok := eng.Diagnostics(doc.ID); ok {
			results[doc.ID] = diags
		}
	}

	var counts severityCounts
	switch checkFormat {
	case "json":
		counts, err = renderJSON(os.Stdout, docs, results)
	case "jsonl":
		counts, err = renderJSONL(os.Stdout, docs, results)
	default:
		counts, err = renderText(os.Stdout, docs, results)
	}
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Cannot write results", err)
	}

	observability.CLILogger.Debug("check finished",
		zap.Int("documents", len(docs)),
		zap.Int("errors", counts.Errors),
		zap.Int("warnings", counts.Warnings),
		zap.Int("infos", counts.Infos))

	if counts.reaches(failSev) {
		return exitError(1, "Findings at or above the --fail-on threshold", nil)
	}
	return nil
}

// readDocuments loads the files concurrently, assigning stable document
// IDs in argument order.
func readDocuments(ctx context.Context, paths []string, workers int) ([]linter.Document, error) {
	if workers <= 0 {
		workers = 4
	}

	docs := make([]linter.Document, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			docs[i] = linter.Document{
				ID:    i + 1,
				Path:  path,
				Lines: splitLines(string(data)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// splitLines splits file content the way editors hold buffers: a
// trailing newline does not produce an extra empty line.
func splitLines(content string) []string {
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func selectLinters(all []*linter.Linter, only []string) ([]*linter.Linter, error) {
	if len(only) == 0 {
		return all, nil
	}
	byName := make(map[string]*linter.Linter, len(all))
	for _, l := range all {
		byName[l.Name] = l
	}

	out := make([]*linter.Linter, 0, len(only))
	for _, name := range only {
		name = strings.TrimSpace(name)
		l, ok := byName[name]
		if !ok {
			known := make([]string, 0, len(byName))
			for n := range byName {
				known = append(known, n)
			}
			sort.Strings(known)
			return nil, fmt.Errorf("linter %q is not in the manifest (known: %s)", name, strings.Join(known, ", "))
		}
		out = append(out, l)
	}
	return out, nil
}

func parseFailOn(s string) (diag.Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return diag.SeverityError, nil
	case "warning":
		return diag.SeverityWarning, nil
	case "info":
		return diag.SeverityInfo, nil
	case "never":
		return "", nil
	}
	return "", fmt.Errorf("unsupported fail-on threshold: %s", s)
}
