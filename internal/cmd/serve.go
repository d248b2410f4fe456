package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/3leaps/lintkit/internal/config"
	"github.com/3leaps/lintkit/internal/observability"
	"github.com/3leaps/lintkit/internal/server"
	"github.com/3leaps/lintkit/pkg/engine"
	"github.com/3leaps/lintkit/pkg/jobregistry"
)

var serveCmd = &cobra.Command{
	Use:   "serve [FILE...]",
	Short: "Lint files and serve the results over HTTP",
	Long: `Lint the given files, then keep serving the merged results, run
history and engine statistics over an HTTP API until interrupted.

Endpoints:
  GET /healthz
  GET /version
  GET /v1/documents
  GET /v1/documents/{id}/diagnostics
  GET /v1/documents/{id}/history
  GET /v1/stats

Example:
  lintkit serve src/*.py
  LINTKIT_SERVER_PORT=9000 lintkit serve src/app.py`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.GetConfig()

	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
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

	if len(args) > 0 {
		linters, err := loadLinters(cfg)
		if err != nil {
			return err
		}
		docs, err := readDocuments(ctx, args, cfg.Workers)
		if err != nil {
			return exitError(foundry.ExitFileNotFound, "Cannot read input files", err)
		}
		for _, doc := range docs {
			eng.RunLinters(doc, linters, true)
		}
		if err := eng.WaitUntilIdle(cfg.Engine.WaitTimeout); err != nil {
			observability.CLILogger.Warn("linting did not settle before serving", zap.Error(err))
		}
	}

	srv := server.New(host, port, eng)
	srv.SetLogger(observability.CLILogger)
	srv.SetVersion(versionInfo.Version)

	err := srv.Start(ctx, server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Idle:     cfg.Server.IdleTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return exitError(foundry.ExitExternalServiceUnavailable, "HTTP server failed", err)
	}
	return nil
}
