// Package config loads the application configuration with the
// precedence runtime overrides > environment variables > defaults.
// Environment variables use the LINTKIT_ prefix with underscores for
// nesting, e.g. LINTKIT_SERVER_PORT.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Engine  EngineConfig  `mapstructure:"engine"`
	History HistoryConfig `mapstructure:"history"`

	// Linters is the path to the linter manifest. Empty means the
	// built-in lookup (./linters.yaml, then the user config dir).
	Linters string `mapstructure:"linters"`

	// Workers bounds concurrent document reads in batch mode.
	Workers int `mapstructure:"workers"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Structured bool   `mapstructure:"structured"`
}

// EngineConfig tunes the lint engine.
type EngineConfig struct {
	MinRelintInterval time.Duration `mapstructure:"min_relint_interval"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	EventBuffer       int           `mapstructure:"event_buffer"`
	WaitTimeout       time.Duration `mapstructure:"wait_timeout"`
}

// HistoryConfig configures the on-disk run history.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

var (
	configMu  sync.Mutex
	appConfig *Config
)

// Load builds the configuration and remembers it for GetConfig. Later
// maps in overrides win over earlier ones; all of them win over
// environment variables.
func Load(_ context.Context, overrides ...map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LINTKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so
	// bind the nested ones explicitly.
	for _, key := range allKeys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	for _, ov := range overrides {
		if err := v.MergeConfigMap(ov); err != nil {
			return nil, fmt.Errorf("merge overrides: %w", err)
		}
	}

	cfg := &Config{}
	decoderCfg := &mapstructure.DecoderConfig{
		Result: cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderCfg)
	if err != nil {
		return nil, fmt.Errorf("build config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.History.Dir == "" {
		cfg.History.Dir = defaultHistoryDir()
	}

	configMu.Lock()
	appConfig = cfg
	configMu.Unlock()
	return cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil if
// Load has never succeeded.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8766)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.structured", false)

	v.SetDefault("engine.min_relint_interval", "0s")
	v.SetDefault("engine.settle_delay", "15ms")
	v.SetDefault("engine.poll_interval", "10ms")
	v.SetDefault("engine.event_buffer", 256)
	v.SetDefault("engine.wait_timeout", "60s")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.dir", "")

	v.SetDefault("linters", "")
	v.SetDefault("workers", 4)
}

func allKeys() []string {
	return []string{
		"server.host", "server.port",
		"server.read_timeout", "server.write_timeout",
		"server.idle_timeout", "server.shutdown_timeout",
		"logging.level", "logging.structured",
		"engine.min_relint_interval", "engine.settle_delay",
		"engine.poll_interval", "engine.event_buffer",
		"engine.wait_timeout",
		"history.enabled", "history.dir",
		"linters", "workers",
	}
}

func defaultHistoryDir() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lintkit", "history")
	}
	return filepath.Join(cache, "lintkit", "history")
}
