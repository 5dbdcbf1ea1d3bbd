package commands

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/openlibman/openlibman/pkg/telemetry"
)

// Config is the lman configuration file.
type Config struct {
	Telemetry telemetry.Config `yaml:"telemetry"`
	Cache     CacheConfig      `yaml:"cache"`
}

// CacheConfig configures the persistent manifest cache.
type CacheConfig struct {
	// Persist enables the SQLite-backed cache store.
	Persist bool `yaml:"persist"`

	// Path is the store database path. Required when Persist is set.
	Path string `yaml:"path" validate:"required_with=Persist"`

	// Namespace overrides the per-session namespace, letting repeated
	// CLI invocations over one tree share cached parses.
	Namespace string `yaml:"namespace"`
}

// loadConfig reads the optional config file named by --config. A missing
// flag yields defaults; a named but unreadable or invalid file is an error.
func loadConfig() (*Config, error) {
	cfg := &Config{Telemetry: *telemetry.DefaultConfig()}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", configPath, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// sessionLogger builds the logger for one command invocation.
func sessionLogger(cfg *Config) zerolog.Logger {
	logger, err := telemetry.NewLogger(cfg.Telemetry.Logging)
	if err != nil {
		log.Warn().Err(err).Msg("falling back to default logger")
		logger = log.Logger
	}
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}
