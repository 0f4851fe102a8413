// Package config loads and validates kvitt settings from viper.
package config

import (
	"fmt"
	"time"

	"github.com/Veraticus/kvittering/internal/common"
	"github.com/Veraticus/kvittering/internal/learning"
	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the journal lives unless database.path is set.
const DefaultDatabasePath = "$HOME/.local/share/kvitt/kvitt.db"

// Config is the typed application configuration.
type Config struct {
	DatabasePath  string
	CatalogPath   string
	LogLevel      string
	LogFormat     string
	Learning      learning.Config
	DefaultAmount float64
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	defaults := learning.DefaultConfig()

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("catalog.path", "")
	v.SetDefault("learning.max_examples", defaults.MaxExamples)
	v.SetDefault("learning.eviction_batch", defaults.EvictionBatch)
	v.SetDefault("learning.lock_timeout", defaults.LockTimeout)
	v.SetDefault("classification.default_amount", 100.0)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads and validates the configuration from v, applying defaults for
// unset keys. Paths have ~ and environment variables expanded.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		CatalogPath:  ExpandPath(v.GetString("catalog.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Learning: learning.Config{
			MaxExamples:   v.GetInt("learning.max_examples"),
			EvictionBatch: v.GetInt("learning.eviction_batch"),
			LockTimeout:   v.GetDuration("learning.lock_timeout"),
		},
		DefaultAmount: v.GetFloat64("classification.default_amount"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path is required", common.ErrInvalidConfig)
	}
	if c.Learning.MaxExamples <= 0 {
		return fmt.Errorf("%w: learning.max_examples must be positive", common.ErrInvalidConfig)
	}
	if c.Learning.EvictionBatch <= 0 || c.Learning.EvictionBatch > c.Learning.MaxExamples {
		return fmt.Errorf("%w: learning.eviction_batch must be between 1 and learning.max_examples", common.ErrInvalidConfig)
	}
	if c.Learning.LockTimeout <= 0 || c.Learning.LockTimeout > time.Minute {
		return fmt.Errorf("%w: learning.lock_timeout must be between 0 and 1m", common.ErrInvalidConfig)
	}
	if c.DefaultAmount <= 0 {
		return fmt.Errorf("%w: classification.default_amount must be positive", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
