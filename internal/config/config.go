// Package config provides configuration management for the quote engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"quotewatch/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Alerts  []AlertRule   `mapstructure:"alerts"`
}

// EngineConfig holds series-cache and alert-processor tuning.
type EngineConfig struct {
	BatchInterval time.Duration `mapstructure:"batch_interval"`
	MaxBatchSize  int           `mapstructure:"max_batch_size"`
	BulkCap       int           `mapstructure:"bulk_cap"`
	TickCap       int           `mapstructure:"tick_cap"`
	CleanupMaxAge time.Duration `mapstructure:"cleanup_max_age"`
}

// FeedConfig holds the simulated feed settings.
type FeedConfig struct {
	Symbols      []string      `mapstructure:"symbols"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	HistoryBars  int           `mapstructure:"history_bars"`
	Timeframe    string        `mapstructure:"timeframe"`
}

// StorageConfig holds local persistence settings.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// AlertRule is a declarative alert definition loaded from the config file.
type AlertRule struct {
	ID         string          `mapstructure:"id"`
	User       string          `mapstructure:"user"`
	Name       string          `mapstructure:"name"`
	Cooldown   time.Duration   `mapstructure:"cooldown"`
	Conditions []ConditionRule `mapstructure:"conditions"`
}

// ConditionRule is one predicate of an alert rule.
type ConditionRule struct {
	Type     string  `mapstructure:"type"`
	Operator string  `mapstructure:"operator"`
	Symbol   string  `mapstructure:"symbol"`
	Value    float64 `mapstructure:"value"`
}

// ToAlert converts a rule into the engine's alert model. Configured alerts
// start active and untriggered.
func (r AlertRule) ToAlert() models.Alert {
	conds := make([]models.Condition, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		conds = append(conds, models.Condition{
			Type:     models.ConditionType(c.Type),
			Operator: models.ConditionOperator(c.Operator),
			Symbol:   c.Symbol,
			Value:    c.Value,
		})
	}
	return models.Alert{
		ID:         r.ID,
		UserID:     r.User,
		Name:       r.Name,
		Conditions: conds,
		Active:     true,
		Cooldown:   r.Cooldown,
		CreatedAt:  time.Now(),
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/quotewatch"
	}
	return filepath.Join(home, ".config", "quotewatch")
}

// Load loads configuration from the specified directory. If configDir is
// empty the default directory is used; a missing config file yields the
// defaults and writes a template for next time.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("engine.batch_interval", time.Second)
	v.SetDefault("engine.max_batch_size", 1000)
	v.SetDefault("engine.bulk_cap", 5000)
	v.SetDefault("engine.tick_cap", 2000)
	v.SetDefault("engine.cleanup_max_age", 24*time.Hour)

	v.SetDefault("feed.symbols", []string{"BTC/USD", "ETH/USD"})
	v.SetDefault("feed.tick_interval", 250*time.Millisecond)
	v.SetDefault("feed.history_bars", 500)
	v.SetDefault("feed.timeframe", "1m")

	v.SetDefault("storage.db_path", filepath.Join(configDir, "quotewatch.db"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", true)
	v.SetDefault("log.file_path", filepath.Join(configDir, "logs", "quotewatch.log"))
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUOTEWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QUOTEWATCH_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Engine.BatchInterval <= 0 {
		return fmt.Errorf("engine.batch_interval must be positive")
	}
	if c.Engine.MaxBatchSize <= 0 {
		return fmt.Errorf("engine.max_batch_size must be positive")
	}
	if c.Engine.BulkCap <= 0 || c.Engine.TickCap <= 0 {
		return fmt.Errorf("engine caps must be positive")
	}
	if c.Engine.CleanupMaxAge <= 0 {
		return fmt.Errorf("engine.cleanup_max_age must be positive")
	}
	if c.Feed.TickInterval <= 0 {
		return fmt.Errorf("feed.tick_interval must be positive")
	}
	if tf := models.Timeframe(c.Feed.Timeframe); tf.Seconds() <= 0 {
		return fmt.Errorf("feed.timeframe %q is not a supported timeframe", c.Feed.Timeframe)
	}

	validType := map[string]bool{"price": true, "percentage": true, "volume": true, "technical": true}
	validOp := map[string]bool{
		"above": true, "below": true,
		"crosses_above": true, "crosses_below": true, "changes_by": true,
	}
	for _, rule := range c.Alerts {
		if rule.ID == "" || rule.User == "" {
			return fmt.Errorf("alert rule %q: id and user are required", rule.Name)
		}
		if len(rule.Conditions) == 0 {
			return fmt.Errorf("alert rule %q: at least one condition is required", rule.ID)
		}
		for _, cond := range rule.Conditions {
			if !validType[cond.Type] {
				return fmt.Errorf("alert rule %q: unknown condition type %q", rule.ID, cond.Type)
			}
			if !validOp[cond.Operator] {
				return fmt.Errorf("alert rule %q: unknown operator %q", rule.ID, cond.Operator)
			}
			if cond.Symbol == "" {
				return fmt.Errorf("alert rule %q: condition symbol is required", rule.ID)
			}
		}
	}
	return nil
}

const configTemplate = `# quotewatch configuration

[engine]
batch_interval = "1s"
max_batch_size = 1000
bulk_cap = 5000
tick_cap = 2000
cleanup_max_age = "24h"

[feed]
symbols = ["BTC/USD", "ETH/USD"]
tick_interval = "250ms"
history_bars = 500
timeframe = "1m"

[log]
level = "info"
console = true
file = true

# [[alerts]]
# id = "btc-breakout"
# user = "local"
# name = "BTC above 70k"
# cooldown = "60s"
#   [[alerts.conditions]]
#   type = "price"
#   operator = "crosses_above"
#   symbol = "BTC/USD"
#   value = 70000.0
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
