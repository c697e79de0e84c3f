package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds owner identity settings.
type AuthConfig struct {
	Secret   string        `mapstructure:"secret"`
	Token    string        `mapstructure:"token"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// ServerConfig configures the HTTP API started by `serve`.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// SchedulerConfig configures the recurring scheduler trigger.
type SchedulerConfig struct {
	Schedule   string `mapstructure:"schedule"`
	Workers    int    `mapstructure:"workers"`
	MaxCatchUp int    `mapstructure:"max_catch_up"`
}

// RetryConfig bounds conflict retries of atomic units.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// BudgetConfig holds budget alert thresholds.
type BudgetConfig struct {
	WarningPercent float64 `mapstructure:"warning_percent"`
}

// WalletConfig holds wallet defaults.
type WalletConfig struct {
	DefaultCurrency string `mapstructure:"default_currency"`
}

// Config is the full application configuration.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Server    ServerConfig    `mapstructure:"server"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Budget    BudgetConfig    `mapstructure:"budget"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.token_ttl", 30*24*time.Hour)
	v.SetDefault("server.address", "127.0.0.1:8080")
	v.SetDefault("scheduler.schedule", "@every 1h")
	v.SetDefault("scheduler.workers", 1)
	v.SetDefault("scheduler.max_catch_up", 366)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", 10*time.Millisecond)
	v.SetDefault("budget.warning_percent", 80.0)
	v.SetDefault("wallet.default_currency", "USD")
}

// Load decodes the configuration held by v, applying defaults first.
// It follows viper's precedence: flags, LEDGER_ environment variables, config file,
// then defaults.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Wallet.DefaultCurrency = strings.ToUpper(cfg.Wallet.DefaultCurrency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and required values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if c.Scheduler.Workers < 1 {
		return fmt.Errorf("%w: scheduler.workers must be at least 1", common.ErrInvalidConfig)
	}
	if c.Scheduler.MaxCatchUp < 1 {
		return fmt.Errorf("%w: scheduler.max_catch_up must be at least 1", common.ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if c.Budget.WarningPercent <= 0 || c.Budget.WarningPercent >= 100 {
		return fmt.Errorf("%w: budget.warning_percent must be between 0 and 100", common.ErrInvalidConfig)
	}
	if len(c.Wallet.DefaultCurrency) != 3 {
		return fmt.Errorf("%w: wallet.default_currency must be a 3-letter code", common.ErrInvalidConfig)
	}
	return nil
}

// RetryOptions converts the retry section into common.RetryOptions.
func (c *Config) RetryOptions() common.RetryOptions {
	return common.RetryOptions{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: c.Retry.InitialDelay,
	}
}

// WarningThreshold returns the budget warning threshold as a decimal percentage.
func (c *Config) WarningThreshold() decimal.Decimal {
	return decimal.NewFromFloat(c.Budget.WarningPercent)
}

// EnvKeyReplacer maps nested keys to environment names, so auth.token is read from
// LEDGER_AUTH_TOKEN.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
