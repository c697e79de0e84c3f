package config

import (
	"testing"
	"time"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/ledger/ledger.db", cfg.Database.Path)
	assert.Equal(t, "@every 1h", cfg.Scheduler.Schedule)
	assert.Equal(t, 1, cfg.Scheduler.Workers)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialDelay)
	assert.Equal(t, "USD", cfg.Wallet.DefaultCurrency)
	assert.Equal(t, "80", cfg.WarningThreshold().String())
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("database.path", "/tmp/ledger.db")
	v.Set("wallet.default_currency", "eur")
	v.Set("budget.warning_percent", 75)
	v.Set("retry.max_attempts", 5)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	assert.Equal(t, "EUR", cfg.Wallet.DefaultCurrency)
	assert.Equal(t, 5, cfg.RetryOptions().MaxAttempts)
	assert.Equal(t, "75", cfg.WarningThreshold().String())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "zero workers", key: "scheduler.workers", value: 0},
		{name: "warning over 100", key: "budget.warning_percent", value: 120},
		{name: "bad currency", key: "wallet.default_currency", value: "DOLLARS"},
		{name: "no retries", key: "retry.max_attempts", value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("LEDGER_DATA", "/srv/ledger")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, "/home/tester/db.sqlite", ExpandPath("~/db.sqlite"))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/srv/ledger/ledger.db", ExpandPath("$LEDGER_DATA/ledger.db"))
}

func TestDefaultDirs(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	assert.Equal(t, "/home/tester/.config/ledger", ConfigDir())
	assert.Equal(t, "/home/tester/.local/share/ledger/ledger.db", DefaultDatabasePath())

	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	assert.Equal(t, "/xdg/config/ledger", ConfigDir())
	assert.Equal(t, "/xdg/data/ledger", DataDir())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LEDGER_AUTH_TOKEN", "tok")
	t.Setenv("LEDGER_SCHEDULER_WORKERS", "4")

	v := viper.New()
	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(EnvKeyReplacer())
	v.AutomaticEnv()

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Auth.Token)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
}
