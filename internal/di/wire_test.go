package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		DataDir:  dir,
		Port:     8000,
		LogLevel: "info",
		Upstream: config.UpstreamConfig{
			BaseURL:          "http://127.0.0.1:1/api/",
			Timeout:          time.Second,
			RetryMaxAttempts: 3,
			RetryBackoffBase: 10 * time.Millisecond,
			RetryStatusCodes: []int{429, 503},
		},
		Database: config.DatabaseConfig{
			Driver: database.DriverSQLite,
			DSN:    filepath.Join(dir, "bank_data.db"),
		},
		Scheduler: config.SchedulerConfig{
			Enabled:             true,
			BalancesSchedule:    "@every 15m",
			TransactionSchedule: "@every 30m",
			BackupSchedule:      "0 3 * * *",
			MaintenanceSchedule: "30 4 * * 0",
		},
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.AccountID = "ACC-1"
	cfg.Scheduler.SyncLogRetention = 30 * 24 * time.Hour

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.NotNil(t, container.BankClient)
	assert.NotNil(t, container.AccountService)
	assert.NotNil(t, container.TransactionService)
	assert.NotNil(t, container.SettingsService)
	assert.NotNil(t, container.OrderService)
	assert.NotNil(t, container.EventBus)
	assert.Nil(t, container.BackupService)

	assert.ElementsMatch(t,
		[]string{"transaction_refresh", "cache_maintenance", "sync_log_cleanup"},
		container.Scheduler.JobNames())
}

func TestWire_PersistedSettingsOverrideEnvironment(t *testing.T) {
	cfg := testConfig(t)

	first, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, first.SettingsRepo.Set("user_id", "U-42", nil))
	require.NoError(t, first.Close())

	cfg.Scheduler.UserID = "from-env"
	second, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	assert.Equal(t, "U-42", cfg.Scheduler.UserID)
	assert.Contains(t, second.Scheduler.JobNames(), "balance_refresh")
}

func TestWire_SchedulerDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.Enabled = false
	cfg.Scheduler.UserID = "U1"

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.Empty(t, container.Scheduler.JobNames())
}

func TestWire_InvalidRetryPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upstream.RetryMaxAttempts = 0

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.MaintenanceSchedule = "not a cron"

	_, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "cache_maintenance")
}
