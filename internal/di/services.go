package di

import (
	"context"
	"fmt"

	"github.com/aristath/bankmirror/internal/clients/comdirect"
	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/events"
	"github.com/aristath/bankmirror/internal/modules/accounts"
	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/aristath/bankmirror/internal/modules/transactions"
	"github.com/aristath/bankmirror/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices builds the client, event bus and services. Persisted
// settings are applied to cfg first so they win over the environment.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		return fmt.Errorf("failed to apply persisted settings: %w", err)
	}

	retry, err := comdirect.NewRetryPolicy(cfg.Upstream.RetryMaxAttempts, cfg.Upstream.RetryBackoffBase, cfg.Upstream.RetryStatusCodes...)
	if err != nil {
		return fmt.Errorf("invalid retry policy: %w", err)
	}
	container.BankClient, err = comdirect.NewClient(comdirect.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Retry:   retry,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create bank client: %w", err)
	}

	container.EventBus = events.NewBus(log)

	container.AccountService = accounts.NewAccountService(
		container.BankClient,
		container.PositionRepo,
		container.DB,
		container.EventBus,
		log,
	)
	container.TransactionService = transactions.NewTransactionService(
		container.BankClient,
		container.TransactionRepo,
		container.DB,
		container.EventBus,
		log,
	)
	container.SettingsService = settings.NewService(container.SettingsRepo, container.EventBus, log)
	container.OrderService = orders.NewService(container.OrderRepo, log)
	container.MaintenanceService = reliability.NewMaintenanceService(container.DB, cfg.DataDir, log)

	if cfg.Backup.Enabled() {
		if container.DB.IsPostgres() {
			log.Warn().Msg("Backups are configured but the cache runs on PostgreSQL; skipping")
		} else {
			store, err := reliability.NewS3Store(ctx, cfg.Backup, log)
			if err != nil {
				return fmt.Errorf("failed to create backup store: %w", err)
			}
			container.BackupService = reliability.NewBackupService(
				container.DB,
				store,
				cfg.Backup.Prefix,
				cfg.Backup.RetentionCount,
				cfg.DataDir,
				container.EventBus,
				log,
			)
		}
	}

	log.Debug().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}
