package di

import (
	"fmt"

	"github.com/aristath/bankmirror/internal/modules/accounts"
	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	"github.com/aristath/bankmirror/internal/modules/transactions"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil || container.DB == nil {
		return fmt.Errorf("container has no database")
	}

	container.PositionRepo = accounts.NewPositionRepository(container.DB, log)
	container.TransactionRepo = transactions.NewRepository(container.DB, log)
	container.SyncLogRepo = synclog.NewRepository(container.DB, log)
	container.SettingsRepo = settings.NewRepository(container.DB, log)
	container.OrderRepo = orders.NewRepository(container.DB, log)

	log.Debug().Msg("Repositories initialized")
	return nil
}
