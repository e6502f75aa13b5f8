// Package di wires the application's components with explicit constructors.
package di

import (
	"github.com/aristath/bankmirror/internal/clients/comdirect"
	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/events"
	"github.com/aristath/bankmirror/internal/modules/accounts"
	"github.com/aristath/bankmirror/internal/modules/orders"
	"github.com/aristath/bankmirror/internal/modules/settings"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	"github.com/aristath/bankmirror/internal/modules/transactions"
	"github.com/aristath/bankmirror/internal/reliability"
	"github.com/aristath/bankmirror/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// It is created by Wire and handed to the HTTP server; nothing in it is a
// package-level singleton.
type Container struct {
	// Storage
	DB *database.DB

	// Clients
	BankClient *comdirect.Client

	// Repositories
	PositionRepo    *accounts.PositionRepository
	TransactionRepo *transactions.Repository
	SyncLogRepo     *synclog.Repository
	SettingsRepo    *settings.Repository
	OrderRepo       *orders.Repository

	// Services
	AccountService     *accounts.AccountService
	TransactionService *transactions.TransactionService
	SettingsService    *settings.Service
	OrderService       *orders.Service
	MaintenanceService *reliability.MaintenanceService
	BackupService      *reliability.BackupService // nil when no bucket is configured

	// Infrastructure
	EventBus  *events.Bus
	Scheduler *scheduler.Scheduler
}

// Close stops the scheduler and closes the database.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
