package scheduler

import (
	"context"
	"time"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/reliability"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single background run.
const jobTimeout = 5 * time.Minute

// BalanceRefresher is satisfied by accounts.AccountService.
type BalanceRefresher interface {
	RefreshAccountBalances(ctx context.Context, userID string, q domain.BalanceQuery, headers domain.Headers) (*domain.ListResourceAccountBalance, error)
}

// TransactionRefresher is satisfied by transactions.TransactionService.
type TransactionRefresher interface {
	RefreshTransactions(ctx context.Context, accountID string, q domain.TransactionQuery, headers domain.Headers) (*domain.ListResourceAccountTransaction, error)
}

// BackupCreator is satisfied by reliability.BackupService.
type BackupCreator interface {
	CreateAndUpload(ctx context.Context) (string, error)
}

// MaintenanceRunner is satisfied by reliability.MaintenanceService.
type MaintenanceRunner interface {
	Run(ctx context.Context) (*reliability.MaintenanceReport, error)
}

// SyncLogPruner is satisfied by synclog.Repository.
type SyncLogPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// BalanceRefreshJob refreshes the balance cache of one user.
type BalanceRefreshJob struct {
	service BalanceRefresher
	userID  string
	headers domain.Headers
	log     zerolog.Logger
}

// NewBalanceRefreshJob creates a balance refresh job for userID.
func NewBalanceRefreshJob(service BalanceRefresher, userID string, headers domain.Headers, log zerolog.Logger) *BalanceRefreshJob {
	return &BalanceRefreshJob{
		service: service,
		userID:  userID,
		headers: headers,
		log:     log.With().Str("job", "balance_refresh").Logger(),
	}
}

// Name returns the job name
func (j *BalanceRefreshJob) Name() string {
	return "balance_refresh"
}

// Run executes the balance refresh
func (j *BalanceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	list, err := j.service.RefreshAccountBalances(ctx, j.userID, domain.BalanceQuery{}, j.headers)
	if err != nil {
		return err
	}
	j.log.Debug().Int("balances", len(list.Values)).Msg("Balance refresh finished")
	return nil
}

// TransactionRefreshJob refreshes the transactions of one account.
type TransactionRefreshJob struct {
	service   TransactionRefresher
	accountID string
	state     string
	headers   domain.Headers
	log       zerolog.Logger
}

// NewTransactionRefreshJob creates a transaction refresh job for accountID.
// An empty state sends no transactionState filter upstream.
func NewTransactionRefreshJob(service TransactionRefresher, accountID, state string, headers domain.Headers, log zerolog.Logger) *TransactionRefreshJob {
	return &TransactionRefreshJob{
		service:   service,
		accountID: accountID,
		state:     state,
		headers:   headers,
		log:       log.With().Str("job", "transaction_refresh").Logger(),
	}
}

// Name returns the job name
func (j *TransactionRefreshJob) Name() string {
	return "transaction_refresh"
}

// Run executes the transaction refresh
func (j *TransactionRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	var q domain.TransactionQuery
	if j.state != "" {
		q.TransactionState = &j.state
	}
	list, err := j.service.RefreshTransactions(ctx, j.accountID, q, j.headers)
	if err != nil {
		return err
	}
	j.log.Debug().Int("transactions", len(list.Values)).Msg("Transaction refresh finished")
	return nil
}

// BackupJob uploads a snapshot of the cache database.
type BackupJob struct {
	backup BackupCreator
	log    zerolog.Logger
}

// NewBackupJob creates a backup job
func NewBackupJob(backup BackupCreator, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backup: backup,
		log:    log.With().Str("job", "cache_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "cache_backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	key, err := j.backup.CreateAndUpload(ctx)
	if err != nil {
		return err
	}
	j.log.Info().Str("key", key).Msg("Cache backup uploaded")
	return nil
}

// MaintenanceJob runs integrity and WAL housekeeping on the cache.
type MaintenanceJob struct {
	maintenance MaintenanceRunner
	log         zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job
func NewMaintenanceJob(maintenance MaintenanceRunner, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		maintenance: maintenance,
		log:         log.With().Str("job", "cache_maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "cache_maintenance"
}

// Run executes maintenance
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := j.maintenance.Run(ctx)
	if err != nil {
		return err
	}
	j.log.Debug().Float64("disk_free_percent", report.DiskFreePercent).Msg("Maintenance finished")
	return nil
}

// SyncLogCleanupJob deletes finished sync log entries older than the
// retention window.
type SyncLogCleanupJob struct {
	logs      SyncLogPruner
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewSyncLogCleanupJob creates a sync log cleanup job
func NewSyncLogCleanupJob(logs SyncLogPruner, retention time.Duration, log zerolog.Logger) *SyncLogCleanupJob {
	return &SyncLogCleanupJob{
		logs:      logs,
		retention: retention,
		log:       log.With().Str("job", "sync_log_cleanup").Logger(),
		now:       time.Now,
	}
}

// Name returns the job name
func (j *SyncLogCleanupJob) Name() string {
	return "sync_log_cleanup"
}

// Run executes the cleanup
func (j *SyncLogCleanupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := j.logs.Prune(ctx, j.now().Add(-j.retention))
	if err != nil {
		return err
	}
	j.log.Debug().Int64("deleted", deleted).Msg("Sync log cleanup finished")
	return nil
}
