package di

import (
	"fmt"

	"github.com/aristath/bankmirror/internal/config"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers every background job
// whose prerequisites are configured. Each job is wrapped in an AuditedJob
// so its runs land in the sync log.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	sched := scheduler.New(log)
	container.Scheduler = sched

	if !cfg.Scheduler.Enabled {
		log.Info().Msg("Scheduler disabled")
		return nil
	}

	headers := domain.Headers(cfg.Scheduler.Headers)
	audited := func(job scheduler.Job) scheduler.Job {
		return scheduler.NewAuditedJob(job, container.SyncLogRepo, container.EventBus, log)
	}

	type registration struct {
		schedule string
		job      scheduler.Job
	}
	var jobs []registration

	if cfg.Scheduler.UserID != "" {
		jobs = append(jobs, registration{
			cfg.Scheduler.BalancesSchedule,
			scheduler.NewBalanceRefreshJob(container.AccountService, cfg.Scheduler.UserID, headers, log),
		})
	} else {
		log.Info().Msg("No user id configured; balance refresh job not registered")
	}

	if cfg.Scheduler.AccountID != "" {
		jobs = append(jobs, registration{
			cfg.Scheduler.TransactionSchedule,
			scheduler.NewTransactionRefreshJob(container.TransactionService, cfg.Scheduler.AccountID, cfg.Scheduler.TransactionState, headers, log),
		})
	} else {
		log.Info().Msg("No account id configured; transaction refresh job not registered")
	}

	if container.BackupService != nil {
		jobs = append(jobs, registration{
			cfg.Scheduler.BackupSchedule,
			scheduler.NewBackupJob(container.BackupService, log),
		})
	}

	jobs = append(jobs, registration{
		cfg.Scheduler.MaintenanceSchedule,
		scheduler.NewMaintenanceJob(container.MaintenanceService, log),
	})

	if cfg.Scheduler.SyncLogRetention > 0 {
		jobs = append(jobs, registration{
			cfg.Scheduler.MaintenanceSchedule,
			scheduler.NewSyncLogCleanupJob(container.SyncLogRepo, cfg.Scheduler.SyncLogRetention, log),
		})
	}

	for _, reg := range jobs {
		if err := sched.AddJob(reg.schedule, audited(reg.job)); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.job.Name(), err)
		}
	}

	log.Info().Strs("jobs", sched.JobNames()).Msg("Jobs registered")
	return nil
}
