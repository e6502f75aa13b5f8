package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/aristath/bankmirror/internal/events"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SyncLogWriter is the part of synclog.Repository the audit wrapper needs.
type SyncLogWriter interface {
	Create(ctx context.Context, jobName, runID string) (int64, error)
	Finish(ctx context.Context, id int64, status string, detail string) error
}

// AuditedJob wraps a job with a sync log entry: running when it starts,
// then succeeded or failed with the error text. The job's error is returned
// unchanged so the scheduler still logs it.
type AuditedJob struct {
	inner  Job
	logs   SyncLogWriter
	events domain.EventPublisher
	log    zerolog.Logger
}

// NewAuditedJob wraps inner. events may be nil.
func NewAuditedJob(inner Job, logs SyncLogWriter, events domain.EventPublisher, log zerolog.Logger) *AuditedJob {
	return &AuditedJob{
		inner:  inner,
		logs:   logs,
		events: events,
		log:    log.With().Str("component", "audited_job").Str("job", inner.Name()).Logger(),
	}
}

// Name returns the wrapped job's name
func (j *AuditedJob) Name() string {
	return j.inner.Name()
}

// Run executes the wrapped job between the two sync log writes.
func (j *AuditedJob) Run() error {
	ctx := context.Background()
	runID := uuid.NewString()

	id, err := j.logs.Create(ctx, j.Name(), runID)
	if err != nil {
		return fmt.Errorf("failed to open sync log: %w", err)
	}
	j.publish(events.SyncStarted, runID, nil)

	start := time.Now()
	runErr := j.runInner()

	status, detail := synclog.StatusSucceeded, ""
	if runErr != nil {
		status, detail = synclog.StatusFailed, runErr.Error()
	}

	if err := j.logs.Finish(ctx, id, status, detail); err != nil {
		j.log.Error().Err(err).Int64("sync_log_id", id).Msg("Failed to close sync log")
	}

	if runErr != nil {
		j.publish(events.SyncFailed, runID, map[string]any{"error": detail})
		return runErr
	}

	j.log.Info().Str("run_id", runID).Dur("duration", time.Since(start)).Msg("Sync run succeeded")
	j.publish(events.SyncSucceeded, runID, nil)
	return nil
}

// runInner converts a panic in the wrapped job into an error so the entry
// is still finished as failed.
func (j *AuditedJob) runInner() (err error) {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error().Interface("panic", r).Msg("Job panicked")
			err = fmt.Errorf("job %s panicked: %v", j.Name(), r)
		}
	}()
	return j.inner.Run()
}

func (j *AuditedJob) publish(t events.EventType, runID string, extra map[string]any) {
	if j.events == nil {
		return
	}
	data := map[string]any{"job": j.Name(), "run_id": runID}
	for k, v := range extra {
		data[k] = v
	}
	j.events.Publish(string(t), data)
}
