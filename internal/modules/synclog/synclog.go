// Package synclog records the outcome of every background sync run.
//
// An entry is written as "running" when a job starts and updated exactly once
// when it finishes. The two writes are separate transactions, so a crash in
// between leaves the entry running.
package synclog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
)

// Status values of a sync log entry.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Entry is one audit row.
type Entry struct {
	ID         int64      `json:"id"`
	RunID      string     `json:"run_id"`
	JobName    string     `json:"job_name"`
	Status     string     `json:"status"`
	Detail     *string    `json:"detail"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// Repository persists sync log entries.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new sync log repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "sync_log").Logger(),
	}
}

// Create inserts a running entry and returns its id.
func (r *Repository) Create(ctx context.Context, jobName, runID string) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, r.db.Rebind(`
			INSERT INTO sync_logs (run_id, job_name, status, started_at)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`), runID, jobName, StatusRunning, time.Now().Unix()).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create sync log for %s: %w", jobName, err)
	}
	return id, nil
}

// Finish moves a running entry to its terminal status. Entries that already
// finished are left alone.
func (r *Repository) Finish(ctx context.Context, id int64, status string, detail string) error {
	if status != StatusSucceeded && status != StatusFailed {
		return &domain.ValidationError{Field: "status", Message: fmt.Sprintf("invalid terminal status %q", status)}
	}

	var detailArg interface{}
	if detail != "" {
		detailArg = detail
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.db.Rebind(`
			UPDATE sync_logs
			SET status = ?, detail = ?, finished_at = ?
			WHERE id = ? AND status = ?
		`), status, detailArg, time.Now().Unix(), id, StatusRunning)
		if err != nil {
			return fmt.Errorf("failed to finish sync log %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("sync log %d is not running: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// Get returns one entry.
func (r *Repository) Get(ctx context.Context, id int64) (*Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, job_name, status, detail, started_at, finished_at
		FROM sync_logs WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("sync log %d: %w", id, domain.ErrNotFound)
	}
	return scanEntry(rows)
}

// ListRecent returns the newest entries first.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, job_name, status, detail, started_at, finished_at
		FROM sync_logs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync logs: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var (
		e          Entry
		detail     sql.NullString
		startedAt  int64
		finishedAt sql.NullInt64
	)
	if err := rows.Scan(&e.ID, &e.RunID, &e.JobName, &e.Status, &detail, &startedAt, &finishedAt); err != nil {
		return nil, fmt.Errorf("failed to scan sync log: %w", err)
	}
	if detail.Valid {
		e.Detail = &detail.String
	}
	e.StartedAt = time.Unix(startedAt, 0).UTC()
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0).UTC()
		e.FinishedAt = &t
	}
	return &e, nil
}

// Prune deletes finished entries that started before cutoff and returns the
// number removed. Running entries are kept regardless of age.
func (r *Repository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM sync_logs
		WHERE status <> ? AND started_at < ?
	`, StatusRunning, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sync logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned sync logs")
	}
	return n, nil
}
