package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/bankmirror/internal/events"
	"github.com/aristath/bankmirror/internal/modules/synclog"
	testingpkg "github.com/aristath/bankmirror/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditedJob_Success(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "")
	defer cleanup()
	logs := synclog.NewRepository(db, zerolog.Nop())
	publisher := &testingpkg.MockEventPublisher{}

	inner := &countingJob{name: "balance_refresh"}
	job := NewAuditedJob(inner, logs, publisher, zerolog.Nop())

	require.NoError(t, job.Run())
	assert.Equal(t, "balance_refresh", job.Name())

	entries, err := logs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, synclog.StatusSucceeded, entries[0].Status)
	assert.NotEmpty(t, entries[0].RunID)
	assert.NotNil(t, entries[0].FinishedAt)

	assert.Equal(t, []string{string(events.SyncStarted), string(events.SyncSucceeded)}, publisher.Events())
}

func TestAuditedJob_FailureIsRecordedAndReturned(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "")
	defer cleanup()
	logs := synclog.NewRepository(db, zerolog.Nop())
	publisher := &testingpkg.MockEventPublisher{}

	boom := errors.New("HTTP 503 error")
	job := NewAuditedJob(&countingJob{name: "transaction_refresh", err: boom}, logs, publisher, zerolog.Nop())

	assert.ErrorIs(t, job.Run(), boom)

	entries, err := logs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, synclog.StatusFailed, entries[0].Status)
	require.NotNil(t, entries[0].Detail)
	assert.Equal(t, "HTTP 503 error", *entries[0].Detail)

	assert.Equal(t, []string{string(events.SyncStarted), string(events.SyncFailed)}, publisher.Events())
}

type failingLogs struct{}

func (failingLogs) Create(context.Context, string, string) (int64, error) {
	return 0, errors.New("database is locked")
}

func (failingLogs) Finish(context.Context, int64, string, string) error { return nil }

func TestAuditedJob_DoesNotRunWithoutSyncLog(t *testing.T) {
	inner := &countingJob{name: "x"}
	job := NewAuditedJob(inner, failingLogs{}, nil, zerolog.Nop())

	assert.Error(t, job.Run())
	assert.Equal(t, int32(0), inner.runs.Load())
}

func TestAuditedJob_PanicIsRecordedAsFailure(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "")
	defer cleanup()
	logs := synclog.NewRepository(db, zerolog.Nop())
	publisher := &testingpkg.MockEventPublisher{}

	job := NewAuditedJob(&countingJob{name: "balance_refresh", panic: true}, logs, publisher, zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	// The scheduler loop survives and the entry is closed
	New(zerolog.Nop()).runLogged(job)

	entries, err := logs.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, synclog.StatusFailed, entry.Status)
		assert.NotNil(t, entry.FinishedAt)
		require.NotNil(t, entry.Detail)
		assert.Contains(t, *entry.Detail, "panicked")
	}

	assert.Equal(t, []string{
		string(events.SyncStarted), string(events.SyncFailed),
		string(events.SyncStarted), string(events.SyncFailed),
	}, publisher.Events())
}
