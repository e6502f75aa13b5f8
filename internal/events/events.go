// Package events provides the in-process event bus that connects sync jobs
// and services with live subscribers such as the websocket stream.
package events

import (
	"time"
)

// EventType identifies an event.
type EventType string

// Event types emitted by the application.
const (
	BalancesRefreshed     EventType = "BALANCES_REFRESHED"
	TransactionsRefreshed EventType = "TRANSACTIONS_REFRESHED"
	SettingsChanged       EventType = "SETTINGS_CHANGED"
	SyncStarted           EventType = "SYNC_STARTED"
	SyncSucceeded         EventType = "SYNC_SUCCEEDED"
	SyncFailed            EventType = "SYNC_FAILED"
	BackupCompleted       EventType = "BACKUP_COMPLETED"
)

// Event is one published occurrence.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
