// Package accounts caches account balances (positions) and serves them with
// cache-fill-on-miss semantics.
package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the cached balance of one account. There is exactly one row
// per account; every refresh overwrites it in place.
type Position struct {
	ID         int64
	ExternalID string
	UserID     string
	AccountID  string
	Amount     *decimal.Decimal
	Currency   *string
	Raw        string // JSON of the last decoded AccountBalance
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UpsertStats summarizes one upsert call.
type UpsertStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// BalanceSummary is the simplified view used by dashboards and the CLI.
type BalanceSummary struct {
	AccountID string  `json:"account_id"`
	Amount    *string `json:"amount"`
	Currency  *string `json:"currency"`
}
