// Package transactions caches booked account transactions. Unlike positions
// they accumulate history: every distinct reference gets its own row.
package transactions

import (
	"time"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/shopspring/decimal"
)

// CachedTransaction is one persisted transaction row.
type CachedTransaction struct {
	ID          int64
	ExternalID  string
	AccountID   string
	BookingDate *string // YYYY-MM-DD
	Amount      *decimal.Decimal
	Currency    *string
	Raw         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertStats summarizes one upsert call.
type UpsertStats struct {
	Inserted int
	Updated  int
	Skipped  int
}

// TransactionRecord is the flattened view returned by the REST API.
type TransactionRecord struct {
	ExternalID     string  `json:"external_id"`
	AccountID      string  `json:"account_id"`
	BookingDate    *string `json:"booking_date"`
	BookingStatus  *string `json:"booking_status"`
	Amount         *string `json:"amount"`
	Currency       *string `json:"currency"`
	Counterparty   *string `json:"counterparty"`
	RemittanceInfo *string `json:"remittance_info"`
}

// ToRecord flattens a decoded transaction for accountID.
func ToRecord(accountID string, t *domain.AccountTransaction) TransactionRecord {
	rec := TransactionRecord{
		ExternalID:     t.ExternalID(),
		AccountID:      accountID,
		BookingStatus:  t.BookingStatus,
		RemittanceInfo: t.RemittanceInfo,
	}
	if t.BookingDate != nil {
		d := t.BookingDate.String()
		rec.BookingDate = &d
	}
	if t.Amount != nil {
		if v := t.Amount.ValueString(); v != "" {
			rec.Amount = &v
		}
		if u := t.Amount.UnitString(); u != "" {
			rec.Currency = &u
		}
	}
	if c := t.Counterparty(); c != "" {
		rec.Counterparty = &c
	}
	return rec
}

// ToRecords flattens a list, skipping nil entries.
func ToRecords(accountID string, txns []*domain.AccountTransaction) []TransactionRecord {
	out := make([]TransactionRecord, 0, len(txns))
	for _, t := range txns {
		if t == nil {
			continue
		}
		out = append(out, ToRecord(accountID, t))
	}
	return out
}
