package transactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repository persists transactions keyed by their reference.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new transaction repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "transaction").Logger(),
	}
}

// UpsertTransactions merges txns into the cache inside tx. Rows are matched by
// ExternalID; transactions without one are skipped since a later refresh
// could not find them again.
func (r *Repository) UpsertTransactions(ctx context.Context, tx *sql.Tx, txns []*domain.AccountTransaction, accountID string) (UpsertStats, error) {
	var stats UpsertStats
	now := time.Now().Unix()

	for _, t := range txns {
		if t == nil {
			continue
		}
		externalID := t.ExternalID()
		if externalID == "" {
			stats.Skipped++
			continue
		}

		raw, err := domain.MarshalRaw(t)
		if err != nil {
			return stats, fmt.Errorf("failed to encode transaction %s: %w", externalID, err)
		}

		var amount, currency, bookingDate interface{}
		if t.Amount != nil {
			amount = nullText(t.Amount.ValueString())
			currency = nullText(t.Amount.UnitString())
		}
		if t.BookingDate != nil {
			bookingDate = t.BookingDate.String()
		}

		var id int64
		err = tx.QueryRowContext(ctx, r.db.Rebind(`SELECT id FROM transactions WHERE external_id = ?`), externalID).Scan(&id)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, r.db.Rebind(`
				UPDATE transactions
				SET booking_date = ?, amount = ?, currency = ?, raw = ?, updated_at = ?
				WHERE id = ?
			`), bookingDate, amount, currency, raw, now, id)
			if err != nil {
				return stats, fmt.Errorf("failed to update transaction %s: %w", externalID, err)
			}
			stats.Updated++
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, r.db.Rebind(`
				INSERT INTO transactions (external_id, account_id, booking_date, amount, currency, raw, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`), externalID, accountID, bookingDate, amount, currency, raw, now, now)
			if err != nil {
				return stats, fmt.Errorf("failed to insert transaction %s: %w", externalID, err)
			}
			stats.Inserted++
		default:
			return stats, fmt.Errorf("failed to look up transaction %s: %w", externalID, err)
		}
	}

	if stats.Skipped > 0 {
		r.log.Debug().Int("skipped", stats.Skipped).Str("account_id", accountID).Msg("Skipped transactions without reference")
	}
	return stats, nil
}

// ListTransactions returns cached transactions of an account, newest booking first.
func (r *Repository) ListTransactions(ctx context.Context, accountID string) ([]CachedTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, external_id, account_id, booking_date, amount, currency, raw, created_at, updated_at
		FROM transactions
		WHERE account_id = ?
		ORDER BY booking_date DESC, id DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	result := make([]CachedTransaction, 0)
	for rows.Next() {
		var (
			ct                            CachedTransaction
			bookingDate, amount, currency sql.NullString
			createdAt, updatedAt          int64
		)
		if err := rows.Scan(&ct.ID, &ct.ExternalID, &ct.AccountID, &bookingDate, &amount, &currency, &ct.Raw, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if bookingDate.Valid {
			ct.BookingDate = &bookingDate.String
		}
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("invalid cached amount %q: %w", amount.String, err)
			}
			ct.Amount = &d
		}
		if currency.Valid {
			ct.Currency = &currency.String
		}
		ct.CreatedAt = time.Unix(createdAt, 0).UTC()
		ct.UpdatedAt = time.Unix(updatedAt, 0).UTC()
		result = append(result, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return result, nil
}

// CountByAccount returns how many transactions are cached for accountID.
func (r *Repository) CountByAccount(ctx context.Context, accountID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

func nullText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
