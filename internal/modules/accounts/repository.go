package accounts

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

// PositionRepository persists account balances keyed by account id.
type PositionRepository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// UpsertBalances merges balances into the cache inside tx. Balances without
// an account id are skipped. A balance without an amount is stored with a
// NULL amount rather than failing the batch.
func (r *PositionRepository) UpsertBalances(ctx context.Context, tx *sql.Tx, balances []*domain.AccountBalance, userID string) (UpsertStats, error) {
	var stats UpsertStats
	now := time.Now().Unix()

	for _, balance := range balances {
		if balance == nil {
			continue
		}
		accountID := balance.ResolvedAccountID()
		if accountID == "" {
			stats.Skipped++
			continue
		}

		amount, currency := balance.PrimaryAmount()
		raw, err := domain.MarshalRaw(balance)
		if err != nil {
			return stats, fmt.Errorf("failed to encode balance %s: %w", accountID, err)
		}

		var id int64
		err = tx.QueryRowContext(ctx, r.db.Rebind(`SELECT id FROM positions WHERE account_id = ?`), accountID).Scan(&id)
		switch {
		case err == nil:
			_, err = tx.ExecContext(ctx, r.db.Rebind(`
				UPDATE positions
				SET user_id = ?, amount = ?, currency = ?, raw = ?, updated_at = ?
				WHERE id = ?
			`), userID, nullDecimal(amount), nullString(currency), raw, now, id)
			if err != nil {
				return stats, fmt.Errorf("failed to update position %s: %w", accountID, err)
			}
			stats.Updated++
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, r.db.Rebind(`
				INSERT INTO positions (external_id, user_id, account_id, amount, currency, raw, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`), accountID, userID, accountID, nullDecimal(amount), nullString(currency), raw, now, now)
			if err != nil {
				return stats, fmt.Errorf("failed to insert position %s: %w", accountID, err)
			}
			stats.Inserted++
		default:
			return stats, fmt.Errorf("failed to look up position %s: %w", accountID, err)
		}
	}

	if stats.Skipped > 0 {
		r.log.Debug().Int("skipped", stats.Skipped).Msg("Skipped balances without account id")
	}
	return stats, nil
}

// ListPositions returns cached positions of a user, or all when userID is empty.
func (r *PositionRepository) ListPositions(ctx context.Context, userID string) ([]Position, error) {
	query := `SELECT id, external_id, user_id, account_id, amount, currency, raw, created_at, updated_at FROM positions`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY account_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	positions := make([]Position, 0)
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

func scanPosition(rows *sql.Rows) (Position, error) {
	var (
		pos                  Position
		amount, currency     sql.NullString
		createdAt, updatedAt int64
	)
	if err := rows.Scan(&pos.ID, &pos.ExternalID, &pos.UserID, &pos.AccountID, &amount, &currency, &pos.Raw, &createdAt, &updatedAt); err != nil {
		return pos, err
	}

	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return pos, fmt.Errorf("invalid cached amount %q: %w", amount.String, err)
		}
		pos.Amount = &d
	}
	if currency.Valid {
		pos.Currency = &currency.String
	}
	pos.CreatedAt = time.Unix(createdAt, 0).UTC()
	pos.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return pos, nil
}

// nullDecimal stores amounts as text so their scale survives.
func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return domain.FormatDecimal(*d)
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
