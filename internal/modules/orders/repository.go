package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/bankmirror/internal/database"
	"github.com/aristath/bankmirror/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, instrument, side, order_type, quantity, limit_price, status, notes, created_at, updated_at`

// Repository persists orders.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

// NewRepository creates a new order repository
func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "order").Logger(),
	}
}

// Create stores a pending order.
func (r *Repository) Create(ctx context.Context, in OrderCreate) (*Order, error) {
	now := time.Now().Unix()

	var limit interface{}
	if in.LimitPrice != nil {
		limit = domain.FormatDecimal(*in.LimitPrice)
	}
	var notes interface{}
	if in.Notes != nil {
		notes = *in.Notes
	}

	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, r.db.Rebind(`
			INSERT INTO orders (instrument, side, order_type, quantity, limit_price, status, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id
		`), in.Instrument, in.Side, in.OrderType, domain.FormatDecimal(in.Quantity), limit, StatusPending, notes, now, now).Scan(&id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return r.Get(ctx, id)
}

// Get returns one order or domain.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id int64) (*Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return scanOrder(rows)
}

// List returns orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return out, nil
}

// UpdateStatus sets the status of an existing order.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update order %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanOrder(rows *sql.Rows) (*Order, error) {
	var (
		o                    Order
		quantity             string
		limit, notes         sql.NullString
		createdAt, updatedAt int64
	)
	if err := rows.Scan(&o.ID, &o.Instrument, &o.Side, &o.OrderType, &quantity, &limit, &o.Status, &notes, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return nil, fmt.Errorf("invalid stored quantity %q: %w", quantity, err)
	}
	o.Quantity = q
	if limit.Valid {
		d, err := decimal.NewFromString(limit.String)
		if err != nil {
			return nil, fmt.Errorf("invalid stored limit price %q: %w", limit.String, err)
		}
		o.LimitPrice = &d
	}
	if notes.Valid {
		o.Notes = &notes.String
	}
	o.CreatedAt = time.Unix(createdAt, 0).UTC()
	o.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &o, nil
}
