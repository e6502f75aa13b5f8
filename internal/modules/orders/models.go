// Package orders keeps passively stored order records. Nothing here places,
// matches or executes orders; status changes are bookkeeping only.
package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusPlaced    = "placed"
	StatusExecuted  = "executed"
	StatusCancelled = "cancelled"
)

// AllowedStatuses lists every status UpdateOrderStatus accepts.
var AllowedStatuses = []string{StatusPending, StatusPlaced, StatusExecuted, StatusCancelled}

// OrderCreate is the data required to create an order.
type OrderCreate struct {
	Instrument string           `json:"instrument" validate:"required,max=64"`
	Side       string           `json:"side" validate:"required,oneof=buy sell"`
	OrderType  string           `json:"order_type" validate:"required,oneof=market limit"`
	Quantity   decimal.Decimal  `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price,omitempty"`
	Notes      *string          `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Order is a stored order.
type Order struct {
	ID         int64            `json:"id"`
	Instrument string           `json:"instrument"`
	Side       string           `json:"side"`
	OrderType  string           `json:"order_type"`
	Quantity   decimal.Decimal  `json:"quantity"`
	LimitPrice *decimal.Decimal `json:"limit_price"`
	Status     string           `json:"status"`
	Notes      *string          `json:"notes"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// StatusUpdate is the body of POST /api/orders/{id}/status.
type StatusUpdate struct {
	Status string `json:"status"`
}
