package orders

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aristath/bankmirror/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Service validates and stores orders.
type Service struct {
	repo     *Repository
	validate *validator.Validate
	log      zerolog.Logger
}

// NewService creates a new order service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: newValidator(),
		log:      log.With().Str("service", "orders").Logger(),
	}
}

// ListOrders returns stored orders, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

// CreateOrder validates in and stores it as pending. Side and order type
// are matched case-insensitively.
func (s *Service) CreateOrder(ctx context.Context, in OrderCreate) (*Order, error) {
	in.Instrument = strings.TrimSpace(in.Instrument)
	in.Side = strings.ToLower(strings.TrimSpace(in.Side))
	in.OrderType = strings.ToLower(strings.TrimSpace(in.OrderType))

	if err := s.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	order, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("order_id", order.ID).
		Str("instrument", order.Instrument).
		Str("side", order.Side).
		Str("order_type", order.OrderType).
		Msg("Order recorded")
	return order, nil
}

// UpdateOrderStatus changes the status of an order. Unknown statuses are a
// validation error; a missing order is domain.ErrNotFound.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if !slices.Contains(AllowedStatuses, normalized) {
		return nil, &domain.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("unsupported order status %q", status),
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, normalized); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}
