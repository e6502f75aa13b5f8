package orders

import (
	"context"
	"testing"

	"github.com/aristath/bankmirror/internal/domain"
	testingpkg "github.com/aristath/bankmirror/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "")
	t.Cleanup(cleanup)
	return NewService(NewRepository(db, zerolog.Nop()), zerolog.Nop())
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateOrder_Limit(t *testing.T) {
	service := newTestService(t)
	notes := "rebalance"

	order, err := service.CreateOrder(context.Background(), OrderCreate{
		Instrument: " DE0005140008 ",
		Side:       "BUY",
		OrderType:  "Limit",
		Quantity:   decimal.RequireFromString("10"),
		LimitPrice: decPtr("12.345"),
		Notes:      &notes,
	})
	require.NoError(t, err)

	assert.Positive(t, order.ID)
	assert.Equal(t, "DE0005140008", order.Instrument)
	assert.Equal(t, "buy", order.Side)
	assert.Equal(t, "limit", order.OrderType)
	assert.Equal(t, StatusPending, order.Status)
	assert.True(t, order.Quantity.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, order.LimitPrice)
	assert.Equal(t, "12.345", order.LimitPrice.String())
	assert.Equal(t, "rebalance", *order.Notes)
}

func TestCreateOrder_Validation(t *testing.T) {
	service := newTestService(t)

	testCases := []struct {
		name  string
		in    OrderCreate
		field string
	}{
		{"missing instrument", OrderCreate{Side: "buy", OrderType: "market", Quantity: decimal.NewFromInt(1)}, "instrument"},
		{"bad side", OrderCreate{Instrument: "X", Side: "hold", OrderType: "market", Quantity: decimal.NewFromInt(1)}, "side"},
		{"bad type", OrderCreate{Instrument: "X", Side: "buy", OrderType: "stop", Quantity: decimal.NewFromInt(1)}, "order_type"},
		{"zero quantity", OrderCreate{Instrument: "X", Side: "buy", OrderType: "market"}, "quantity"},
		{"limit without price", OrderCreate{Instrument: "X", Side: "sell", OrderType: "limit", Quantity: decimal.NewFromInt(1)}, "limit_price"},
		{"negative price", OrderCreate{Instrument: "X", Side: "sell", OrderType: "limit", Quantity: decimal.NewFromInt(1), LimitPrice: decPtr("-1")}, "limit_price"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateOrder(context.Background(), tc.in)
			var valErr *domain.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Field, tc.field)
		})
	}

	orders, err := service.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateOrderStatus(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	order, err := service.CreateOrder(ctx, OrderCreate{Instrument: "X", Side: "buy", OrderType: "market", Quantity: decimal.NewFromInt(3)})
	require.NoError(t, err)

	updated, err := service.UpdateOrderStatus(ctx, order.ID, "EXECUTED")
	require.NoError(t, err)
	assert.Equal(t, StatusExecuted, updated.Status)

	var valErr *domain.ValidationError
	_, err = service.UpdateOrderStatus(ctx, order.ID, "settled")
	assert.ErrorAs(t, err, &valErr)

	_, err = service.UpdateOrderStatus(ctx, 9999, "cancelled")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, inst := range []string{"A", "B"} {
		_, err := service.CreateOrder(ctx, OrderCreate{Instrument: inst, Side: "buy", OrderType: "market", Quantity: decimal.NewFromInt(1)})
		require.NoError(t, err)
	}

	orders, err := service.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "B", orders[0].Instrument)
}
