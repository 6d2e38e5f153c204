package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// helper для создания заказа с двумя позициями: 30.00×1 + 10.00×2.
func makeOrder(t *testing.T) domain.Order {
	t.Helper()

	now := time.Now().UTC()
	order := domain.NewOrder("customer-1", "restaurant-1", now)
	for _, p := range []struct {
		id    string
		price string
		qty   int32
	}{
		{id: "product-1", price: "30.00", qty: 1},
		{id: "product-2", price: "10.00", qty: 2},
	} {
		line, err := domain.NewOrderLine(order.ID, domain.Product{
			ID:           p.id,
			RestaurantID: "restaurant-1",
			Name:         p.id,
			Price:        decimal.RequireFromString(p.price),
			Active:       true,
		}, p.qty, now)
		require.NoError(t, err)
		order.AddLine(line)
	}
	return order
}

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.LinePrice
		want  string
	}{
		{name: "empty", lines: nil, want: "0"},
		{
			name: "two lines",
			lines: []domain.LinePrice{
				{Quantity: 1, UnitPrice: decimal.RequireFromString("30.00")},
				{Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
			},
			want: "50",
		},
		{
			name: "no float drift",
			lines: []domain.LinePrice{
				{Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
				{Quantity: 1, UnitPrice: decimal.RequireFromString("0.20")},
			},
			want: "0.5",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.CalculateTotal(tc.lines)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestCalculateTotal_Idempotent(t *testing.T) {
	lines := []domain.LinePrice{
		{Quantity: 7, UnitPrice: decimal.RequireFromString("12.35")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
	}

	first := domain.CalculateTotal(lines)
	second := domain.CalculateTotal(lines)

	assert.True(t, first.Equal(second))
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("12.35")), "input must not be mutated")
}

func TestNewOrder_SnapshotsPrice(t *testing.T) {
	product := domain.Product{ID: "p", Price: decimal.RequireFromString("15.50"), Active: true}
	line, err := domain.NewOrderLine("order-1", product, 2, time.Now())
	require.NoError(t, err)

	product.Price = decimal.RequireFromString("99.99")

	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("15.50")))
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("31.00")))
}

func TestNewOrderLine_RejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int32{0, -1} {
		_, err := domain.NewOrderLine("order-1", domain.Product{ID: "p", Price: decimal.NewFromInt(1)}, qty, time.Now())
		assert.True(t, errors.Is(err, domain.ErrItemQtyInvalid), "qty=%d", qty)
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder(t)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("50.00")))
	assert.Empty(t, order.ValidateInvariants())
	for _, line := range order.Lines {
		assert.Equal(t, order.ID, line.OrderID)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no customer",
			mut:  func(o *domain.Order) { o.CustomerID = "" },
			want: domain.ErrCustomerRequired,
		},
		{
			name: "no restaurant",
			mut:  func(o *domain.Order) { o.RestaurantID = "" },
			want: domain.ErrRestaurantRequired,
		},
		{
			name: "no lines",
			mut: func(o *domain.Order) {
				o.Lines = nil
				o.RecalculateTotal()
			},
			want: domain.ErrItemsRequired,
		},
		{
			name: "qty invalid",
			mut: func(o *domain.Order) {
				o.Lines[0].Quantity = 0
				o.RecalculateTotal()
			},
			want: domain.ErrItemQtyInvalid,
		},
		{
			name: "duplicated product",
			mut: func(o *domain.Order) {
				o.Lines[1].ProductID = o.Lines[0].ProductID
			},
			want: domain.ErrItemDuplicated,
		},
		{
			name: "sub-cent unit price",
			mut: func(o *domain.Order) {
				o.Lines[0].UnitPrice = decimal.RequireFromString("0.333")
				o.RecalculateTotal()
			},
			want: domain.ErrAmountScale,
		},
		{
			name: "total over storage limit",
			mut: func(o *domain.Order) {
				o.Lines[0].Quantity = 2_000_000_000
				o.RecalculateTotal()
			},
			want: domain.ErrAmountTooLarge,
		},
		{
			name: "total drift",
			mut:  func(o *domain.Order) { o.Total = decimal.RequireFromString("49.99") },
			want: domain.ErrAmountMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder(t)
			order.Lines = append([]domain.OrderLine(nil), order.Lines...)
			tc.mut(&order)

			errs := order.ValidateInvariants()
			require.NotEmpty(t, errs)
			assert.Contains(t, errs, tc.want)
		})
	}
}

func TestOrderCancel(t *testing.T) {
	order := makeOrder(t)
	require.NoError(t, order.Cancel(time.Now()))
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)

	delivered := makeOrder(t)
	delivered.SetStatus(domain.OrderStatusDelivered, time.Now())
	err := delivered.Cancel(time.Now())
	assert.True(t, domain.IsBusinessRule(err))
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status)
}

func TestParseOrderStatus(t *testing.T) {
	status, err := domain.ParseOrderStatus("IN_PREPARATION")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInPreparation, status)

	padded, err := domain.ParseOrderStatus(" delivered ")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatus(" delivered "), padded)
	assert.NotEqual(t, domain.OrderStatusDelivered, padded)

	custom, err := domain.ParseOrderStatus("WAITING_COURIER")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatus("WAITING_COURIER"), custom)

	_, err = domain.ParseOrderStatus("   ")
	assert.ErrorIs(t, err, domain.ErrStatusRequired)
}

func TestOrderFilterMatches(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	order := domain.Order{Status: domain.OrderStatusDelivered, CreatedAt: now}

	assert.True(t, domain.OrderFilter{}.Matches(order))
	assert.True(t, domain.OrderFilter{Status: domain.OrderStatusDelivered}.Matches(order))
	assert.False(t, domain.OrderFilter{Status: domain.OrderStatusPending}.Matches(order))
	assert.True(t, domain.OrderFilter{From: now.Add(-time.Hour), To: now.Add(time.Hour)}.Matches(order))
	assert.False(t, domain.OrderFilter{From: now.Add(time.Minute)}.Matches(order))
	assert.False(t, domain.OrderFilter{To: now.Add(-time.Minute)}.Matches(order))
}
