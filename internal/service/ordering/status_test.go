package ordering_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
)

func placeOrder(t *testing.T, f *fixture) domain.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), f.customer.ID, f.restaurant.ID, []ordering.ItemRequest{
		{ProductID: f.p1.ID, Quantity: 1},
		{ProductID: f.p2.ID, Quantity: 2},
	})
	require.NoError(t, err)
	return order
}

func TestUpdateStatus_OverwritesStatusVerbatim(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)
	ctx := context.Background()

	for _, status := range []string{"CONFIRMED", "OUT_FOR_DELIVERY", "PENDING", "DELIVERED", "ON_HOLD"} {
		updated, err := f.svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, domain.OrderStatus(status), updated.Status)

		stored, err := f.orders.Get(order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatus(status), stored.Status)
		assert.Equal(t, updated.Version, stored.Version)
		assert.True(t, stored.Total.Equal(order.Total), "status change must keep total")
		assert.Len(t, stored.Lines, 2)
	}

	events, err := f.svc.Timeline(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 6)
	assert.Equal(t, domain.TimelineOrderCreated, events[0].Type)
	assert.Equal(t, domain.TimelineOrderStatusChanged, events[5].Type)
	assert.Equal(t, "ON_HOLD", events[5].Reason)

	pending := f.outbox.Pending(order.ID)
	require.Len(t, pending, 6)
	assert.Equal(t, domain.EventOrderStatusChanged, pending[5].EventType)
}

func TestUpdateStatus_KeepsRawValue(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	updated, err := f.svc.UpdateStatus(context.Background(), order.ID, " DELIVERED ")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatus(" DELIVERED "), updated.Status)

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatus(" DELIVERED "), stored.Status)
}

func TestUpdateStatus_Rejections(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, "missing", "CONFIRMED")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.True(t, domain.IsNotFound(err))

	_, err = f.svc.UpdateStatus(ctx, order.ID, "   ")
	assert.ErrorIs(t, err, domain.ErrStatusRequired)
	assert.True(t, domain.IsBusinessRule(err))

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
}

func TestCancelOrder_FromPending(t *testing.T) {
	f := newFixture(t)
	order := placeOrder(t, f)

	canceled, err := f.svc.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, canceled.Status)

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)

	pending := f.outbox.Pending(order.ID)
	require.Len(t, pending, 2)
	assert.Equal(t, domain.EventOrderCanceled, pending[1].EventType)
}

func TestCancelOrder_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{name: "confirmed", status: "CONFIRMED"},
		{name: "delivered", status: "DELIVERED"},
		{name: "already cancelled", status: "CANCELLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			order := placeOrder(t, f)
			ctx := context.Background()

			_, err := f.svc.UpdateStatus(ctx, order.ID, tt.status)
			require.NoError(t, err)

			_, err = f.svc.CancelOrder(ctx, order.ID)
			assert.ErrorIs(t, err, domain.ErrOrderNotCancelable)
			assert.True(t, domain.IsBusinessRule(err))

			stored, err := f.orders.Get(order.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatus(tt.status), stored.Status)
		})
	}
}

func TestCancelOrder_UnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CancelOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placeOrder(t, f)

	got, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Len(t, got.Lines, 2)

	byCustomer, err := f.svc.ListByCustomer(ctx, f.customer.ID, 0)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)

	_, err = f.svc.ListByCustomer(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	byRestaurant, err := f.svc.ListByRestaurant(ctx, f.restaurant.ID, 10)
	require.NoError(t, err)
	require.Len(t, byRestaurant, 1)

	empty, err := f.svc.ListByRestaurant(ctx, f.other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = f.svc.ListByRestaurant(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrRestaurantNotFound)

	pending, err := f.svc.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	delivered, err := f.svc.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Empty(t, delivered)

	inPeriod, err := f.svc.ListOrders(ctx, domain.OrderFilter{From: fixedNow.Add(-time.Hour), To: fixedNow.Add(time.Hour)})
	require.NoError(t, err)
	assert.Len(t, inPeriod, 1)

	_, err = f.svc.ListOrders(ctx, domain.OrderFilter{From: fixedNow, To: fixedNow.Add(-time.Hour)})
	assert.ErrorIs(t, err, domain.ErrPeriodInvalid)

	_, err = f.svc.Timeline(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
