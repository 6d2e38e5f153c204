package seed_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
	"github.com/vladislavdragonenkov/delivery/internal/service/seed"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func TestSeeder_RunIsIdempotent(t *testing.T) {
	customers := memory.NewCustomerRepository()
	restaurants := memory.NewRestaurantRepository()
	products := memory.NewProductRepository(restaurants)
	orders := memory.NewOrderRepository()

	catalogSvc := catalog.NewService(customers, restaurants, products, nil)
	orderingSvc := ordering.NewService(ordering.Repositories{
		Customers:   customers,
		Restaurants: restaurants,
		Products:    products,
		Orders:      orders,
	})
	seeder := seed.NewSeeder(catalogSvc, orderingSvc, customers, restaurants, orders, nil)
	ctx := context.Background()

	first, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Summary{Restaurants: 2, Customers: 3, Products: 5, Orders: 2}, first)

	second, err := seeder.Run(ctx)
	require.NoError(t, err)
	assert.True(t, second.Empty(), "second run must not create anything: %+v", second)

	all, err := orders.List(domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	totals := map[domain.OrderStatus]decimal.Decimal{}
	for _, order := range all {
		assert.Empty(t, order.ValidateInvariants())
		totals[order.Status] = order.Total
	}
	assert.True(t, totals[domain.OrderStatusInPreparation].Equal(decimal.RequireFromString("65.00")))
	assert.True(t, totals[domain.OrderStatusDelivered].Equal(decimal.RequireFromString("80.00")))

	active, err := restaurants.List(domain.RestaurantFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Sushi Master", active[0].Name)
}
