package memory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func TestCustomerRepository_EmailUniqueness(t *testing.T) {
	repo := memory.NewCustomerRepository()
	now := time.Now()

	maria, err := domain.NewCustomer(domain.CustomerProfile{Name: "Maria", Email: "maria@email.com"}, now)
	require.NoError(t, err)
	require.NoError(t, repo.Create(maria))

	twin, err := domain.NewCustomer(domain.CustomerProfile{Name: "Other", Email: "MARIA@email.com"}, now)
	require.NoError(t, err)
	assert.True(t, errors.Is(repo.Create(twin), domain.ErrDuplicateKey))

	found, err := repo.FindByEmail("Maria@Email.com")
	require.NoError(t, err)
	assert.Equal(t, maria.ID, found.ID)

	// Обновление собственной записи не считается конфликтом.
	maria.Phone = "+55 11 99999-0000"
	require.NoError(t, repo.Update(maria))

	maria.Deactivate()
	require.NoError(t, repo.Update(maria))

	active, err := repo.List(true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.List(false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestRestaurantRepository_ListOrdersByRating(t *testing.T) {
	repo := memory.NewRestaurantRepository()
	now := time.Now()

	pizza, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "Pizzaria do Bairro", Category: "Pizza", Rating: 4.5}, now)
	require.NoError(t, err)
	sushi, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "Sushi Master", Category: "Japonesa", Rating: 4.8}, now)
	require.NoError(t, err)
	closed, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "Closed Grill", Category: "Pizza", Rating: 5}, now)
	require.NoError(t, err)
	closed.Active = false

	for _, r := range []domain.Restaurant{pizza, sushi, closed} {
		require.NoError(t, repo.Create(r))
	}

	dup, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "sushi master"}, now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(dup), domain.ErrDuplicateKey)

	active, err := repo.List(domain.RestaurantFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, sushi.ID, active[0].ID)

	byCategory, err := repo.List(domain.RestaurantFilter{Category: "pizza"})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)
}

func TestProductRepository_Search(t *testing.T) {
	restaurants := memory.NewRestaurantRepository()
	products := memory.NewProductRepository(restaurants)
	now := time.Now()

	pizzeria, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "Pizzaria do Bairro", Category: "Pizza"}, now)
	require.NoError(t, err)
	sushi, err := domain.NewRestaurant(domain.RestaurantProfile{Name: "Sushi Master", Category: "Japonesa"}, now)
	require.NoError(t, err)
	require.NoError(t, restaurants.Create(pizzeria))
	require.NoError(t, restaurants.Create(sushi))

	margherita, err := domain.NewProduct(pizzeria.ID, domain.ProductDetails{Name: "Pizza Margherita", Price: decimal.RequireFromString("45.00")})
	require.NoError(t, err)
	calabresa, err := domain.NewProduct(pizzeria.ID, domain.ProductDetails{Name: "Pizza Calabresa", Price: decimal.RequireFromString("50.00")})
	require.NoError(t, err)
	combo, err := domain.NewProduct(sushi.ID, domain.ProductDetails{Name: "Combo Sushi", Price: decimal.RequireFromString("80.00")})
	require.NoError(t, err)
	for _, p := range []domain.Product{margherita, calabresa, combo} {
		require.NoError(t, products.Create(p))
	}

	menu, err := products.ListByRestaurant(pizzeria.ID)
	require.NoError(t, err)
	assert.Len(t, menu, 2)

	cases := []struct {
		name   string
		filter domain.ProductFilter
		want   int
	}{
		{name: "all", filter: domain.ProductFilter{}, want: 3},
		{name: "by name", filter: domain.ProductFilter{NameContains: "pizza"}, want: 2},
		{name: "by category", filter: domain.ProductFilter{Category: "japonesa"}, want: 1},
		{name: "by max price", filter: domain.ProductFilter{MaxPrice: decimal.NewNullDecimal(decimal.RequireFromString("50"))}, want: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := products.Search(tc.filter)
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}

	combo.Active = false
	require.NoError(t, products.Update(combo))
	available, err := products.Search(domain.ProductFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestTimelineRepository_ChronologicalOrder(t *testing.T) {
	repo := memory.NewTimelineRepository()
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(domain.TimelineEvent{OrderID: "order-1", Type: domain.TimelineOrderStatusChanged, Occurred: base.Add(time.Minute)}))
	require.NoError(t, repo.Append(domain.TimelineEvent{OrderID: "order-1", Type: domain.TimelineOrderCreated, Occurred: base}))
	assert.Error(t, repo.Append(domain.TimelineEvent{Type: domain.TimelineOrderCreated}))

	events, err := repo.List("order-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.TimelineOrderCreated, events[0].Type)
}

func TestTimelineRepository_SameInstantKeepsInsertOrder(t *testing.T) {
	repo := memory.NewTimelineRepository()
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(domain.NewTimelineEvent("order-1", domain.TimelineOrderCreated, "", at)))
	require.NoError(t, repo.Append(domain.NewTimelineEvent("order-1", domain.TimelineOrderStatusChanged, "CONFIRMED", at)))
	require.NoError(t, repo.Append(domain.NewTimelineEvent("order-1", domain.TimelineOrderCanceled, "", at)))
	assert.ErrorIs(t, repo.Append(domain.NewTimelineEvent("order-1", "OrderPaid", "", at)), domain.ErrTimelineTypeUnknown)

	events, err := repo.List("order-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "CONFIRMED", events[1].Reason)
	assert.Equal(t, domain.TimelineOrderCanceled, events[2].Type)

	events[0].Type = "mutated"
	again, err := repo.List("order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TimelineOrderCreated, again[0].Type)
}
