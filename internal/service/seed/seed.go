package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
)

// Summary сообщает, сколько записей создано за прогон.
type Summary struct {
	Restaurants int `json:"restaurants"`
	Customers   int `json:"customers"`
	Products    int `json:"products"`
	Orders      int `json:"orders"`
}

// Empty сообщает, что прогон ничего не создал.
func (s Summary) Empty() bool {
	return s == Summary{}
}

type restaurantFixture struct {
	profile  domain.RestaurantProfile
	products []domain.ProductDetails
}

type orderItemFixture struct {
	product  string
	quantity int32
}

type orderFixture struct {
	customerEmail string
	restaurant    string
	items         []orderItemFixture
	status        domain.OrderStatus
}

var restaurantFixtures = []restaurantFixture{
	{
		profile: domain.RestaurantProfile{
			Name:        "Pizzaria do Bairro",
			Category:    "Pizza",
			Rating:      4.5,
			DeliveryFee: decimal.RequireFromString("5.00"),
		},
		products: []domain.ProductDetails{
			{Name: "Pizza Margherita", Price: decimal.RequireFromString("45.00")},
			{Name: "Pizza Calabresa", Price: decimal.RequireFromString("50.00")},
			{Name: "Refrigerante 2L", Price: decimal.RequireFromString("10.00")},
		},
	},
	{
		profile: domain.RestaurantProfile{
			Name:        "Sushi Master",
			Category:    "Japonesa",
			Rating:      4.8,
			DeliveryFee: decimal.RequireFromString("10.00"),
		},
		products: []domain.ProductDetails{
			{Name: "Combinado 20 peças", Price: decimal.RequireFromString("80.00")},
			{Name: "Temaki Salmão", Price: decimal.RequireFromString("25.00")},
		},
	},
}

var customerFixtures = []domain.CustomerProfile{
	{Name: "Maria Oliveira", Email: "maria@email.com"},
	{Name: "João Santos", Email: "joao@email.com"},
	{Name: "Pedro Alves", Email: "pedro@email.com"},
}

var orderFixtures = []orderFixture{
	{
		customerEmail: "maria@email.com",
		restaurant:    "Pizzaria do Bairro",
		items:         []orderItemFixture{{"Pizza Margherita", 1}, {"Refrigerante 2L", 2}},
		status:        domain.OrderStatusInPreparation,
	},
	{
		customerEmail: "joao@email.com",
		restaurant:    "Sushi Master",
		items:         []orderItemFixture{{"Combinado 20 peças", 1}},
		status:        domain.OrderStatusDelivered,
	},
}

// Seeder заполняет пустое хранилище демонстрационными данными.
// Повторный запуск не создаёт дубликатов.
type Seeder struct {
	catalog     *catalog.Service
	ordering    *ordering.Service
	customers   domain.CustomerRepository
	restaurants domain.RestaurantRepository
	orders      domain.OrderRepository
	logger      *log.Entry
}

// NewSeeder конструирует Seeder поверх сервисов каталога и заказов.
func NewSeeder(
	catalogSvc *catalog.Service,
	orderingSvc *ordering.Service,
	customers domain.CustomerRepository,
	restaurants domain.RestaurantRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) *Seeder {
	if logger == nil {
		logger = log.New().WithField("component", "seed")
	}
	return &Seeder{
		catalog:     catalogSvc,
		ordering:    orderingSvc,
		customers:   customers,
		restaurants: restaurants,
		orders:      orders,
		logger:      logger,
	}
}

// Run создаёт отсутствующие рестораны, продукты, клиентов и примерные заказы.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	menus := make(map[string]map[string]string, len(restaurantFixtures))
	restaurantIDs := make(map[string]string, len(restaurantFixtures))
	for _, fx := range restaurantFixtures {
		restaurant, created, err := s.ensureRestaurant(ctx, fx.profile)
		if err != nil {
			return summary, err
		}
		if created {
			summary.Restaurants++
		}
		restaurantIDs[restaurant.Name] = restaurant.ID

		menu, added, err := s.ensureProducts(ctx, restaurant, fx.products)
		if err != nil {
			return summary, err
		}
		summary.Products += added
		menus[restaurant.Name] = menu
	}

	customerIDs := make(map[string]string, len(customerFixtures))
	for _, profile := range customerFixtures {
		customer, created, err := s.ensureCustomer(ctx, profile)
		if err != nil {
			return summary, err
		}
		if created {
			summary.Customers++
		}
		customerIDs[customer.Email] = customer.ID
	}

	for _, fx := range orderFixtures {
		created, err := s.ensureOrder(ctx, fx, customerIDs[fx.customerEmail], restaurantIDs[fx.restaurant], menus[fx.restaurant])
		if err != nil {
			return summary, err
		}
		if created {
			summary.Orders++
		}
	}

	s.logger.WithFields(log.Fields{
		"restaurants": summary.Restaurants,
		"customers":   summary.Customers,
		"products":    summary.Products,
		"orders":      summary.Orders,
	}).Info("seed completed")
	return summary, nil
}

func (s *Seeder) ensureRestaurant(ctx context.Context, profile domain.RestaurantProfile) (domain.Restaurant, bool, error) {
	existing, err := s.restaurants.FindByName(profile.Name)
	if err == nil {
		return existing, false, nil
	}
	if !domain.IsNotFound(err) {
		return domain.Restaurant{}, false, fmt.Errorf("find restaurant %q: %w", profile.Name, err)
	}
	restaurant, err := s.catalog.RegisterRestaurant(ctx, profile)
	if err != nil {
		return domain.Restaurant{}, false, fmt.Errorf("seed restaurant %q: %w", profile.Name, err)
	}
	return restaurant, true, nil
}

// ensureProducts возвращает меню ресторана как название → идентификатор.
func (s *Seeder) ensureProducts(ctx context.Context, restaurant domain.Restaurant, details []domain.ProductDetails) (map[string]string, int, error) {
	current, err := s.catalog.RestaurantProducts(ctx, restaurant.ID)
	if err != nil {
		return nil, 0, err
	}
	menu := make(map[string]string, len(details))
	for _, product := range current {
		menu[product.Name] = product.ID
	}

	added := 0
	for _, d := range details {
		if _, ok := menu[d.Name]; ok {
			continue
		}
		product, err := s.catalog.RegisterProduct(ctx, restaurant.ID, d)
		if err != nil {
			return nil, added, fmt.Errorf("seed product %q: %w", d.Name, err)
		}
		menu[product.Name] = product.ID
		added++
	}
	return menu, added, nil
}

func (s *Seeder) ensureCustomer(ctx context.Context, profile domain.CustomerProfile) (domain.Customer, bool, error) {
	existing, err := s.customers.FindByEmail(profile.Email)
	if err == nil {
		return existing, false, nil
	}
	if !domain.IsNotFound(err) {
		return domain.Customer{}, false, fmt.Errorf("find customer %q: %w", profile.Email, err)
	}
	customer, err := s.catalog.RegisterCustomer(ctx, profile)
	if err != nil {
		return domain.Customer{}, false, fmt.Errorf("seed customer %q: %w", profile.Email, err)
	}
	return customer, true, nil
}

// ensureOrder создаёт заказ через обычный сценарий, если у клиента ещё нет заказов.
func (s *Seeder) ensureOrder(ctx context.Context, fx orderFixture, customerID, restaurantID string, menu map[string]string) (bool, error) {
	existing, err := s.orders.ListByCustomer(customerID, 1)
	if err != nil {
		return false, fmt.Errorf("list orders of %s: %w", fx.customerEmail, err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	items := make([]ordering.ItemRequest, 0, len(fx.items))
	for _, item := range fx.items {
		items = append(items, ordering.ItemRequest{ProductID: menu[item.product], Quantity: item.quantity})
	}

	order, err := s.ordering.CreateOrder(ctx, customerID, restaurantID, items)
	if err != nil {
		return false, fmt.Errorf("seed order for %s: %w", fx.customerEmail, err)
	}
	if fx.status != "" && fx.status != order.Status {
		if _, err := s.ordering.UpdateStatus(ctx, order.ID, string(fx.status)); err != nil {
			return false, fmt.Errorf("seed order status for %s: %w", fx.customerEmail, err)
		}
	}
	return true, nil
}
