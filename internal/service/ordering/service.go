package ordering

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
)

const (
	operationCreate       = "create"
	operationPreview      = "preview"
	operationUpdateStatus = "update_status"
	operationCancel       = "cancel"

	defaultListLimit = 100
)

// ItemRequest — запрошенная позиция заказа: продукт и количество.
type ItemRequest struct {
	ProductID string
	Quantity  int32
}

// Repositories — хранилища, с которыми работает сервис заказов.
// Timeline и Outbox необязательны.
type Repositories struct {
	Customers   domain.CustomerRepository
	Restaurants domain.RestaurantRepository
	Products    domain.ProductRepository
	Orders      domain.OrderRepository
	Timeline    domain.TimelineRepository
	Outbox      domain.OutboxRepository
}

// Service реализует создание заказа, предварительный расчёт суммы и смену статусов.
type Service struct {
	customers   domain.CustomerRepository
	restaurants domain.RestaurantRepository
	products    domain.ProductRepository
	orders      domain.OrderRepository
	timeline    domain.TimelineRepository
	outbox      domain.OutboxRepository

	metrics *metrics.OrderMetrics
	logger  *log.Entry
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithLogger задаёт логгер сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService конструирует сервис заказов.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		customers:   repos.Customers,
		restaurants: repos.Restaurants,
		products:    repos.Products,
		orders:      repos.Orders,
		timeline:    repos.Timeline,
		outbox:      repos.Outbox,
		logger:      log.New().WithField("component", "ordering-service"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder проверяет клиента, ресторан и позиции, фиксирует цены продуктов
// и атомарно сохраняет заказ в статусе PENDING.
func (s *Service) CreateOrder(ctx context.Context, customerID, restaurantID string, items []ItemRequest) (order domain.Order, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(operationCreate, resultOf(err), started) }()

	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	customer, err := s.loadCustomer(customerID)
	if err != nil {
		return domain.Order{}, err
	}
	restaurant, err := s.loadRestaurant(restaurantID)
	if err != nil {
		return domain.Order{}, err
	}
	if !customer.Active {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrCustomerInactive, customer.ID)
	}
	if !restaurant.Active {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrRestaurantInactive, restaurant.ID)
	}
	if len(items) == 0 {
		return domain.Order{}, domain.ErrItemsRequired
	}

	now := s.now().UTC()
	order = domain.NewOrder(customer.ID, restaurant.ID, now)

	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if _, dup := seen[productID]; dup {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrItemDuplicated, productID)
		}
		seen[productID] = struct{}{}

		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item[%d] quantity %d", domain.ErrItemQtyInvalid, idx, item.Quantity)
		}
		product, err := s.loadProduct(productID)
		if err != nil {
			return domain.Order{}, err
		}
		if !product.Active {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductInactive, product.ID)
		}
		if product.RestaurantID != restaurant.ID {
			return domain.Order{}, fmt.Errorf("%w: product %s, restaurant %s", domain.ErrProductForeignRestaurant, product.ID, restaurant.ID)
		}

		line, err := domain.NewOrderLine(order.ID, product, item.Quantity, now)
		if err != nil {
			return domain.Order{}, err
		}
		order.AddLine(line)
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errors.Join(errs...)
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": "CreateOrder",
			"order_id":  order.ID,
		}).Error("failed to create order")
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"order_id":      order.ID,
		"customer_id":   order.CustomerID,
		"restaurant_id": order.RestaurantID,
		"total":         order.Total.StringFixed(2),
		"lines":         len(order.Lines),
	}).Info("order created")

	s.metrics.RecordOrderCreated(order.Total, len(order.Lines))
	s.appendTimeline(order.ID, domain.TimelineOrderCreated, string(order.Status), now)
	s.enqueueEvent(domain.EventOrderCreated, order, "")

	return order, nil
}

// PreviewTotal считает сумму заказа по текущим ценам без сохранения.
// Принадлежность продукта ресторану проверяется только предупреждением в логе.
func (s *Service) PreviewTotal(ctx context.Context, restaurantID string, items []ItemRequest) (total decimal.Decimal, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(operationPreview, resultOf(err), started) }()

	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID != "" {
		if _, err := s.loadRestaurant(restaurantID); err != nil {
			return decimal.Zero, err
		}
	}

	prices := make([]domain.LinePrice, 0, len(items))
	for idx, item := range items {
		if item.Quantity <= 0 {
			return decimal.Zero, fmt.Errorf("%w: item[%d] quantity %d", domain.ErrItemQtyInvalid, idx, item.Quantity)
		}
		product, err := s.loadProduct(strings.TrimSpace(item.ProductID))
		if err != nil {
			return decimal.Zero, err
		}
		if !product.Active {
			return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrProductInactive, product.ID)
		}
		if restaurantID != "" && product.RestaurantID != restaurantID {
			s.logger.WithFields(log.Fields{
				"product_id":    product.ID,
				"restaurant_id": restaurantID,
				"owner_id":      product.RestaurantID,
			}).Warn("preview item belongs to another restaurant")
		}
		prices = append(prices, domain.LinePrice{Quantity: item.Quantity, UnitPrice: product.Price})
	}

	return domain.CalculateTotal(prices), nil
}

func (s *Service) loadCustomer(id string) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	customer, err := s.customers.Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
		}
		return domain.Customer{}, fmt.Errorf("load customer: %w", err)
	}
	return customer, nil
}

func (s *Service) loadRestaurant(id string) (domain.Restaurant, error) {
	id = strings.TrimSpace(id)
	restaurant, err := s.restaurants.Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Restaurant{}, fmt.Errorf("%w: %s", domain.ErrRestaurantNotFound, id)
		}
		return domain.Restaurant{}, fmt.Errorf("load restaurant: %w", err)
	}
	return restaurant, nil
}

func (s *Service) loadProduct(id string) (domain.Product, error) {
	product, err := s.products.Get(id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsBusinessRule(err):
		return metrics.ResultRejected
	case domain.IsVersionConflict(err), errors.Is(err, domain.ErrDuplicateKey):
		return metrics.ResultConflict
	default:
		return metrics.ResultStorageFail
	}
}
