package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// orderStore хранит заказы и индексы по клиенту и ресторану.
// Владельцы заказа после создания не меняются, поэтому индексы только растут.
type orderStore struct {
	mu           sync.RWMutex
	orders       map[string]domain.Order
	byCustomer   map[string][]string
	byRestaurant map[string][]string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderStore{
		orders:       make(map[string]domain.Order),
		byCustomer:   make(map[string][]string),
		byRestaurant: make(map[string][]string),
	}
}

// Create сохраняет заказ вместе с позициями; занятый ID даёт ErrOrderVersionConflict.
func (s *orderStore) Create(order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.orders[order.ID]; taken {
		return domain.ErrOrderVersionConflict
	}
	s.orders[order.ID] = cloneOrder(order)
	s.byCustomer[order.CustomerID] = append(s.byCustomer[order.CustomerID], order.ID)
	s.byRestaurant[order.RestaurantID] = append(s.byRestaurant[order.RestaurantID], order.ID)
	return nil
}

func (s *orderStore) Get(id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// Save меняет статус, сумму и время обновления при совпадении версии.
func (s *orderStore) Save(order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	switch {
	case !ok:
		return domain.ErrOrderNotFound
	case stored.Version != order.Version:
		return domain.ErrOrderVersionConflict
	}

	stored.Status = order.Status
	stored.Total = order.Total
	stored.UpdatedAt = order.UpdatedAt
	stored.Version++
	s.orders[order.ID] = stored
	return nil
}

func (s *orderStore) ListByCustomer(customerID string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pick(s.byCustomer[customerID], nil, limit), nil
}

func (s *orderStore) ListByRestaurant(restaurantID string, limit int) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pick(s.byRestaurant[restaurantID], nil, limit), nil
}

// List просматривает все заказы: фильтр не опирается на индексы.
func (s *orderStore) List(filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	return s.pick(ids, filter.Matches, filter.Limit), nil
}

// pick копирует заказы по ids в порядке от новых к старым. Вызывается под mu.
func (s *orderStore) pick(ids []string, match func(domain.Order) bool, limit int) []domain.Order {
	result := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		order := s.orders[id]
		if match != nil && !match(order) {
			continue
		}
		result = append(result, order)
	}

	sort.Slice(result, func(i, j int) bool {
		if a, b := result[i].CreatedAt, result[j].CreatedAt; !a.Equal(b) {
			return a.After(b)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	for i := range result {
		result[i] = cloneOrder(result[i])
	}
	return result
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Lines = append([]domain.OrderLine(nil), src.Lines...)
	return dst
}

var _ domain.OrderRepository = (*orderStore)(nil)
