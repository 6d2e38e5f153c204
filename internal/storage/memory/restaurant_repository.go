package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type restaurantRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Restaurant
}

// NewRestaurantRepository создаёт in-memory реализацию RestaurantRepository.
func NewRestaurantRepository() domain.RestaurantRepository {
	return &restaurantRepositoryInMemory{items: make(map[string]domain.Restaurant)}
}

func (r *restaurantRepositoryInMemory) Create(restaurant domain.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[restaurant.ID]; exists {
		return domain.ErrDuplicateKey
	}
	if r.nameTakenLocked(restaurant.Name, restaurant.ID) {
		return domain.ErrDuplicateKey
	}
	r.items[restaurant.ID] = restaurant
	return nil
}

func (r *restaurantRepositoryInMemory) Get(id string) (domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurant, ok := r.items[id]
	if !ok {
		return domain.Restaurant{}, domain.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r *restaurantRepositoryInMemory) FindByName(name string) (domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, restaurant := range r.items {
		if strings.EqualFold(restaurant.Name, name) {
			return restaurant, nil
		}
	}
	return domain.Restaurant{}, domain.ErrRestaurantNotFound
}

func (r *restaurantRepositoryInMemory) Update(restaurant domain.Restaurant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[restaurant.ID]; !ok {
		return domain.ErrRestaurantNotFound
	}
	if r.nameTakenLocked(restaurant.Name, restaurant.ID) {
		return domain.ErrDuplicateKey
	}
	r.items[restaurant.ID] = restaurant
	return nil
}

// List фильтрует по категории; при ActiveOnly сортирует по рейтингу (по убыванию).
func (r *restaurantRepositoryInMemory) List(filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Restaurant, 0, len(r.items))
	for _, restaurant := range r.items {
		if filter.ActiveOnly && !restaurant.Active {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(restaurant.Category, filter.Category) {
			continue
		}
		result = append(result, restaurant)
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.ActiveOnly && result[i].Rating != result[j].Rating {
			return result[i].Rating > result[j].Rating
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *restaurantRepositoryInMemory) nameTakenLocked(name, exceptID string) bool {
	for id, existing := range r.items {
		if id != exceptID && strings.EqualFold(existing.Name, name) {
			return true
		}
	}
	return false
}

var _ domain.RestaurantRepository = (*restaurantRepositoryInMemory)(nil)
