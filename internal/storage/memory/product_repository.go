package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
	// restaurants нужен для фильтра по категории ресторана-владельца.
	restaurants domain.RestaurantRepository
}

// NewProductRepository создаёт in-memory реализацию ProductRepository.
func NewProductRepository(restaurants domain.RestaurantRepository) domain.ProductRepository {
	return &productRepositoryInMemory{
		items:       make(map[string]domain.Product),
		restaurants: restaurants,
	}
}

func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrDuplicateKey
	}
	r.items[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (r *productRepositoryInMemory) Update(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	r.items[product.ID] = product
	return nil
}

func (r *productRepositoryInMemory) ListByRestaurant(restaurantID string) ([]domain.Product, error) {
	return r.collect(func(p domain.Product) bool { return p.RestaurantID == restaurantID }), nil
}

func (r *productRepositoryInMemory) Search(filter domain.ProductFilter) ([]domain.Product, error) {
	name := strings.ToLower(strings.TrimSpace(filter.NameContains))

	var category map[string]bool
	if filter.Category != "" {
		matched, err := r.restaurants.List(domain.RestaurantFilter{Category: filter.Category})
		if err != nil {
			return nil, err
		}
		category = make(map[string]bool, len(matched))
		for _, restaurant := range matched {
			category[restaurant.ID] = true
		}
	}

	return r.collect(func(p domain.Product) bool {
		if filter.ActiveOnly && !p.Active {
			return false
		}
		if name != "" && !strings.Contains(strings.ToLower(p.Name), name) {
			return false
		}
		if category != nil && !category[p.RestaurantID] {
			return false
		}
		if filter.MaxPrice.Valid && p.Price.GreaterThan(filter.MaxPrice.Decimal) {
			return false
		}
		return true
	}), nil
}

func (r *productRepositoryInMemory) collect(match func(domain.Product) bool) []domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0)
	for _, product := range r.items {
		if match(product) {
			result = append(result, product)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
