package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type customerRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
}

// NewCustomerRepository создаёт in-memory реализацию CustomerRepository.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{items: make(map[string]domain.Customer)}
}

func (r *customerRepositoryInMemory) Create(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[customer.ID]; exists {
		return domain.ErrDuplicateKey
	}
	if r.emailTakenLocked(customer.Email, customer.ID) {
		return domain.ErrDuplicateKey
	}
	r.items[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) Get(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

func (r *customerRepositoryInMemory) FindByEmail(email string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, customer := range r.items {
		if strings.EqualFold(customer.Email, email) {
			return customer, nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

func (r *customerRepositoryInMemory) Update(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	if r.emailTakenLocked(customer.Email, customer.ID) {
		return domain.ErrDuplicateKey
	}
	r.items[customer.ID] = customer
	return nil
}

func (r *customerRepositoryInMemory) List(activeOnly bool) ([]domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Customer, 0, len(r.items))
	for _, customer := range r.items {
		if activeOnly && !customer.Active {
			continue
		}
		result = append(result, customer)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].RegisteredAt.Equal(result[j].RegisteredAt) {
			return result[i].RegisteredAt.Before(result[j].RegisteredAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *customerRepositoryInMemory) emailTakenLocked(email, exceptID string) bool {
	for id, existing := range r.items {
		if id != exceptID && strings.EqualFold(existing.Email, email) {
			return true
		}
	}
	return false
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
