package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// Service управляет клиентами, ресторанами и их меню.
type Service struct {
	customers   domain.CustomerRepository
	restaurants domain.RestaurantRepository
	products    domain.ProductRepository
	logger      *log.Entry
	now         func() time.Time
}

// NewService конструирует сервис каталога.
func NewService(
	customers domain.CustomerRepository,
	restaurants domain.RestaurantRepository,
	products domain.ProductRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "catalog-service")
	}
	return &Service{
		customers:   customers,
		restaurants: restaurants,
		products:    products,
		logger:      logger,
		now:         time.Now,
	}
}

// RegisterCustomer создаёт активного клиента с уникальным email.
func (s *Service) RegisterCustomer(ctx context.Context, profile domain.CustomerProfile) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}

	customer, err := domain.NewCustomer(profile, s.now())
	if err != nil {
		return domain.Customer{}, err
	}
	if err := s.ensureEmailFree(customer.Email, ""); err != nil {
		return domain.Customer{}, err
	}
	if err := s.customers.Create(customer); err != nil {
		return domain.Customer{}, s.customerWriteError(err, customer.Email)
	}

	s.logger.WithField("customer_id", customer.ID).Info("customer registered")
	return customer, nil
}

// GetCustomer возвращает клиента по идентификатору.
func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}
	customer, err := s.customers.Get(strings.TrimSpace(id))
	if err != nil {
		return domain.Customer{}, wrapLookup(err, domain.ErrCustomerNotFound, id, "load customer")
	}
	return customer, nil
}

// UpdateCustomer переписывает профиль клиента; email остаётся уникальным.
func (s *Service) UpdateCustomer(ctx context.Context, id string, profile domain.CustomerProfile) (domain.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if err := customer.ApplyProfile(profile); err != nil {
		return domain.Customer{}, err
	}
	if err := s.ensureEmailFree(customer.Email, customer.ID); err != nil {
		return domain.Customer{}, err
	}
	if err := s.customers.Update(customer); err != nil {
		return domain.Customer{}, s.customerWriteError(err, customer.Email)
	}
	return customer, nil
}

// DeactivateCustomer помечает клиента неактивным.
func (s *Service) DeactivateCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return domain.Customer{}, err
	}
	customer.Deactivate()
	if err := s.customers.Update(customer); err != nil {
		return domain.Customer{}, fmt.Errorf("deactivate customer: %w", err)
	}
	s.logger.WithField("customer_id", customer.ID).Info("customer deactivated")
	return customer, nil
}

// ListCustomers возвращает клиентов в порядке регистрации.
func (s *Service) ListCustomers(ctx context.Context, activeOnly bool) ([]domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	customers, err := s.customers.List(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return customers, nil
}

func (s *Service) ensureEmailFree(email, selfID string) error {
	existing, err := s.customers.FindByEmail(email)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
		}
		return nil
	case domain.IsNotFound(err):
		return nil
	default:
		return fmt.Errorf("find customer by email: %w", err)
	}
}

func (s *Service) customerWriteError(err error, email string) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateKey):
		return fmt.Errorf("%w: %s", domain.ErrEmailTaken, email)
	case domain.IsNotFound(err):
		return err
	default:
		s.logger.WithError(err).Error("failed to store customer")
		return fmt.Errorf("store customer: %w", err)
	}
}

// wrapLookup приводит NotFound хранилища к конкретной ошибке сущности.
func wrapLookup(err, notFound error, id, action string) error {
	if domain.IsNotFound(err) {
		return fmt.Errorf("%w: %s", notFound, strings.TrimSpace(id))
	}
	return fmt.Errorf("%s: %w", action, err)
}
