package catalog

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// RegisterProduct добавляет продукт в меню активного ресторана.
func (s *Service) RegisterProduct(ctx context.Context, restaurantID string, details domain.ProductDetails) (domain.Product, error) {
	restaurant, err := s.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return domain.Product{}, err
	}
	if !restaurant.Active {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrRestaurantInactive, restaurant.ID)
	}

	product, err := domain.NewProduct(restaurant.ID, details)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Create(product); err != nil {
		s.logger.WithError(err).WithField("restaurant_id", restaurant.ID).Error("failed to store product")
		return domain.Product{}, fmt.Errorf("store product: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"product_id":    product.ID,
		"restaurant_id": restaurant.ID,
		"price":         product.Price.StringFixed(2),
	}).Info("product registered")
	return product, nil
}

// GetProduct возвращает продукт по идентификатору.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	product, err := s.products.Get(strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, wrapLookup(err, domain.ErrProductNotFound, id, "load product")
	}
	return product, nil
}

// UpdateProduct меняет название, описание и цену. Уже созданные заказы
// хранят свою цену и не затрагиваются.
func (s *Service) UpdateProduct(ctx context.Context, id string, details domain.ProductDetails) (domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := product.ApplyDetails(details); err != nil {
		return domain.Product{}, err
	}
	if err := s.products.Update(product); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

// SetProductActive меняет доступность продукта.
func (s *Service) SetProductActive(ctx context.Context, id string, active bool) (domain.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	product.Active = active
	if err := s.products.Update(product); err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	s.logger.WithFields(log.Fields{
		"product_id": product.ID,
		"active":     active,
	}).Info("product availability changed")
	return product, nil
}

// DeactivateProduct снимает продукт с продажи.
func (s *Service) DeactivateProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.SetProductActive(ctx, id, false)
}

// SearchProducts ищет продукты по подстроке названия, категории ресторана и цене.
func (s *Service) SearchProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter.NameContains = strings.TrimSpace(filter.NameContains)
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.MaxPrice.Valid && filter.MaxPrice.Decimal.IsNegative() {
		return nil, domain.ErrPriceInvalid
	}
	products, err := s.products.Search(filter)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}
