package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// RegisterRestaurant создаёт активный ресторан с уникальным названием.
func (s *Service) RegisterRestaurant(ctx context.Context, profile domain.RestaurantProfile) (domain.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Restaurant{}, err
	}

	restaurant, err := domain.NewRestaurant(profile, s.now())
	if err != nil {
		return domain.Restaurant{}, err
	}
	if err := s.ensureNameFree(restaurant.Name, ""); err != nil {
		return domain.Restaurant{}, err
	}
	if err := s.restaurants.Create(restaurant); err != nil {
		return domain.Restaurant{}, s.restaurantWriteError(err, restaurant.Name)
	}

	s.logger.WithFields(log.Fields{
		"restaurant_id": restaurant.ID,
		"category":      restaurant.Category,
	}).Info("restaurant registered")
	return restaurant, nil
}

// GetRestaurant возвращает ресторан по идентификатору.
func (s *Service) GetRestaurant(ctx context.Context, id string) (domain.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return domain.Restaurant{}, err
	}
	restaurant, err := s.restaurants.Get(strings.TrimSpace(id))
	if err != nil {
		return domain.Restaurant{}, wrapLookup(err, domain.ErrRestaurantNotFound, id, "load restaurant")
	}
	return restaurant, nil
}

// UpdateRestaurant переписывает профиль ресторана.
func (s *Service) UpdateRestaurant(ctx context.Context, id string, profile domain.RestaurantProfile) (domain.Restaurant, error) {
	restaurant, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	if err := restaurant.ApplyProfile(profile); err != nil {
		return domain.Restaurant{}, err
	}
	if err := s.ensureNameFree(restaurant.Name, restaurant.ID); err != nil {
		return domain.Restaurant{}, err
	}
	if err := s.restaurants.Update(restaurant); err != nil {
		return domain.Restaurant{}, s.restaurantWriteError(err, restaurant.Name)
	}
	return restaurant, nil
}

// SetRestaurantActive включает или выключает ресторан.
func (s *Service) SetRestaurantActive(ctx context.Context, id string, active bool) (domain.Restaurant, error) {
	restaurant, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	restaurant.Active = active
	if err := s.restaurants.Update(restaurant); err != nil {
		return domain.Restaurant{}, s.restaurantWriteError(err, restaurant.Name)
	}
	s.logger.WithFields(log.Fields{
		"restaurant_id": restaurant.ID,
		"active":        active,
	}).Info("restaurant availability changed")
	return restaurant, nil
}

// ListRestaurants возвращает рестораны по категории; активные сортируются по рейтингу.
func (s *Service) ListRestaurants(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter.Category = strings.TrimSpace(filter.Category)
	restaurants, err := s.restaurants.List(filter)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

// RestaurantProducts возвращает меню ресторана.
func (s *Service) RestaurantProducts(ctx context.Context, id string) ([]domain.Product, error) {
	restaurant, err := s.GetRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	products, err := s.products.ListByRestaurant(restaurant.ID)
	if err != nil {
		return nil, fmt.Errorf("list restaurant products: %w", err)
	}
	return products, nil
}

func (s *Service) ensureNameFree(name, selfID string) error {
	existing, err := s.restaurants.FindByName(name)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return fmt.Errorf("%w: %s", domain.ErrRestaurantNameTaken, name)
		}
		return nil
	case domain.IsNotFound(err):
		return nil
	default:
		return fmt.Errorf("find restaurant by name: %w", err)
	}
}

func (s *Service) restaurantWriteError(err error, name string) error {
	switch {
	case errors.Is(err, domain.ErrDuplicateKey):
		return fmt.Errorf("%w: %s", domain.ErrRestaurantNameTaken, name)
	case domain.IsNotFound(err):
		return err
	default:
		s.logger.WithError(err).Error("failed to store restaurant")
		return fmt.Errorf("store restaurant: %w", err)
	}
}
