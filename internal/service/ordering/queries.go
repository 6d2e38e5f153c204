package ordering

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// GetOrder возвращает заказ с позициями.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	return s.loadOrder(orderID, "GetOrder")
}

// ListByCustomer возвращает историю заказов клиента, новые первыми.
func (s *Service) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	customer, err := s.loadCustomer(customerID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByCustomer(customer.ID, normalizeLimit(limit))
	if err != nil {
		s.logger.WithError(err).WithField("customer_id", customer.ID).Error("failed to list customer orders")
		return nil, fmt.Errorf("list customer orders: %w", err)
	}
	return orders, nil
}

// ListByRestaurant возвращает заказы ресторана, новые первыми.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	restaurant, err := s.loadRestaurant(restaurantID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByRestaurant(restaurant.ID, normalizeLimit(limit))
	if err != nil {
		s.logger.WithError(err).WithField("restaurant_id", restaurant.ID).Error("failed to list restaurant orders")
		return nil, fmt.Errorf("list restaurant orders: %w", err)
	}
	return orders, nil
}

// ListOrders возвращает заказы по фильтру статуса и периода создания.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, domain.ErrPeriodInvalid
	}
	filter.Limit = normalizeLimit(filter.Limit)

	orders, err := s.orders.List(filter)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Timeline возвращает события заказа в хронологическом порядке.
func (s *Service) Timeline(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.timeline == nil {
		return nil, nil
	}
	events, err := s.timeline.List(order.ID)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to list timeline events")
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	return events, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
