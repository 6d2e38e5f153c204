package ordering

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// UpdateStatus перезаписывает статус заказа. Переходы не проверяются,
// отклоняется только пустой статус.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (order domain.Order, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(operationUpdateStatus, resultOf(err), started) }()

	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	order, err = s.loadOrder(orderID, "UpdateStatus")
	if err != nil {
		return domain.Order{}, err
	}

	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return domain.Order{}, err
	}

	previous := order.Status
	now := s.now().UTC()
	order.SetStatus(next, now)
	if err := s.saveOrder(order, "UpdateStatus"); err != nil {
		return domain.Order{}, err
	}
	order.Version++

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       next,
	}).Info("order status updated")

	s.metrics.RecordStatusChange(string(next))
	s.appendTimeline(order.ID, domain.TimelineOrderStatusChanged, string(next), now)
	s.enqueueEvent(domain.EventOrderStatusChanged, order, previous)

	return order, nil
}

// CancelOrder отменяет заказ, находящийся в статусе PENDING.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (order domain.Order, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveOperation(operationCancel, resultOf(err), started) }()

	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	order, err = s.loadOrder(orderID, "CancelOrder")
	if err != nil {
		return domain.Order{}, err
	}

	previous := order.Status
	now := s.now().UTC()
	if err := order.Cancel(now); err != nil {
		return domain.Order{}, fmt.Errorf("%w: current status %s", err, previous)
	}
	if err := s.saveOrder(order, "CancelOrder"); err != nil {
		return domain.Order{}, err
	}
	order.Version++

	s.logger.WithField("order_id", order.ID).Info("order cancelled")

	s.metrics.RecordStatusChange(string(order.Status))
	s.appendTimeline(order.ID, domain.TimelineOrderCanceled, string(previous), now)
	s.enqueueEvent(domain.EventOrderCanceled, order, previous)

	return order, nil
}

func (s *Service) loadOrder(orderID, operation string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	order, err := s.orders.Get(orderID)
	if err == nil {
		return order, nil
	}

	s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"order_id":  orderID,
	}).Warn("failed to load order")

	if domain.IsNotFound(err) {
		return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, orderID)
	}
	return domain.Order{}, fmt.Errorf("load order: %w", err)
}

func (s *Service) saveOrder(order domain.Order, operation string) error {
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"order_id":  order.ID,
		}).Error("failed to save order")

		if domain.IsNotFound(err) {
			return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
		}
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}
