package ordering

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// OrderEvent — полезная нагрузка outbox-событий заказа.
type OrderEvent struct {
	OrderID        string          `json:"order_id"`
	CustomerID     string          `json:"customer_id"`
	RestaurantID   string          `json:"restaurant_id"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	Total          decimal.Decimal `json:"total"`
	Lines          int             `json:"lines"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func newOrderEvent(order domain.Order, previous domain.OrderStatus) OrderEvent {
	return OrderEvent{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		RestaurantID:   order.RestaurantID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		Total:          order.Total,
		Lines:          len(order.Lines),
		OccurredAt:     order.UpdatedAt,
	}
}

// appendTimeline пишет событие в таймлайн; ошибка только логируется.
func (s *Service) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	event := domain.NewTimelineEvent(orderID, eventType, reason, occurred)
	if err := s.timeline.Append(event); err != nil {
		s.metrics.RecordSideEffectError("timeline")
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("failed to append timeline event")
		return
	}
	s.metrics.RecordTimelineEvent()
}

// enqueueEvent ставит событие заказа в outbox; ошибка только логируется.
func (s *Service) enqueueEvent(eventType string, order domain.Order, previous domain.OrderStatus) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(newOrderEvent(order, previous))
	if err != nil {
		s.metrics.RecordSideEffectError("outbox")
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to encode order event")
		return
	}

	msg := domain.NewOrderOutboxMessage(uuid.NewString(), eventType, order.ID, payload)
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.metrics.RecordSideEffectError("outbox")
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Warn("failed to enqueue order event")
		return
	}
	s.metrics.RecordOutboxEvent()
}
