package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Типы записей в истории заказа.
const (
	TimelineOrderCreated       = "OrderCreated"
	TimelineOrderStatusChanged = "OrderStatusChanged"
	TimelineOrderCanceled      = "OrderCanceled"
)

// ErrTimelineTypeUnknown — тип записи истории не поддерживается.
var ErrTimelineTypeUnknown = errors.New("unknown timeline event type")

// TimelineEvent — запись истории заказа. Для OrderStatusChanged Reason
// содержит новый статус.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Reason   string
	Occurred time.Time
}

// NewTimelineEvent создаёт запись истории с временем в UTC.
func NewTimelineEvent(orderID, eventType, reason string, occurred time.Time) TimelineEvent {
	return TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred.UTC(),
	}
}

// Validate проверяет, что запись привязана к заказу и имеет известный тип.
func (e TimelineEvent) Validate() error {
	if strings.TrimSpace(e.OrderID) == "" {
		return ErrOrderNotFound
	}
	switch e.Type {
	case TimelineOrderCreated, TimelineOrderStatusChanged, TimelineOrderCanceled:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrTimelineTypeUnknown, e.Type)
	}
}
