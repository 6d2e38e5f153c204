package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTimelineEventValidate(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	tests := []struct {
		name  string
		event TimelineEvent
		want  error
	}{
		{name: "created", event: NewTimelineEvent("order-1", TimelineOrderCreated, "", at)},
		{name: "status changed", event: NewTimelineEvent("order-1", TimelineOrderStatusChanged, "CONFIRMED", at)},
		{name: "canceled", event: NewTimelineEvent("order-1", TimelineOrderCanceled, "", at)},
		{name: "no order", event: NewTimelineEvent(" ", TimelineOrderCreated, "", at), want: ErrOrderNotFound},
		{name: "unknown type", event: NewTimelineEvent("order-1", "OrderPaid", "", at), want: ErrTimelineTypeUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.Validate()
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewTimelineEventUsesUTC(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	event := NewTimelineEvent("order-1", TimelineOrderCreated, "", at)
	if event.Occurred.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", event.Occurred.Location())
	}
	if !event.Occurred.Equal(at) {
		t.Fatalf("instant changed: %s", event.Occurred)
	}
}
