package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// timelineRepositoryInMemory держит историю каждого заказа отсортированной по времени.
type timelineRepositoryInMemory struct {
	mu      sync.RWMutex
	byOrder map[string][]domain.TimelineEvent
	now     func() time.Time
}

// NewTimelineRepository создаёт in-memory реализацию TimelineRepository.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{
		byOrder: make(map[string][]domain.TimelineEvent),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Occurred.IsZero() {
		event.Occurred = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.byOrder[event.OrderID]
	// Запись с тем же временем встаёт после уже сохранённых.
	pos := sort.Search(len(history), func(i int) bool {
		return history[i].Occurred.After(event.Occurred)
	})
	history = append(history, domain.TimelineEvent{})
	copy(history[pos+1:], history[pos:])
	history[pos] = event
	r.byOrder[event.OrderID] = history
	return nil
}

func (r *timelineRepositoryInMemory) List(orderID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.TimelineEvent{}, r.byOrder[orderID]...), nil
}

var _ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)
