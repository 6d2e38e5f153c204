package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type timelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository создаёт PostgreSQL-реализацию TimelineRepository.
func NewTimelineRepository(store *Store) domain.TimelineRepository {
	return &timelineRepository{db: store.DB()}
}

// Append пишет запись истории; несуществующий заказ даёт ErrOrderNotFound через FK.
func (r *timelineRepository) Append(event domain.TimelineEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if !isUUID(event.OrderID) {
		return domain.ErrOrderNotFound
	}
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	ctx, cancel := opContext()
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO timeline_events (order_id, type, reason, occurred)
		VALUES ($1,$2,$3,$4)
	`, event.OrderID, event.Type, event.Reason, event.Occurred); err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

// List отдаёт историю заказа; при равном времени порядок задаёт порядок вставки.
func (r *timelineRepository) List(orderID string) ([]domain.TimelineEvent, error) {
	if !isUUID(orderID) {
		return []domain.TimelineEvent{}, nil
	}

	ctx, cancel := opContext()
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, type, reason, occurred
		FROM timeline_events
		WHERE order_id = $1
		ORDER BY occurred ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var (
			orderID, eventType string
			reason             sql.NullString
			occurred           time.Time
		)
		if err := rows.Scan(&orderID, &eventType, &reason, &occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, domain.NewTimelineEvent(orderID, eventType, reason.String, occurred))
	}
	return events, rowsErr(rows, "timeline events")
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)
