package domain

import "time"

// IdempotencyStatus — состояние ключа Idempotency-Key для POST /api/orders.
type IdempotencyStatus string

const (
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	IdempotencyStatusDone       IdempotencyStatus = "done"
	IdempotencyStatusFailed     IdempotencyStatus = "failed"
)

// Valid проверяет, что статус известен хранилищу.
func (s IdempotencyStatus) Valid() bool {
	return s == IdempotencyStatusProcessing || s == IdempotencyStatusDone || s == IdempotencyStatusFailed
}

// IdempotencyRecord — сохранённый ответ на создание заказа.
// ResponseBody и HTTPStatus заполняются после завершения обработки.
type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseBody []byte
	HTTPStatus   int
	Status       IdempotencyStatus
	TTLAt        time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdempotencyRecord резервирует ключ в статусе processing.
func NewIdempotencyRecord(key, requestHash string, ttlAt, now time.Time) IdempotencyRecord {
	return IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Status:      IdempotencyStatusProcessing,
		TTLAt:       ttlAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Replayable: ответ сохранён и его можно отдать повторно.
func (r IdempotencyRecord) Replayable() bool {
	return r.Status != IdempotencyStatusProcessing && r.HTTPStatus > 0
}

// Expired сообщает, что срок жизни ключа истёк к моменту now.
// Истёкший ключ можно занять заново, даже если очистка ещё не прошла.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.IsZero() && !r.TTLAt.After(now)
}

// Finish фиксирует ответ на запрос.
func (r *IdempotencyRecord) Finish(status IdempotencyStatus, body []byte, httpStatus int, now time.Time) {
	r.Status = status
	r.ResponseBody = append([]byte(nil), body...)
	r.HTTPStatus = httpStatus
	r.UpdatedAt = now
}
