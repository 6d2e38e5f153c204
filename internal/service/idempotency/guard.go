package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const (
	// HeaderKey — заголовок, по которому клиент повторяет создание заказа.
	HeaderKey  = "Idempotency-Key"
	DefaultTTL = 24 * time.Hour
)

// ErrRequestInFlight — запрос с тем же ключом ещё обрабатывается.
var ErrRequestInFlight = errors.New("request with the same idempotency key is already processing")

// Guard сохраняет ответ на запрос с Idempotency-Key и возвращает его при повторе.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// NewGuard создаёт Guard поверх хранилища ключей.
func NewGuard(repo domain.IdempotencyRepository, ttl time.Duration, logger *log.Entry) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = log.WithField("component", "idempotency-guard")
	}
	return &Guard{
		repo:   repo,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// HashRequest строит отпечаток запроса: метод, путь и тело.
func HashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte{':'})
	h.Write([]byte(path))
	h.Write([]byte{':'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Begin резервирует ключ. Если ответ уже сохранён, он возвращается с replay=true.
// Для ключа в обработке возвращается ErrRequestInFlight, для другого тела —
// domain.ErrIdempotencyHashMismatch.
func (g *Guard) Begin(key, requestHash string) (record domain.IdempotencyRecord, replay bool, err error) {
	record, err = g.repo.CreateProcessing(key, requestHash, g.now().Add(g.ttl))
	if err == nil {
		return record, false, nil
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return domain.IdempotencyRecord{}, false, err
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		if record.Replayable() {
			return record, true, nil
		}
		if record.Status == domain.IdempotencyStatusProcessing {
			return domain.IdempotencyRecord{}, false, ErrRequestInFlight
		}
		return domain.IdempotencyRecord{}, false, fmt.Errorf("idempotency record %q has no stored response", key)
	default:
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to create idempotency record")
		return domain.IdempotencyRecord{}, false, fmt.Errorf("create idempotency record: %w", err)
	}
}

// Complete сохраняет ответ. Коды 2xx помечают ключ done, остальные помечают failed.
func (g *Guard) Complete(key string, status int, body []byte) {
	var err error
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		err = g.repo.MarkDone(key, body, status)
	} else {
		err = g.repo.MarkFailed(key, body, status)
	}
	if err != nil {
		g.logger.WithError(err).WithFields(log.Fields{
			"idempotency_key": key,
			"status":          status,
		}).Warn("failed to store idempotent response")
	}
}
