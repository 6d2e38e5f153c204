package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
)

const maxBodyBytes = 1 << 20

// Коды ошибок в теле ответа.
const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeBusinessRule   = "business_rule_violation"
	codeConflict       = "conflict"
	codeInternal       = "internal_error"
)

// errBadRequest помечает ошибки разбора запроса (JSON, query-параметры).
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// classify выбирает HTTP-код и код ошибки по классу ошибки.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, codeInvalidRequest
	case domain.IsNotFound(err):
		return http.StatusNotFound, codeNotFound
	case domain.IsBusinessRule(err):
		return http.StatusBadRequest, codeBusinessRule
	case domain.IsVersionConflict(err),
		domain.IsIdempotencyConflict(err),
		errors.Is(err, domain.ErrDuplicateKey),
		errors.Is(err, idempotency.ErrRequestInFlight):
		return http.StatusConflict, codeConflict
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError пишет тело {"error","message"}. Текст внутренних ошибок наружу не отдаётся.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		message = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return value, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("%s must be a boolean", name)
	}
	return value, nil
}

const dateLayout = "2006-01-02"

// queryTime принимает RFC 3339 или дату. Для верхней границы дата
// расширяется до конца дня.
func queryTime(r *http.Request, name string, endOfDay bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, badRequest("%s must be RFC 3339 timestamp or YYYY-MM-DD date", name)
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}
