package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
)

// HeaderReplayed выставляется на ответах, возвращённых из кэша идемпотентности.
const HeaderReplayed = "Idempotent-Replayed"

const unmatchedRoute = "unmatched"

// accessLog пишет по одной записи на запрос.
func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		entry := a.logger.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      status,
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(started).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("http request")
		case status >= http.StatusBadRequest:
			entry.Warn("http request")
		default:
			entry.Info("http request")
		}
	})
}

// observe считает метрики по шаблону маршрута chi, чтобы не плодить метки по id.
func (a *API) observe(next http.Handler) http.Handler {
	if a.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		a.metrics.Started()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			a.metrics.Observe(r.Method, route, status, started)
		}()
		next.ServeHTTP(ww, r)
	})
}

// idempotent повторяет сохранённый ответ для запроса с тем же Idempotency-Key.
// Запрос без ключа обрабатывается как обычно.
func (a *API) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(idempotency.HeaderKey))
		if a.guard == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			a.writeError(w, r, badRequest("read request body: %v", err))
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		record, replay, err := a.guard.Begin(key, idempotency.HashRequest(r.Method, r.URL.Path, body))
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if replay {
			a.logger.WithField("idempotency_key", key).Debug("replaying stored response")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(HeaderReplayed, "true")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
			return
		}

		rec := &capturingWriter{ResponseWriter: w}
		defer func() {
			// Паника не должна оставлять ключ в processing до истечения TTL.
			if p := recover(); p != nil {
				a.guard.Complete(key, http.StatusInternalServerError, internalErrorBody())
				panic(p)
			}
		}()
		next.ServeHTTP(rec, r)
		a.guard.Complete(key, rec.statusCode(), rec.body.Bytes())
	})
}

// internalErrorBody совпадает с телом, которое пишет writeError для 500.
func internalErrorBody() []byte {
	body, err := json.Marshal(errorResponse{Error: codeInternal, Message: "internal server error"})
	if err != nil {
		return nil
	}
	return append(body, '\n')
}

// capturingWriter дублирует тело ответа для сохранения в хранилище ключей.
type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capturingWriter) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *capturingWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

func (c *capturingWriter) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
