package idempotency

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func TestHashRequest(t *testing.T) {
	t.Parallel()

	a := HashRequest("post", "/api/orders", []byte(`{"a":1}`))
	assert.Equal(t, a, HashRequest("POST", "/api/orders", []byte(`{"a":1}`)))
	assert.NotEqual(t, a, HashRequest("POST", "/api/orders", []byte(`{"a":2}`)))
	assert.NotEqual(t, a, HashRequest("POST", "/api/orders/preview", []byte(`{"a":1}`)))
	assert.Len(t, a, 64)
}

func TestGuard_ReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	guard := NewGuard(memory.NewIdempotencyRepository(), 0, nil)
	hash := HashRequest(http.MethodPost, "/api/orders", []byte(`{"customer_id":"c1"}`))

	_, replay, err := guard.Begin("key-1", hash)
	require.NoError(t, err)
	assert.False(t, replay)

	_, _, err = guard.Begin("key-1", hash)
	assert.ErrorIs(t, err, ErrRequestInFlight)

	guard.Complete("key-1", http.StatusCreated, []byte(`{"id":"o1"}`))

	record, replay, err := guard.Begin("key-1", hash)
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, http.StatusCreated, record.HTTPStatus)
	assert.JSONEq(t, `{"id":"o1"}`, string(record.ResponseBody))
	assert.Equal(t, domain.IdempotencyStatusDone, record.Status)
}

func TestGuard_RejectsDifferentPayload(t *testing.T) {
	t.Parallel()

	guard := NewGuard(memory.NewIdempotencyRepository(), 0, nil)

	_, _, err := guard.Begin("key-2", HashRequest(http.MethodPost, "/api/orders", []byte(`{"q":1}`)))
	require.NoError(t, err)

	_, _, err = guard.Begin("key-2", HashRequest(http.MethodPost, "/api/orders", []byte(`{"q":2}`)))
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)
}

func TestGuard_ReplaysFailure(t *testing.T) {
	t.Parallel()

	guard := NewGuard(memory.NewIdempotencyRepository(), 0, nil)
	hash := HashRequest(http.MethodPost, "/api/orders", nil)

	_, _, err := guard.Begin("key-3", hash)
	require.NoError(t, err)
	guard.Complete("key-3", http.StatusBadRequest, []byte(`{"error":"business_rule"}`))

	record, replay, err := guard.Begin("key-3", hash)
	require.NoError(t, err)
	assert.True(t, replay)
	assert.Equal(t, http.StatusBadRequest, record.HTTPStatus)
	assert.Equal(t, domain.IdempotencyStatusFailed, record.Status)
}
