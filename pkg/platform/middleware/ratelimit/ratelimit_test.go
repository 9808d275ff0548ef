package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vinculacion/pkg/requestcontext"
)

func TestLimiter_AllowsBurstThenRejects(t *testing.T) {
	l := New(0.001, 2)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// Other clients keep their own bucket
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestLimiter_SweepEvictsIdleBuckets(t *testing.T) {
	l := New(1, 1)
	l.Allow("10.0.0.1")
	l.Sweep(time.Now().Add(10 * time.Minute))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.buckets)
}

func TestMiddleware_Returns429(t *testing.T) {
	l := New(0.001, 1)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	newReq := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		return r.WithContext(requestcontext.WithClientMetadata(r.Context(), "10.1.1.1", ""))
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
