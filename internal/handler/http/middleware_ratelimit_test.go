package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/store"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
)

// newRateLimitedHandler wires a Handler over a miniredis-backed cache with
// the given request budget.
func newRateLimitedHandler(t *testing.T, requests, windowSeconds int) (*Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := store.NewCacheFromClient(client, logger.Nop())

	cfg := &config.Config{
		App:       config.App{Name: "AI Agent Platform", Environment: config.EnvTest},
		RateLimit: config.RateLimit{Requests: requests, WindowSeconds: windowSeconds},
	}

	return NewHandler(nil, cache, Dependencies{}, cfg, logger.Nop()), mr
}

func TestWithRateLimit_AllowsUpToLimit(t *testing.T) {
	// Arrange
	h, _ := newRateLimitedHandler(t, 3, 60)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := h.withRateLimit(next)

	// Act / Assert: the budget admits exactly 3 requests.
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		rr := httptest.NewRecorder()

		limited.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
	}

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	rr := httptest.NewRecorder()

	limited.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestWithRateLimit_SeparateBudgetsPerClient(t *testing.T) {
	// Arrange
	h, _ := newRateLimitedHandler(t, 1, 60)

	limited := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	exhaust := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	exhaust.RemoteAddr = "192.0.2.1:5000"
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, exhaust)
	require.Equal(t, http.StatusOK, rr.Code)

	// Act: a different client IP still has its own budget.
	other := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	other.RemoteAddr = "192.0.2.2:5000"
	rr = httptest.NewRecorder()
	limited.ServeHTTP(rr, other)

	// Assert
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithRateLimit_KeyPrefersUserID(t *testing.T) {
	// Arrange
	token, err := utils.GenerateJWTToken("AI Agent Platform", 42, time.Hour, "secret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer "+token.SignedString)
	req.RemoteAddr = "192.0.2.1:5000"

	// Act
	key := clientKey(req)

	// Assert
	assert.Equal(t, "uid:42", key)
}

func TestWithRateLimit_KeyFallsBackToIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:5000", want: "ip:192.0.2.1"},
		{name: "forwarded-for wins", remoteAddr: "10.0.0.1:443", forwarded: "203.0.113.9, 10.0.0.1", want: "ip:203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, clientKey(req))
		})
	}
}

func TestWithRateLimit_FailsOpenOnRedisOutage(t *testing.T) {
	// Arrange
	h, mr := newRateLimitedHandler(t, 1, 60)
	mr.Close()

	limited := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	rr := httptest.NewRecorder()

	// Act
	limited.ServeHTTP(rr, req)

	// Assert: traffic passes even though the counter store is down.
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithRateLimit_DisabledWithoutCache(t *testing.T) {
	// Arrange
	h, _ := newTestHandler(t)

	limited := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		rr := httptest.NewRecorder()

		limited.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestWithRateLimit_WindowExpires(t *testing.T) {
	// Arrange
	h, mr := newRateLimitedHandler(t, 1, 60)

	limited := h.withRateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	fire := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.RemoteAddr = "192.0.2.1:5000"
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusOK, fire())
	require.Equal(t, http.StatusTooManyRequests, fire())

	// Act: advance past the window.
	mr.FastForward(61 * time.Second)

	// Assert
	assert.Equal(t, http.StatusOK, fire())
}
