package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// loggedRequest builds a request whose context carries a zerolog logger
// writing into buf, the way withTraceID sets it up for real traffic.
func loggedRequest(method, path string, buf *bytes.Buffer) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	l := zerolog.New(buf).With().Timestamp().Logger()
	return req.WithContext(l.WithContext(req.Context()))
}

func TestWithLogging(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		status    int
		body      string
		wantInLog []string
	}{
		{
			name:   "agent list request",
			method: http.MethodGet,
			path:   "/api/agents",
			status: http.StatusOK,
			body:   `[]`,
			wantInLog: []string{
				`"method":"GET"`,
				`"uri":"/api/agents"`,
				`"status":200`,
				`"size":2`,
				`"duration":`,
			},
		},
		{
			name:   "task submission",
			method: http.MethodPost,
			path:   "/api/agents/a1/tasks",
			status: http.StatusAccepted,
			body:   `{"task_id":"t1"}`,
			wantInLog: []string{
				`"method":"POST"`,
				`"uri":"/api/agents/a1/tasks"`,
				`"status":202`,
			},
		},
		{
			name:   "rejected transfer",
			method: http.MethodPost,
			path:   "/api/wallet/transfer",
			status: http.StatusPaymentRequired,
			wantInLog: []string{
				`"status":402`,
				`"uri":"/api/wallet/transfer"`,
			},
		},
		{
			name:   "listing search keeps query in uri",
			method: http.MethodGet,
			path:   "/api/marketplace/listings?query=nlp&max_price=50",
			status: http.StatusOK,
			body:   `[]`,
			wantInLog: []string{
				`"uri":"/api/marketplace/listings?query=nlp&max_price=50"`,
				`"status":200`,
			},
		},
		{
			name:   "no body logs size zero",
			method: http.MethodDelete,
			path:   "/api/marketplace/listings/l1",
			status: http.StatusNoContent,
			wantInLog: []string{
				`"status":204`,
				`"size":0`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := &Handler{logger: logger.Nop()}
			var logBuf bytes.Buffer

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					_, _ = w.Write([]byte(tt.body))
				}
			})

			req := loggedRequest(tt.method, tt.path, &logBuf)
			rr := httptest.NewRecorder()

			// Act
			h.withLogging(next).ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, tt.status, rr.Code)
			for _, want := range tt.wantInLog {
				assert.Contains(t, logBuf.String(), want)
			}
		})
	}
}

func TestWithLogging_ReportsWrittenSize(t *testing.T) {
	// Arrange
	h := &Handler{logger: logger.Nop()}
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	})

	req := loggedRequest(http.MethodGet, "/api/usage", &logBuf)
	rr := httptest.NewRecorder()

	// Act
	h.withLogging(next).ServeHTTP(rr, req)

	// Assert: implicit WriteHeader counts as 200 and the written bytes are
	// tallied.
	assert.Contains(t, logBuf.String(), `"status":200`)
	assert.Contains(t, logBuf.String(), `"size":1024`)
}

func TestWithLogging_MeasuresDuration(t *testing.T) {
	// Arrange
	h := &Handler{logger: logger.Nop()}
	var logBuf bytes.Buffer
	delay := 50 * time.Millisecond

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.WriteHeader(http.StatusOK)
	})

	req := loggedRequest(http.MethodPost, "/api/pricing/estimate", &logBuf)
	rr := httptest.NewRecorder()

	// Act
	start := time.Now()
	h.withLogging(next).ServeHTTP(rr, req)
	elapsed := time.Since(start)

	// Assert
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Contains(t, logBuf.String(), `"duration":`)
}

func TestWithLogging_DoesNotRecoverPanics(t *testing.T) {
	// Recovery belongs to chi's Recoverer, which sits above this middleware
	// in the chain.
	h := &Handler{logger: logger.Nop()}
	var logBuf bytes.Buffer

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("provider exploded")
	})

	req := loggedRequest(http.MethodPost, "/api/agents/a1/tasks", &logBuf)
	rr := httptest.NewRecorder()

	assert.Panics(t, func() {
		h.withLogging(next).ServeHTTP(rr, req)
	})
}

func TestWithLogging_ConcurrentRequests(t *testing.T) {
	// Arrange
	h := &Handler{logger: logger.Nop()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := h.withLogging(next)

	const n = 50
	done := make(chan string, n)

	// Act
	for i := 0; i < n; i++ {
		go func() {
			var buf bytes.Buffer
			req := loggedRequest(http.MethodGet, "/api/tasks", &buf)
			rr := httptest.NewRecorder()
			middleware.ServeHTTP(rr, req)
			done <- buf.String()
		}()
	}

	// Assert
	for i := 0; i < n; i++ {
		assert.Contains(t, <-done, `"status":200`)
	}
}
