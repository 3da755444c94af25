package http

import (
	"net/http"
	"time"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
)

// withLogging emits one structured access log line per request: method, URI,
// response status, duration and body size. It relies on withTraceID having
// already put a trace-scoped logger into the request context.
func (h *Handler) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)
		start := time.Now()

		lw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(lw, r)

		log.Info().
			Str("uri", r.RequestURI).
			Str("method", r.Method).
			Int("status", lw.status).
			Dur("duration", time.Since(start)).
			Int("size", lw.size).
			Send()
	})
}
