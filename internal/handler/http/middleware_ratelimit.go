package http

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
)

const rateLimitNamespace = "ratelimit"

// withRateLimit enforces the platform's fixed-window rate limit: at most
// RATE_LIMIT_REQUESTS requests per RATE_LIMIT_WINDOW per client. Counters
// live in Redis so every server instance shares one budget.
//
// The client key prefers the user ID from the bearer token (read without
// signature verification — the auth middleware still rejects forged tokens
// later) and falls back to the client IP. Rejected requests receive 429 with
// Retry-After; accepted ones carry the X-RateLimit-* accounting headers.
//
// When Redis is unreachable the middleware fails open: blocking all traffic
// on a cache outage would turn a degradation into an outage.
func (h *Handler) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cache == nil || h.rateCfg.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		log := logger.FromRequest(r)

		key := clientKey(r)

		count, err := h.cache.IncrWithExpire(ctx, rateLimitNamespace, key, h.rateCfg.Window())
		if err != nil {
			log.Err(err).Msg("rate limit counter unavailable, failing open")
			next.ServeHTTP(w, r)
			return
		}

		limit := int64(h.rateCfg.Requests)

		if count > limit {
			retryAfter := int(h.rateCfg.Window().Seconds())
			if ttl, err := h.cache.GetTTL(ctx, rateLimitNamespace, key); err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds())
			}

			log.Warn().Str("client", key).Int64("count", count).Msg("rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(limit-count, 10))

		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller for rate accounting: "uid:<id>" for
// requests carrying a parseable bearer token, "ip:<addr>" otherwise.
func clientKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if tokenString, err := getTokenFromAuthHeader(authHeader); err == nil {
			if userID, err := utils.ParseUserIDFromJWT(tokenString); err == nil {
				return fmt.Sprintf("uid:%d", userID)
			}
		}
	}

	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip = r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
	}
	return "ip:" + strings.TrimSpace(strings.Split(ip, ",")[0])
}
