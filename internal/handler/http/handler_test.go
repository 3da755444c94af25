package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-agent-platform/internal/config"
	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/internal/mock"
	"github.com/MKhiriev/go-agent-platform/internal/service"
	"github.com/MKhiriev/go-agent-platform/internal/utils"
)

// testMocks bundles the generated service mocks behind one handle so
// individual tests can set expectations on the services they exercise.
type testMocks struct {
	auth        *mock.MockAuthService
	agents      *mock.MockAgentService
	tasks       *mock.MockTaskService
	ledger      *mock.MockLedgerService
	marketplace *mock.MockMarketplaceService
	pricing     *mock.MockPricingService
}

// newTestHandler builds a Handler over mocked services, a nop logger and no
// cache (the rate limiter passes requests through when no cache is wired).
func newTestHandler(t *testing.T) (*Handler, *testMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mocks := &testMocks{
		auth:        mock.NewMockAuthService(ctrl),
		agents:      mock.NewMockAgentService(ctrl),
		tasks:       mock.NewMockTaskService(ctrl),
		ledger:      mock.NewMockLedgerService(ctrl),
		marketplace: mock.NewMockMarketplaceService(ctrl),
		pricing:     mock.NewMockPricingService(ctrl),
	}

	services := &service.Services{
		Auth:        mocks.auth,
		Agents:      mocks.agents,
		Tasks:       mocks.tasks,
		Ledger:      mocks.ledger,
		Marketplace: mocks.marketplace,
		Pricing:     mocks.pricing,
	}

	cfg := &config.Config{
		App:       config.App{Name: "AI Agent Platform", Environment: config.EnvTest},
		RateLimit: config.RateLimit{Requests: 100, WindowSeconds: 60},
	}

	h := NewHandler(services, nil, Dependencies{}, cfg, logger.Nop())

	return h, mocks
}

// authedRequest builds a request whose context carries userID, mimicking
// what the auth middleware does after token validation.
func authedRequest(t *testing.T, method, target string, userID int64, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	ctx := context.WithValue(req.Context(), utils.UserIDCtxKey, userID)
	return req.WithContext(ctx)
}

// encodeReader marshals v into a request-body reader.
func encodeReader(t *testing.T, v any) io.Reader {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encoding request body: %v", err)
	}
	return &buf
}

// withURLParam injects a chi route parameter so handler methods can be
// invoked without the full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}
