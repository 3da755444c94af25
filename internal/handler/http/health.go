package http

import (
	"net/http"

	"github.com/MKhiriev/go-agent-platform/internal/utils"
	"github.com/MKhiriev/go-agent-platform/models"
)

// health probes every registered dependency and reports per-component
// status. The endpoint answers 200 only when all checks pass; a degraded
// platform answers 503 so load balancers can take the instance out of
// rotation.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := models.HealthResponse{
		Status: "ok",
		Checks: make(map[string]models.HealthCheck),
	}

	probe := func(name string, p Pinger) {
		if p == nil {
			return
		}
		resp.Checks[name] = checkResult(p.Health(ctx))
	}

	probe("database", h.deps.DB)
	probe("redis", h.deps.Cache)
	probe("chain", h.deps.Chain)

	if h.deps.Providers != nil {
		for name, err := range h.deps.Providers.Status(ctx) {
			resp.Checks["provider:"+name] = checkResult(err)
		}
	}

	status := http.StatusOK
	for _, check := range resp.Checks {
		if check.Status != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			break
		}
	}

	utils.WriteJSON(w, resp, status)
}

func checkResult(err error) models.HealthCheck {
	if err != nil {
		return models.HealthCheck{Status: "down", Error: err.Error()}
	}
	return models.HealthCheck{Status: "ok"}
}
