package http

import (
	"net/http"

	"github.com/MKhiriev/go-agent-platform/internal/utils"
)

// Build metadata injected via -ldflags by the release pipeline.
var (
	BuildVersion = "N/A"
	BuildDate    = "N/A"
	BuildCommit  = "N/A"
)

// versionResponse is the body of GET /api/version.
type versionResponse struct {
	App         string `json:"app"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	BuildDate   string `json:"build_date"`
	BuildCommit string `json:"build_commit"`
}

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, versionResponse{
		App:         h.appCfg.Name,
		Environment: h.appCfg.Environment,
		Version:     BuildVersion,
		BuildDate:   BuildDate,
		BuildCommit: BuildCommit,
	}, http.StatusOK)
}
