package health

import (
	"context"
	"net/http"
	"time"

	"github.com/roastparty/server/internal/infrastructure/json"
)

const checkTimeout = 5 * time.Second

// Check probes one dependency. A nil error means healthy.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Handler struct {
	started time.Time
	checks  []Check
}

func NewHandler(checks ...Check) *Handler {
	return &Handler{started: time.Now(), checks: checks}
}

func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, statusResponse{
		Status: "up",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready runs every dependency probe and reports 503 when any fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	resp := readyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			resp.Checks[check.Name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}

	json.Write(w, status, resp)
}
