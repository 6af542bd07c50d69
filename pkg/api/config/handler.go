// Package config exposes the server's runtime feature toggles (narrative
// generation, report caching) over HTTP, mirroring the teacher's provider
// config/switch endpoint shape but scoped to this server's own settings
// instead of a multi-LLM-provider selection.
package config

import (
	"encoding/json"
	"net/http"

	"vcfundsim/internal/config"
)

// Response reports the server's current feature toggles.
type Response struct {
	EnableNarrative    bool `json:"enable_narrative"`
	EnableReportCache  bool `json:"enable_report_cache"`
	MaxIterationsPerRun int `json:"max_iterations_per_run"`
}

// SwitchRequest flips one or both feature toggles. A nil field leaves the
// corresponding setting unchanged.
type SwitchRequest struct {
	EnableNarrative   *bool `json:"enable_narrative,omitempty"`
	EnableReportCache *bool `json:"enable_report_cache,omitempty"`
}

// Handler holds the mutable server config the toggle endpoints read/write.
type Handler struct {
	Server *config.Server
}

// NewHandler creates a config handler over the shared server config.
func NewHandler(server *config.Server) *Handler {
	return &Handler{Server: server}
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	resp := Response{
		EnableNarrative:     h.Server.EnableNarrative,
		EnableReportCache:   h.Server.EnableReportCache,
		MaxIterationsPerRun: h.Server.MaxIterationsPerRun,
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req SwitchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.EnableNarrative != nil {
		h.Server.EnableNarrative = *req.EnableNarrative
	}
	if req.EnableReportCache != nil {
		h.Server.EnableReportCache = *req.EnableReportCache
	}

	json.NewEncoder(w).Encode(Response{
		EnableNarrative:     h.Server.EnableNarrative,
		EnableReportCache:   h.Server.EnableReportCache,
		MaxIterationsPerRun: h.Server.MaxIterationsPerRun,
	})
}
