package api

import (
	"net/http"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/engine"
)

// ConfigHandler reads and updates the engine's runtime configuration.
type ConfigHandler struct {
	engine *engine.Engine
}

// NewConfigHandler creates a new ConfigHandler backed by the given engine.
func NewConfigHandler(eng *engine.Engine) *ConfigHandler {
	return &ConfigHandler{engine: eng}
}

// Get handles GET /api/config.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, newEngineConfigView(h.engine.Config()))
}

// Update handles PATCH /api/config.
// Only the fields present in the body change. The engine validates the
// merged result and rejects the whole patch when any field is out of range,
// so a partial patch never leaves the engine half-configured.
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ConfigPatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	cfg, err := h.engine.UpdateConfig(req.toPatch())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newEngineConfigView(cfg))
}
