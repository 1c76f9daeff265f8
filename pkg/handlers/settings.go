package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/services"
)

// SettingsHandler handles application settings requests.
type SettingsHandler struct {
	settings services.SettingsProvider
	logger   *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings services.SettingsProvider, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// RegisterRoutes registers the settings handler's routes on the given mux.
func (h *SettingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/settings", h.Get)
	mux.HandleFunc("POST /api/settings", h.Save)
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Current(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, settings)
}

// Save handles POST /api/settings: the posted document replaces the stored
// one wholesale.
func (h *SettingsHandler) Save(w http.ResponseWriter, r *http.Request) {
	var settings models.AppSettings
	if !decodeJSON(h.logger, w, r, &settings) {
		return
	}

	if strings.TrimSpace(settings.Ollama.Host) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "host_required", "ollama.host is required")
		return
	}
	if strings.TrimSpace(settings.Ollama.PrimaryModel) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "primary_model_required", "ollama.primaryModel is required")
		return
	}

	if err := h.settings.Save(r.Context(), &settings); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}
