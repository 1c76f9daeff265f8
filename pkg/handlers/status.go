package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/services"
)

// Dependency states reported by the status endpoint.
const (
	StatusOperational = "operational"
	StatusDegraded    = "degraded"
	StatusDown        = "down"
)

// DependencyStatus describes the health of one dependency.
type DependencyStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

// ModelStatus is a DependencyStatus for a named model.
type ModelStatus struct {
	DependencyStatus
	ModelName string `json:"modelName"`
}

// ModelsStatus groups the configured models.
type ModelsStatus struct {
	Primary   ModelStatus  `json:"primary"`
	Judge     *ModelStatus `json:"judge,omitempty"`
	Embedding ModelStatus  `json:"embedding"`
}

// SystemStatus is the full status report.
type SystemStatus struct {
	Overall      string    `json:"overall"`
	Timestamp    time.Time `json:"timestamp"`
	Dependencies struct {
		Ollama   DependencyStatus `json:"ollama"`
		Models   ModelsStatus     `json:"models"`
		Database DependencyStatus `json:"database"`
		Settings DependencyStatus `json:"settings"`
	} `json:"dependencies"`
}

// StatusHandler reports dependency health and runs fix actions.
type StatusHandler struct {
	db       *sql.DB
	factory  llm.Factory
	settings services.SettingsProvider
	logger   *zap.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(db *sql.DB, factory llm.Factory, settings services.SettingsProvider, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		db:       db,
		factory:  factory,
		settings: settings,
		logger:   logger,
	}
}

// RegisterRoutes registers the status handler's routes on the given mux.
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", h.Status)
	mux.HandleFunc("POST /api/fix", h.Fix)
}

// Status handles GET /api/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := SystemStatus{Overall: StatusOperational, Timestamp: time.Now().UTC()}

	status.Dependencies.Database = DependencyStatus{Status: StatusOperational}
	if err := h.db.PingContext(ctx); err != nil {
		status.Dependencies.Database = DependencyStatus{
			Status:  StatusDown,
			Message: "Database unavailable",
			Details: err.Error(),
		}
	}

	status.Dependencies.Settings = DependencyStatus{Status: StatusOperational}
	settings, err := h.settings.Current(ctx)
	if err != nil {
		status.Dependencies.Settings = DependencyStatus{
			Status:  StatusDown,
			Message: "Settings unavailable",
			Details: err.Error(),
		}
		// Without settings there is no Ollama host or model config to
		// check, so those are reported down rather than left blank.
		unchecked := DependencyStatus{
			Status:  StatusDown,
			Message: "Cannot check (settings unavailable)",
		}
		status.Dependencies.Ollama = unchecked
		status.Dependencies.Models.Primary = ModelStatus{DependencyStatus: unchecked}
		status.Dependencies.Models.Embedding = ModelStatus{DependencyStatus: unchecked}
		status.Overall = StatusDown
		writeJSON(h.logger, w, http.StatusOK, status)
		return
	}

	ollamaStatus := DependencyStatus{Status: StatusOperational}
	var availableModels []string

	client := h.factory(settings.Ollama.Host)
	availableModels, err = client.ListModels(ctx)
	if err != nil {
		ollamaStatus = DependencyStatus{
			Status:  StatusDown,
			Message: "Cannot connect to Ollama",
			Details: fmt.Sprintf("Unable to reach %s", settings.Ollama.Host),
		}
	}
	status.Dependencies.Ollama = ollamaStatus

	ollamaUp := ollamaStatus.Status == StatusOperational
	status.Dependencies.Models.Primary = modelStatus(settings.Ollama.PrimaryModel, availableModels, ollamaUp)
	status.Dependencies.Models.Embedding = modelStatus(settings.Ollama.EmbeddingModel, availableModels, ollamaUp)

	if settings.Features.DualModelEnabled && settings.Ollama.JudgeModel != "" {
		judge := modelStatus(settings.Ollama.JudgeModel, availableModels, ollamaUp)
		status.Dependencies.Models.Judge = &judge
	}

	switch {
	case !ollamaUp,
		status.Dependencies.Models.Primary.Status == StatusDown,
		status.Dependencies.Models.Embedding.Status == StatusDown,
		status.Dependencies.Database.Status == StatusDown:
		status.Overall = StatusDown
	case status.Dependencies.Models.Judge != nil && status.Dependencies.Models.Judge.Status == StatusDown:
		status.Overall = StatusDegraded
	}

	writeJSON(h.logger, w, http.StatusOK, status)
}

func modelStatus(modelName string, available []string, ollamaUp bool) ModelStatus {
	ms := ModelStatus{
		DependencyStatus: DependencyStatus{Status: StatusOperational},
		ModelName:        modelName,
	}
	if !ollamaUp {
		ms.Status = StatusDown
		ms.Message = "Cannot check model (Ollama down)"
		return ms
	}
	if !modelAvailable(modelName, available) {
		ms.Status = StatusDown
		ms.Message = "Model not found"
		ms.Details = "Run: ollama pull " + modelName
	}
	return ms
}

// modelAvailable matches a configured model name against the installed list,
// tolerating a missing or extra ":tag" suffix on either side.
func modelAvailable(modelName string, available []string) bool {
	for _, m := range available {
		if m == modelName || strings.HasPrefix(m, modelName+":") {
			return true
		}
	}

	base := strings.SplitN(modelName, ":", 2)[0]
	for _, m := range available {
		if m == base || strings.HasPrefix(m, base+":") {
			return true
		}
	}
	return false
}

type fixRequest struct {
	Action string `json:"action"`
	Model  string `json:"model"`
}

// Fix handles POST /api/fix. The pull-model action blocks until the pull
// completes.
func (h *StatusHandler) Fix(w http.ResponseWriter, r *http.Request) {
	var req fixRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	switch req.Action {
	case "pull-model":
		if strings.TrimSpace(req.Model) == "" {
			writeError(h.logger, w, http.StatusBadRequest, "model_required", "Model name is required for pull-model action")
			return
		}

		settings, err := h.settings.Current(r.Context())
		if err != nil {
			writeServiceError(h.logger, w, err)
			return
		}

		client := h.factory(settings.Ollama.Host)
		if err := client.Pull(r.Context(), req.Model); err != nil {
			h.logger.Error("model pull failed", zap.String("model", req.Model), zap.Error(err))
			writeJSON(h.logger, w, http.StatusInternalServerError, map[string]interface{}{
				"success": false,
				"error":   "Failed to pull model",
				"details": err.Error(),
			})
			return
		}

		writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": fmt.Sprintf("Successfully pulled %s", req.Model),
		})

	case "test-connection":
		settings, err := h.settings.Current(r.Context())
		if err != nil {
			writeServiceError(h.logger, w, err)
			return
		}

		client := h.factory(settings.Ollama.Host)
		if _, err := client.ListModels(r.Context()); err != nil {
			writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
				"success": false,
				"message": "Cannot connect to Ollama",
			})
			return
		}
		writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Ollama is reachable",
		})

	default:
		writeError(h.logger, w, http.StatusBadRequest, "unknown_action", fmt.Sprintf("Unknown action: %s", req.Action))
	}
}
