package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/services"
)

// GenerateHandler handles LLM-assisted content generation requests.
type GenerateHandler struct {
	generation services.GenerationService
	logger     *zap.Logger
}

// NewGenerateHandler creates a new generation handler.
func NewGenerateHandler(generation services.GenerationService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{generation: generation, logger: logger}
}

// RegisterRoutes registers the generation handler's routes on the given mux.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate/company", h.Company)
	mux.HandleFunc("POST /api/generate/member-profile", h.MemberProfile)
}

type generateCompanyRequest struct {
	Field        string            `json:"field"`
	CompanyName  string            `json:"companyName"`
	ExistingData map[string]string `json:"existingData"`
}

// Company handles POST /api/generate/company. Field "all" produces the full
// four-field profile; any other field answers with `{content}`.
func (h *GenerateHandler) Company(w http.ResponseWriter, r *http.Request) {
	var req generateCompanyRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	if req.Field == "all" {
		profile, err := h.generation.GenerateCompanyProfile(r.Context(), req.CompanyName, req.ExistingData)
		if err != nil {
			writeServiceError(h.logger, w, err)
			return
		}
		writeJSON(h.logger, w, http.StatusOK, profile)
		return
	}

	content, err := h.generation.GenerateCompanyField(r.Context(), req.Field, req.CompanyName, req.ExistingData)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]string{"content": content})
}

type memberProfileRequest struct {
	MemberID string `json:"memberId"`
}

// MemberProfile handles POST /api/generate/member-profile.
func (h *GenerateHandler) MemberProfile(w http.ResponseWriter, r *http.Request) {
	var req memberProfileRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	if strings.TrimSpace(req.MemberID) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "member_id_required", "memberId is required")
		return
	}

	profile, err := h.generation.GenerateMemberProfile(r.Context(), req.MemberID)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, profile)
}
