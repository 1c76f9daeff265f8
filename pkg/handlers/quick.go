package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/services"
)

// QuickHandler handles quick diary capture and the draft lifecycle.
type QuickHandler struct {
	router services.QuickEntryService
	logger *zap.Logger
}

// NewQuickHandler creates a new quick-entry handler.
func NewQuickHandler(router services.QuickEntryService, logger *zap.Logger) *QuickHandler {
	return &QuickHandler{router: router, logger: logger}
}

// RegisterRoutes registers the quick-entry handler's routes on the given mux.
func (h *QuickHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/diaries/quick", h.ListDrafts)
	mux.HandleFunc("POST /api/diaries/quick", h.Submit)
	mux.HandleFunc("PUT /api/diaries/quick/{id}", h.Assign)
	mux.HandleFunc("DELETE /api/diaries/quick/{id}", h.DeleteDraft)
	mux.HandleFunc("POST /api/diaries/quick/{id}/classify", h.Classify)
}

// ListDrafts handles GET /api/diaries/quick.
func (h *QuickHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.router.ListDrafts(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	if drafts == nil {
		drafts = []*models.DiaryDraft{}
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"drafts": drafts})
}

type quickSubmitRequest struct {
	Content           string   `json:"content"`
	MentionMemberIDs  []string `json:"mentionMemberIds"`
	MentionCompanyIDs []string `json:"mentionCompanyIds"`
}

// Submit handles POST /api/diaries/quick: route the entry to a member or
// store it as a draft.
func (h *QuickHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req quickSubmitRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	result, err := h.router.RouteQuickEntry(r.Context(), req.Content, req.MentionMemberIDs, req.MentionCompanyIDs)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, result)
}

type assignRequest struct {
	MemberIDs []string `json:"memberIds"`
	// MemberID is the pre-fan-out request shape, still accepted.
	MemberID string `json:"memberId"`
}

// Assign handles PUT /api/diaries/quick/{id}: fan the draft out to one or
// more members and delete it.
func (h *QuickHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	memberIDs := req.MemberIDs
	if len(memberIDs) == 0 && req.MemberID != "" {
		memberIDs = []string{req.MemberID}
	}

	entries, err := h.router.AssignDraft(r.Context(), r.PathValue("id"), memberIDs)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"status":  "assigned",
		"entries": entries,
	})
}

// DeleteDraft handles DELETE /api/diaries/quick/{id}. Deleting an unknown
// draft still succeeds.
func (h *QuickHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.router.DeleteDraft(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}

// Classify handles POST /api/diaries/quick/{id}/classify: force a fresh
// classification attempt on a stored draft.
func (h *QuickHandler) Classify(w http.ResponseWriter, r *http.Request) {
	result, err := h.router.ClassifyDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, result)
}
