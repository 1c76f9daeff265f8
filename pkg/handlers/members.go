package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// MembersHandler handles team member CRUD requests.
type MembersHandler struct {
	members repositories.MemberRepository
	logger  *zap.Logger
}

// NewMembersHandler creates a new members handler.
func NewMembersHandler(members repositories.MemberRepository, logger *zap.Logger) *MembersHandler {
	return &MembersHandler{members: members, logger: logger}
}

// RegisterRoutes registers the members handler's routes on the given mux.
func (h *MembersHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/members", h.List)
	mux.HandleFunc("POST /api/members", h.Create)
	mux.HandleFunc("GET /api/members/{id}", h.Get)
	mux.HandleFunc("PUT /api/members/{id}", h.Update)
	mux.HandleFunc("DELETE /api/members/{id}", h.Delete)
}

// List handles GET /api/members, optionally scoped by ?companyId=.
func (h *MembersHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		members []*models.TeamMember
		err     error
	)
	if companyID := r.URL.Query().Get("companyId"); companyID != "" {
		members, err = h.members.ListByCompany(r.Context(), companyID)
	} else {
		members, err = h.members.List(r.Context())
	}
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	if members == nil {
		members = []*models.TeamMember{}
	}
	writeJSON(h.logger, w, http.StatusOK, members)
}

// Create handles POST /api/members.
func (h *MembersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var member models.TeamMember
	if !decodeJSON(h.logger, w, r, &member) {
		return
	}

	if strings.TrimSpace(member.DisplayName) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "display_name_required", "displayName is required")
		return
	}
	if strings.TrimSpace(member.CompanyID) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "company_id_required", "companyId is required")
		return
	}
	if member.ID == "" {
		member.ID = uuid.New().String()
	}

	if err := h.members.Upsert(r.Context(), &member); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, &member)
}

// Get handles GET /api/members/{id}.
func (h *MembersHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, err := h.members.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, member)
}

// Update handles PUT /api/members/{id}. Supplied fields replace the stored
// record; the member must already exist.
func (h *MembersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.members.Get(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	member := *existing
	if !decodeJSON(h.logger, w, r, &member) {
		return
	}
	member.ID = id
	member.CreatedAt = existing.CreatedAt

	if strings.TrimSpace(member.DisplayName) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "display_name_required", "displayName is required")
		return
	}

	if err := h.members.Upsert(r.Context(), &member); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, &member)
}

// Delete handles DELETE /api/members/{id}.
func (h *MembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.members.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}
