package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/repositories"
	"github.com/pulseboard/engine/pkg/services"
)

// MentionsHandler resolves handle mentions in free text against the current
// roster so clients don't have to duplicate the scan.
type MentionsHandler struct {
	members   repositories.MemberRepository
	companies repositories.CompanyRepository
	logger    *zap.Logger
}

// NewMentionsHandler creates a new mentions handler.
func NewMentionsHandler(members repositories.MemberRepository, companies repositories.CompanyRepository, logger *zap.Logger) *MentionsHandler {
	return &MentionsHandler{members: members, companies: companies, logger: logger}
}

// RegisterRoutes registers the mentions handler's routes on the given mux.
func (h *MentionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/mentions/analyze", h.Analyze)
	mux.HandleFunc("GET /api/mentions/roster", h.Roster)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze handles POST /api/mentions/analyze.
func (h *MentionsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	roster, err := h.loadRoster(r)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	writeJSON(h.logger, w, http.StatusOK, roster.AnalyzeMentions(req.Text))
}

// rosterEntry is one suggestable handle.
type rosterEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Handle string `json:"handle"`
	Kind   string `json:"kind"`
}

// Roster handles GET /api/mentions/roster: the current handle list for
// autocomplete.
func (h *MentionsHandler) Roster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.loadRoster(r)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	entries := []rosterEntry{}
	for _, member := range roster.MemberHandles {
		entries = append(entries, rosterEntry{
			ID:     member.ID,
			Name:   member.DisplayName,
			Handle: roster.MemberHandle(member.ID),
			Kind:   "member",
		})
	}
	for _, company := range roster.CompanyHandles {
		entries = append(entries, rosterEntry{
			ID:     company.ID,
			Name:   company.Name,
			Handle: roster.CompanyHandle(company.ID),
			Kind:   "company",
		})
	}

	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"handles": entries})
}

func (h *MentionsHandler) loadRoster(r *http.Request) (*services.Roster, error) {
	members, err := h.members.List(r.Context())
	if err != nil {
		return nil, err
	}
	companies, err := h.companies.List(r.Context())
	if err != nil {
		return nil, err
	}
	return services.BuildRoster(members, companies), nil
}
