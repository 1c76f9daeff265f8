package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
	"github.com/pulseboard/engine/pkg/services"
)

// DiariesHandler handles diary entry CRUD and search requests.
type DiariesHandler struct {
	diaries repositories.DiaryRepository
	members repositories.MemberRepository
	search  services.SearchService
	logger  *zap.Logger
}

// NewDiariesHandler creates a new diaries handler.
func NewDiariesHandler(diaries repositories.DiaryRepository, members repositories.MemberRepository, search services.SearchService, logger *zap.Logger) *DiariesHandler {
	return &DiariesHandler{
		diaries: diaries,
		members: members,
		search:  search,
		logger:  logger,
	}
}

// RegisterRoutes registers the diaries handler's routes on the given mux.
func (h *DiariesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/diaries", h.List)
	mux.HandleFunc("POST /api/diaries", h.Create)
	mux.HandleFunc("GET /api/diaries/search", h.Search)
	mux.HandleFunc("GET /api/diaries/{id}", h.Get)
	mux.HandleFunc("PUT /api/diaries/{id}", h.Update)
	mux.HandleFunc("DELETE /api/diaries/{id}", h.Delete)
}

// List handles GET /api/diaries, optionally scoped by ?memberId=. Entries
// come back newest first.
func (h *DiariesHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		entries []*models.DiaryEntry
		err     error
	)
	if memberID := r.URL.Query().Get("memberId"); memberID != "" {
		entries, err = h.diaries.ListByMember(r.Context(), memberID)
	} else {
		entries, err = h.diaries.List(r.Context())
	}
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	if entries == nil {
		entries = []*models.DiaryEntry{}
	}
	writeJSON(h.logger, w, http.StatusOK, entries)
}

// Create handles POST /api/diaries. The member must exist; the entry's
// CompanyID is stamped from the member, never taken from the request.
func (h *DiariesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var entry models.DiaryEntry
	if !decodeJSON(h.logger, w, r, &entry) {
		return
	}

	if strings.TrimSpace(entry.Content) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "content_required", "content is required")
		return
	}
	if strings.TrimSpace(entry.MemberID) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "member_id_required", "memberId is required")
		return
	}

	member, err := h.members.Get(r.Context(), entry.MemberID)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CompanyID = member.CompanyID

	if err := h.diaries.Upsert(r.Context(), &entry); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	h.search.EmbedEntry(r.Context(), &entry)

	writeJSON(h.logger, w, http.StatusCreated, &entry)
}

// diaryWithHTML augments an entry with its rendered markdown.
type diaryWithHTML struct {
	*models.DiaryEntry
	ContentHTML string `json:"contentHtml"`
}

// Get handles GET /api/diaries/{id}. With ?render=html the response carries
// the goldmark-rendered content alongside the raw markdown.
func (h *DiariesHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.diaries.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	if r.URL.Query().Get("render") == "html" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(entry.Content), &buf); err != nil {
			h.logger.Warn("markdown rendering failed", zap.String("entry_id", entry.ID), zap.Error(err))
			writeJSON(h.logger, w, http.StatusOK, entry)
			return
		}
		writeJSON(h.logger, w, http.StatusOK, diaryWithHTML{DiaryEntry: entry, ContentHTML: buf.String()})
		return
	}

	writeJSON(h.logger, w, http.StatusOK, entry)
}

// Update handles PUT /api/diaries/{id}.
func (h *DiariesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.diaries.Get(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}

	entry := *existing
	if !decodeJSON(h.logger, w, r, &entry) {
		return
	}
	entry.ID = id
	entry.MemberID = existing.MemberID
	entry.CompanyID = existing.CompanyID
	entry.CreatedAt = existing.CreatedAt

	if strings.TrimSpace(entry.Content) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "content_required", "content is required")
		return
	}

	if err := h.diaries.Upsert(r.Context(), &entry); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	h.search.EmbedEntry(r.Context(), &entry)

	writeJSON(h.logger, w, http.StatusOK, &entry)
}

// Delete handles DELETE /api/diaries/{id}.
func (h *DiariesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.diaries.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}

// Search handles GET /api/diaries/search?q=&limit=.
func (h *DiariesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(h.logger, w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	results, err := h.search.Search(r.Context(), query, limit)
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	if results == nil {
		results = []services.SearchResult{}
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]interface{}{"results": results})
}
