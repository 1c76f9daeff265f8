package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// CompaniesHandler handles company CRUD requests.
type CompaniesHandler struct {
	companies repositories.CompanyRepository
	logger    *zap.Logger
}

// NewCompaniesHandler creates a new companies handler.
func NewCompaniesHandler(companies repositories.CompanyRepository, logger *zap.Logger) *CompaniesHandler {
	return &CompaniesHandler{companies: companies, logger: logger}
}

// RegisterRoutes registers the companies handler's routes on the given mux.
func (h *CompaniesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/companies", h.List)
	mux.HandleFunc("POST /api/companies", h.Create)
	mux.HandleFunc("GET /api/companies/{id}", h.Get)
	mux.HandleFunc("PUT /api/companies/{id}", h.Update)
	mux.HandleFunc("DELETE /api/companies/{id}", h.Delete)
}

// List handles GET /api/companies.
func (h *CompaniesHandler) List(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	if companies == nil {
		companies = []*models.Company{}
	}
	writeJSON(h.logger, w, http.StatusOK, companies)
}

// Create handles POST /api/companies.
func (h *CompaniesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var company models.Company
	if !decodeJSON(h.logger, w, r, &company) {
		return
	}

	if strings.TrimSpace(company.Name) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "name_required", "Company name is required")
		return
	}
	if company.ID == "" {
		company.ID = uuid.New().String()
	}

	if err := h.companies.Upsert(r.Context(), &company); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusCreated, &company)
}

// Get handles GET /api/companies/{id}.
func (h *CompaniesHandler) Get(w http.ResponseWriter, r *http.Request) {
	company, err := h.companies.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, company)
}

// Update handles PUT /api/companies/{id}. The stored record's CreatedAt is
// preserved; unknown ids create the company under the given id.
func (h *CompaniesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var company models.Company
	if !decodeJSON(h.logger, w, r, &company) {
		return
	}

	if strings.TrimSpace(company.Name) == "" {
		writeError(h.logger, w, http.StatusBadRequest, "name_required", "Company name is required")
		return
	}

	id := r.PathValue("id")
	company.ID = id

	if existing, err := h.companies.Get(r.Context(), id); err == nil {
		company.CreatedAt = existing.CreatedAt
	}

	if err := h.companies.Upsert(r.Context(), &company); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, &company)
}

// Delete handles DELETE /api/companies/{id}. Members and diaries referencing
// the company are left in place.
func (h *CompaniesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.companies.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(h.logger, w, err)
		return
	}
	writeJSON(h.logger, w, http.StatusOK, map[string]bool{"success": true})
}
