package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pulseboard/engine/pkg/database"
	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
	"github.com/pulseboard/engine/pkg/services"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedCompany(t *testing.T, repo repositories.CompanyRepository, id, name string) *models.Company {
	t.Helper()
	company := &models.Company{ID: id, Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Upsert(context.Background(), company))
	return company
}

func seedMember(t *testing.T, repo repositories.MemberRepository, id, companyID, name string) *models.TeamMember {
	t.Helper()
	member := &models.TeamMember{
		ID:          id,
		CompanyID:   companyID,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(context.Background(), member))
	return member
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// noopSearch satisfies services.SearchService for handlers that only need
// EmbedEntry side effects.
type noopSearch struct {
	results []services.SearchResult
	err     error
	queries []string
	limits  []int
	embeds  int
}

func (s *noopSearch) Search(ctx context.Context, query string, limit int) ([]services.SearchResult, error) {
	s.queries = append(s.queries, query)
	s.limits = append(s.limits, limit)
	return s.results, s.err
}

func (s *noopSearch) EmbedEntry(ctx context.Context, entry *models.DiaryEntry) {
	s.embeds++
}
