package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/services"
)

type mockGeneration struct {
	fieldContent string
	fieldErr     error
	lastField    string
	profile      *services.CompanyProfile
	profileErr   error
	member       *services.MemberProfile
	memberErr    error
	lastMemberID string
}

func (m *mockGeneration) GenerateCompanyField(ctx context.Context, field, companyName string, existing map[string]string) (string, error) {
	m.lastField = field
	return m.fieldContent, m.fieldErr
}

func (m *mockGeneration) GenerateCompanyProfile(ctx context.Context, companyName string, existing map[string]string) (*services.CompanyProfile, error) {
	return m.profile, m.profileErr
}

func (m *mockGeneration) GenerateMemberProfile(ctx context.Context, memberID string) (*services.MemberProfile, error) {
	m.lastMemberID = memberID
	return m.member, m.memberErr
}

var _ services.GenerationService = (*mockGeneration)(nil)

func generateMux(generation *mockGeneration) *http.ServeMux {
	mux := http.NewServeMux()
	NewGenerateHandler(generation, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestGenerateHandler_CompanyField(t *testing.T) {
	generation := &mockGeneration{fieldContent: "We value shipping."}
	mux := generateMux(generation)

	rec := doJSON(t, mux, http.MethodPost, "/api/generate/company", map[string]string{
		"field":       "values",
		"companyName": "Acme Corp",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "We value shipping.", body["content"])
	assert.Equal(t, "values", generation.lastField)
}

func TestGenerateHandler_CompanyAll(t *testing.T) {
	generation := &mockGeneration{
		profile: &services.CompanyProfile{
			Values:         "v",
			Themes:         "t",
			DecisionMaking: "d",
			Culture:        "c",
		},
	}
	mux := generateMux(generation)

	rec := doJSON(t, mux, http.MethodPost, "/api/generate/company", map[string]string{
		"field":       "all",
		"companyName": "Acme Corp",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decodeBody[services.CompanyProfile](t, rec)
	assert.Equal(t, "v", profile.Values)
	assert.Equal(t, "c", profile.Culture)
}

func TestGenerateHandler_GuidancePassThrough(t *testing.T) {
	generation := &mockGeneration{
		fieldErr: &apperrors.Guidance{
			Status:  http.StatusServiceUnavailable,
			Code:    "ollama_unreachable",
			Message: "Cannot connect to Ollama",
			Fix:     "Start Ollama by running \"ollama serve\" in a terminal, then try again.",
		},
	}
	mux := generateMux(generation)

	rec := doJSON(t, mux, http.MethodPost, "/api/generate/company", map[string]string{
		"field":       "values",
		"companyName": "Acme Corp",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "Cannot connect to Ollama", body["error"])
	assert.Contains(t, body["fix"], "ollama serve")
}

func TestGenerateHandler_MemberProfile(t *testing.T) {
	generation := &mockGeneration{
		member: &services.MemberProfile{
			Influence:   "High",
			Superpowers: []string{"shipping"},
		},
	}
	mux := generateMux(generation)

	rec := doJSON(t, mux, http.MethodPost, "/api/generate/member-profile", map[string]string{
		"memberId": "m1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	profile := decodeBody[services.MemberProfile](t, rec)
	assert.Equal(t, "High", profile.Influence)
	assert.Equal(t, "m1", generation.lastMemberID)
}

func TestGenerateHandler_MemberProfileRequiresID(t *testing.T) {
	mux := generateMux(&mockGeneration{})

	rec := doJSON(t, mux, http.MethodPost, "/api/generate/member-profile", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "member_id_required", decodeBody[map[string]string](t, rec)["error"])
}
