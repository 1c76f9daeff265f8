package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/database"
	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

type generationFixture struct {
	svc       GenerationService
	mock      *llm.MockClient
	members   repositories.MemberRepository
	companies repositories.CompanyRepository
	diaries   repositories.DiaryRepository
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()

	db, err := database.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &generationFixture{
		mock:      llm.NewMockClient(),
		members:   repositories.NewMemberRepository(db),
		companies: repositories.NewCompanyRepository(db),
		diaries:   repositories.NewDiaryRepository(db),
	}
	settings := NewSettingsProvider(repositories.NewSettingsRepository(db), time.Minute)
	factory := func(string) llm.Client { return f.mock }
	f.svc = NewGenerationService(f.members, f.companies, f.diaries, factory, settings, zap.NewNop())
	return f
}

func TestGenerateCompanyField(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ChatFunc = func(_ context.Context, _ string, messages []llm.Message) (string, error) {
		assert.Contains(t, messages[1].Content, `core company values for "Acme"`)
		return "  We value shipping.  ", nil
	}

	content, err := f.svc.GenerateCompanyField(context.Background(), "values", "Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "We value shipping.", content)
}

func TestGenerateCompanyField_ExistingContext(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ChatFunc = func(_ context.Context, _ string, messages []llm.Message) (string, error) {
		assert.Contains(t, messages[1].Content, "Existing context:")
		assert.Contains(t, messages[1].Content, "Move fast")
		return "ok", nil
	}

	_, err := f.svc.GenerateCompanyField(context.Background(), "culture", "Acme", map[string]string{"values": "Move fast"})
	require.NoError(t, err)
}

func TestGenerateCompanyField_MissingName(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.svc.GenerateCompanyField(context.Background(), "values", " ", nil)
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, guidance.Status)
	assert.Equal(t, 0, f.mock.ChatCalls)
}

func TestGenerateCompanyField_UnknownField(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.svc.GenerateCompanyField(context.Background(), "mascot", "Acme", nil)
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, guidance.Status)
}

func TestGenerateCompanyField_OllamaUnreachable(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ListModelsFunc = func(context.Context) ([]string, error) {
		return nil, llm.ErrUnreachable
	}

	_, err := f.svc.GenerateCompanyField(context.Background(), "values", "Acme", nil)
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, guidance.Status)
	assert.Contains(t, guidance.Fix, "ollama serve")
}

func TestGenerateCompanyField_ModelNotFound(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ChatFunc = func(context.Context, string, []llm.Message) (string, error) {
		return "", llm.ErrModelNotFound
	}

	_, err := f.svc.GenerateCompanyField(context.Background(), "values", "Acme", nil)
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, guidance.Status)
	assert.Contains(t, guidance.Fix, "ollama pull qwen2.5:14b")
}

func TestGenerateCompanyProfile(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ChatFunc = func(context.Context, string, []llm.Message) (string, error) {
		return "```json\n{\"values\":\"v\",\"themes\":\"t\",\"decisionMaking\":\"d\",\"culture\":\"c\"}\n```", nil
	}

	profile, err := f.svc.GenerateCompanyProfile(context.Background(), "Acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", profile.Values)
	assert.Equal(t, "c", profile.Culture)
}

func TestGenerateCompanyProfile_ParseFailure(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ChatFunc = func(context.Context, string, []llm.Message) (string, error) {
		return "not json at all", nil
	}

	_, err := f.svc.GenerateCompanyProfile(context.Background(), "Acme", nil)
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, guidance.Status)
	assert.Contains(t, guidance.Fix, "individual field")
}

func (f *generationFixture) seedMemberWithDiaries(t *testing.T, entries int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.companies.Upsert(ctx, &models.Company{ID: "c1", Name: "Acme", Values: "Ship it", Themes: "Infra"}))
	require.NoError(t, f.members.Upsert(ctx, &models.TeamMember{ID: "m1", CompanyID: "c1", DisplayName: "Bob Smith", Role: "Engineer"}))
	require.NoError(t, f.members.Upsert(ctx, &models.TeamMember{ID: "m2", CompanyID: "c1", DisplayName: "Dana Wu"}))

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < entries; i++ {
		require.NoError(t, f.diaries.Upsert(ctx, &models.DiaryEntry{
			ID: "own-" + string(rune('a'+i)), MemberID: "m1", CompanyID: "c1",
			Content: "own work", Timestamp: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, f.diaries.Upsert(ctx, &models.DiaryEntry{
		ID: "team-1", MemberID: "m2", CompanyID: "c1", Content: "dana work", Timestamp: base,
	}))
}

func TestGenerateMemberProfile(t *testing.T) {
	f := newGenerationFixture(t)
	f.seedMemberWithDiaries(t, 2)

	f.mock.ChatFunc = func(_ context.Context, _ string, messages []llm.Message) (string, error) {
		prompt := messages[1].Content
		assert.Contains(t, prompt, "Company: Acme")
		assert.Contains(t, prompt, "TEAM MEMBER: Bob Smith")
		assert.Contains(t, prompt, "own work")
		assert.Contains(t, prompt, "[Dana Wu] dana work")
		return `{"influence":"leads infra","projectImpacts":"shipped it","superpowers":["a","b","c","d","e","f"],"growthAreas":["g"]}`, nil
	}

	profile, err := f.svc.GenerateMemberProfile(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "leads infra", profile.Influence)
	assert.Len(t, profile.Superpowers, models.MaxProfileTraits)
	assert.Equal(t, []string{"g"}, profile.GrowthAreas)
}

func TestGenerateMemberProfile_NoDiaries(t *testing.T) {
	f := newGenerationFixture(t)
	f.seedMemberWithDiaries(t, 0)

	_, err := f.svc.GenerateMemberProfile(context.Background(), "m1")
	guidance, ok := apperrors.AsGuidance(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, guidance.Status)
	assert.Contains(t, guidance.Fix, "diary entries")
}

func TestGenerateMemberProfile_UnknownMember(t *testing.T) {
	f := newGenerationFixture(t)

	_, err := f.svc.GenerateMemberProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
