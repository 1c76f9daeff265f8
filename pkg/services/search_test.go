package services

import (
	"context"
	"math"
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

func newSearchFixture(t *testing.T, mock *llm.MockClient) (SearchService, repositories.DiaryRepository) {
	t.Helper()

	db, err := database.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	diaries := repositories.NewDiaryRepository(db)
	settings := NewSettingsProvider(repositories.NewSettingsRepository(db), time.Minute)
	factory := func(string) llm.Client { return mock }
	return NewSearchService(diaries, factory, settings, zap.NewNop()), diaries
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.True(t, math.IsNaN(cosineSimilarity([]float32{1}, []float32{1, 2})))
	assert.True(t, math.IsNaN(cosineSimilarity([]float32{0, 0}, []float32{1, 0})))
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	mock := llm.NewMockClient()
	mock.EmbedFunc = func(_ context.Context, _, input string) ([]float32, error) {
		return []float32{1, 0}, nil
	}

	svc, diaries := newSearchFixture(t, mock)
	ctx := context.Background()

	require.NoError(t, diaries.Upsert(ctx, &models.DiaryEntry{ID: "close", MemberID: "m1", CompanyID: "c1", Content: "a"}))
	require.NoError(t, diaries.Upsert(ctx, &models.DiaryEntry{ID: "far", MemberID: "m1", CompanyID: "c1", Content: "b"}))
	require.NoError(t, diaries.Upsert(ctx, &models.DiaryEntry{ID: "unembedded", MemberID: "m1", CompanyID: "c1", Content: "c"}))
	require.NoError(t, diaries.SetEmbedding(ctx, "close", []float32{0.9, 0.1}))
	require.NoError(t, diaries.SetEmbedding(ctx, "far", []float32{0.1, 0.9}))

	results, err := svc.Search(ctx, "a query", 10)
	require.NoError(t, err)
	require.Len(t, results, 2, "entries without embeddings are skipped")
	assert.Equal(t, "close", results[0].Entry.ID)
	assert.Equal(t, "far", results[1].Entry.ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc, _ := newSearchFixture(t, llm.NewMockClient())

	_, err := svc.Search(context.Background(), "  ", 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSearch_EmbedFailureSurfaces(t *testing.T) {
	mock := llm.NewMockClient()
	mock.EmbedFunc = func(context.Context, string, string) ([]float32, error) {
		return nil, assert.AnError
	}

	svc, _ := newSearchFixture(t, mock)
	_, err := svc.Search(context.Background(), "query", 10)
	assert.Error(t, err)
}

func TestEmbedEntry_BestEffort(t *testing.T) {
	mock := llm.NewMockClient()
	mock.EmbedFunc = func(context.Context, string, string) ([]float32, error) {
		return nil, assert.AnError
	}

	svc, diaries := newSearchFixture(t, mock)
	ctx := context.Background()

	entry := &models.DiaryEntry{ID: "d1", MemberID: "m1", CompanyID: "c1", Content: "x"}
	require.NoError(t, diaries.Upsert(ctx, entry))

	// Must not panic or affect the stored entry.
	svc.EmbedEntry(ctx, entry)

	stored, err := diaries.ListWithEmbeddings(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestEmbedEntry_StoresVector(t *testing.T) {
	mock := llm.NewMockClient()
	mock.EmbedFunc = func(context.Context, string, string) ([]float32, error) {
		return []float32{0.5, 0.5}, nil
	}

	svc, diaries := newSearchFixture(t, mock)
	ctx := context.Background()

	entry := &models.DiaryEntry{ID: "d1", MemberID: "m1", CompanyID: "c1", Content: "x"}
	require.NoError(t, diaries.Upsert(ctx, entry))
	svc.EmbedEntry(ctx, entry)

	stored, err := diaries.ListWithEmbeddings(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []float32{0.5, 0.5}, stored[0].Vector)
}
