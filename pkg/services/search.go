package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pulseboard/engine/pkg/apperrors"
	"github.com/pulseboard/engine/pkg/llm"
	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// SearchResult pairs a diary entry with its similarity to the query.
type SearchResult struct {
	Entry *models.DiaryEntry `json:"entry"`
	Score float64            `json:"score"`
}

// SearchService ranks diary entries against a free-text query using the
// configured embedding model.
type SearchService interface {
	// Search embeds the query and returns up to limit entries ordered by
	// cosine similarity. Entries without a stored embedding are skipped.
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)

	// EmbedEntry computes and stores the entry's embedding. Best effort:
	// failures are logged, never propagated, so entry writes always succeed.
	EmbedEntry(ctx context.Context, entry *models.DiaryEntry)
}

type searchService struct {
	diaryRepo repositories.DiaryRepository
	factory   llm.Factory
	settings  SettingsProvider
	logger    *zap.Logger
}

// NewSearchService creates the semantic search service.
func NewSearchService(diaryRepo repositories.DiaryRepository, factory llm.Factory, settings SettingsProvider, logger *zap.Logger) SearchService {
	return &searchService{
		diaryRepo: diaryRepo,
		factory:   factory,
		settings:  settings,
		logger:    logger,
	}
}

// DefaultSearchLimit bounds result counts when the caller does not specify.
const DefaultSearchLimit = 20

func (s *searchService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: query is required", apperrors.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	client := s.factory(settings.Ollama.Host)
	queryVector, err := client.Embed(ctx, settings.Ollama.EmbeddingModel, trimmed)
	if err != nil {
		return nil, err
	}

	stored, err := s.diaryRepo.ListWithEmbeddings(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(stored))
	for _, item := range stored {
		score := cosineSimilarity(queryVector, item.Vector)
		if math.IsNaN(score) {
			continue
		}
		results = append(results, SearchResult{Entry: item.Entry, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *searchService) EmbedEntry(ctx context.Context, entry *models.DiaryEntry) {
	settings, err := s.settings.Current(ctx)
	if err != nil {
		s.logger.Warn("skipping embedding, settings unavailable", zap.Error(err))
		return
	}

	client := s.factory(settings.Ollama.Host)
	vector, err := client.Embed(ctx, settings.Ollama.EmbeddingModel, entry.Content)
	if err != nil {
		s.logger.Warn("embedding failed", zap.String("entry_id", entry.ID), zap.Error(err))
		return
	}

	if err := s.diaryRepo.SetEmbedding(ctx, entry.ID, vector); err != nil {
		s.logger.Warn("storing embedding failed", zap.String("entry_id", entry.ID), zap.Error(err))
	}
}

// cosineSimilarity returns NaN for mismatched or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.NaN()
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

var _ SearchService = (*searchService)(nil)
