package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/engine/pkg/models"
)

// countingSettingsRepo tracks Load calls to observe cache behavior.
type countingSettingsRepo struct {
	loads    int
	settings *models.AppSettings
}

func (r *countingSettingsRepo) Load(context.Context) (*models.AppSettings, error) {
	r.loads++
	return r.settings, nil
}

func (r *countingSettingsRepo) Save(_ context.Context, s *models.AppSettings) error {
	r.settings = s
	return nil
}

func TestSettingsProvider_CachesWithinTTL(t *testing.T) {
	repo := &countingSettingsRepo{settings: models.DefaultSettings()}
	provider := NewSettingsProvider(repo, time.Hour)
	ctx := context.Background()

	_, err := provider.Current(ctx)
	require.NoError(t, err)
	_, err = provider.Current(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.loads)
}

func TestSettingsProvider_ExpiredTTLReloads(t *testing.T) {
	repo := &countingSettingsRepo{settings: models.DefaultSettings()}
	provider := NewSettingsProvider(repo, time.Nanosecond)
	ctx := context.Background()

	_, err := provider.Current(ctx)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = provider.Current(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.loads)
}

func TestSettingsProvider_SaveRefreshesCache(t *testing.T) {
	repo := &countingSettingsRepo{settings: models.DefaultSettings()}
	provider := NewSettingsProvider(repo, time.Hour)
	ctx := context.Background()

	updated := models.DefaultSettings()
	updated.Ollama.PrimaryModel = "llama3.1:8b"
	require.NoError(t, provider.Save(ctx, updated))

	current, err := provider.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1:8b", current.Ollama.PrimaryModel)
	assert.Equal(t, 0, repo.loads, "fresh save must serve from cache")
}

func TestSettingsProvider_Invalidate(t *testing.T) {
	repo := &countingSettingsRepo{settings: models.DefaultSettings()}
	provider := NewSettingsProvider(repo, time.Hour)
	ctx := context.Background()

	_, err := provider.Current(ctx)
	require.NoError(t, err)

	provider.Invalidate()
	_, err = provider.Current(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, repo.loads)
}
