package services

import (
	"context"
	"sync"
	"time"

	"github.com/pulseboard/engine/pkg/models"
	"github.com/pulseboard/engine/pkg/repositories"
)

// SettingsProvider serves application settings with a bounded staleness
// window so hot paths don't hit the database on every request.
type SettingsProvider interface {
	Current(ctx context.Context) (*models.AppSettings, error)
	Save(ctx context.Context, settings *models.AppSettings) error
	Invalidate()
}

type settingsProvider struct {
	repo repositories.SettingsRepository
	ttl  time.Duration

	mu      sync.Mutex
	cached  *models.AppSettings
	fetched time.Time
}

// NewSettingsProvider creates a provider caching reads for ttl.
func NewSettingsProvider(repo repositories.SettingsRepository, ttl time.Duration) SettingsProvider {
	return &settingsProvider{repo: repo, ttl: ttl}
}

func (p *settingsProvider) Current(ctx context.Context) (*models.AppSettings, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && time.Since(p.fetched) < p.ttl {
		return p.cached, nil
	}

	settings, err := p.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	p.cached = settings
	p.fetched = time.Now()
	return settings, nil
}

// Save persists the settings and refreshes the cache so the next read sees
// the new values immediately.
func (p *settingsProvider) Save(ctx context.Context, settings *models.AppSettings) error {
	if err := p.repo.Save(ctx, settings); err != nil {
		return err
	}

	p.mu.Lock()
	p.cached = settings
	p.fetched = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *settingsProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

var _ SettingsProvider = (*settingsProvider)(nil)
