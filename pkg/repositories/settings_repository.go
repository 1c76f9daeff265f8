package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pulseboard/engine/pkg/models"
)

// SettingsRepository persists the single application settings document.
type SettingsRepository interface {
	Load(ctx context.Context) (*models.AppSettings, error)
	Save(ctx context.Context, settings *models.AppSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Load returns the stored settings, or defaults when none have been saved yet.
func (r *settingsRepository) Load(ctx context.Context) (*models.AppSettings, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM settings WHERE id = 1").Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal([]byte(payload), settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *models.AppSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, payload, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), toMillis(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

var _ SettingsRepository = (*settingsRepository)(nil)
