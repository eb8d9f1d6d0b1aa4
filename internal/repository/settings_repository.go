package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrSettingsNotFound = errors.New("store settings not found")
)

// SettingsRepository handles the single store_settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.StoreSettings, error)
	Upsert(ctx context.Context, settings *domain.StoreSettings) error
}

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

// Get retrieves the settings row
func (r *settingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	query := `
		SELECT id, store_name, currency, support_email, announcement, updated_at
		FROM store_settings
		LIMIT 1
	`

	settings := &domain.StoreSettings{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&settings.ID,
		&settings.StoreName,
		&settings.Currency,
		&settings.SupportEmail,
		&settings.Announcement,
		&settings.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get store settings: %w", err)
	}

	return settings, nil
}

// Upsert updates the settings row, inserting it when the store has
// never been configured.
func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.StoreSettings) error {
	existing, err := r.Get(ctx)
	if err != nil && err != ErrSettingsNotFound {
		return err
	}

	now := time.Now()

	if existing == nil {
		query := `
			INSERT INTO store_settings (id, store_name, currency, support_email, announcement, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = r.db.ExecContext(ctx, query, uuid.New(), settings.StoreName, settings.Currency, settings.SupportEmail, settings.Announcement, now)
		if err != nil {
			return fmt.Errorf("failed to insert store settings: %w", err)
		}
		return nil
	}

	query := `
		UPDATE store_settings
		SET store_name = $2, currency = $3, support_email = $4, announcement = $5, updated_at = $6
		WHERE id = $1
	`
	_, err = r.db.ExecContext(ctx, query, existing.ID, settings.StoreName, settings.Currency, settings.SupportEmail, settings.Announcement, now)
	if err != nil {
		return fmt.Errorf("failed to update store settings: %w", err)
	}

	return nil
}
