package tax

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/repo"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
)

// Repository loads the active tax settings row.
type Repository struct {
	repo.Base
}

// NewRepository builds a tax repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ActiveSettings returns the single active settings row, or nil when none is
// configured so callers can degrade to DefaultSettings.
func (r *Repository) ActiveSettings(ctx context.Context) (*models.TaxSettings, error) {
	var settings models.TaxSettings
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

// SettingsFromModel converts a persisted row into calculator settings.
func SettingsFromModel(row *models.TaxSettings) Settings {
	return Settings{
		TaxEnabled:       row.TaxEnabled,
		DefaultRate:      row.DefaultGSTRate,
		PriceIncludesTax: row.PriceIncludesTax,
		StoreState:       row.StoreState,
	}
}
