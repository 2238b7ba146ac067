package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/repo"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
)

// Repository loads shipping rule configuration.
type Repository struct {
	repo.Base
}

// NewRepository builds a shipping repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListEnabled returns enabled rules in insertion order, which doubles as the
// tie-break order during matching.
func (r *Repository) ListEnabled(ctx context.Context) ([]models.ShippingRule, error) {
	var rules []models.ShippingRule
	err := r.DB(ctx).
		Where("is_enabled = ?", true).
		Order("created_at ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
