package campaigns

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/arunmurugan-dev/kadai-backend/internal/repo"
	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
)

// Repository loads campaign configuration for the evaluator.
type Repository struct {
	repo.Base
}

// NewRepository builds a campaigns repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListLive returns active campaigns whose validity window contains now. The
// evaluator re-checks the window so callers may cache this list briefly.
func (r *Repository) ListLive(ctx context.Context, now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.DB(ctx).
		Where("status = ?", enums.CampaignStatusActive).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("created_at ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}
