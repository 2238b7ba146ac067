package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingRule is a zone-tiered shipping rate. A NULL MaxQuantity means the
// tier is open-ended ("and above").
type ShippingRule struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Zone        string     `gorm:"column:zone;not null"`
	Provider    string     `gorm:"column:provider;not null"`
	MinQuantity int        `gorm:"column:min_quantity;not null;default:0"`
	MaxQuantity *int       `gorm:"column:max_quantity"`
	RatePaise   int64      `gorm:"column:rate_paise;not null"`
	IsEnabled   bool       `gorm:"column:is_enabled;not null;default:true"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
