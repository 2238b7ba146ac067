package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
)

// Campaign is a promotional offer configured by an operator. The engine only
// ever reads campaigns; carts never mutate them.
type Campaign struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string               `gorm:"column:name;not null"`
	Priority      int                  `gorm:"column:priority;not null;default:0"`
	Status        enums.CampaignStatus `gorm:"column:status;type:campaign_status;not null;default:'inactive'"`
	DiscountType  enums.DiscountType   `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue decimal.Decimal      `gorm:"column:discount_value;type:numeric(12,2);not null"`

	// Condition columns; NULL means the condition is not declared.
	MinSubtotalPaise *int64         `gorm:"column:min_subtotal_paise"`
	MinQuantity      *int           `gorm:"column:min_quantity"`
	ProductScope     pq.StringArray `gorm:"column:product_scope;type:text[]"`

	StartsAt  *time.Time `gorm:"column:starts_at"`
	EndsAt    *time.Time `gorm:"column:ends_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
