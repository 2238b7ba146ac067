package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxSettings is the single active GST configuration row. When no row exists
// the calculator falls back to 18% tax-exclusive defaults.
type TaxSettings struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TaxEnabled       bool            `gorm:"column:tax_enabled;not null;default:true"`
	DefaultGSTRate   decimal.Decimal `gorm:"column:default_gst_rate;type:numeric(5,2);not null"`
	PriceIncludesTax bool            `gorm:"column:price_includes_tax;not null;default:false"`
	StoreState       string          `gorm:"column:store_state;not null"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
