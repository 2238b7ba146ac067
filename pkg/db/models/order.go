package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

// Order is the only entity the engine mutates over time. Pricing outcomes are
// snapshotted at creation; afterwards only the status columns move.
type Order struct {
	ID                 uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber        int64                  `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerState      string                 `gorm:"column:customer_state;not null"`
	CustomerPostalCode string                 `gorm:"column:customer_postal_code;not null"`
	SubtotalPaise      int64                  `gorm:"column:subtotal_paise;not null"`
	DiscountPaise      int64                  `gorm:"column:discount_paise;not null;default:0"`
	ShippingPaise      int64                  `gorm:"column:shipping_paise;not null;default:0"`
	TaxPaise           int64                  `gorm:"column:tax_paise;not null;default:0"`
	TotalPaise         int64                  `gorm:"column:total_paise;not null"`
	Campaign           *types.AppliedCampaign `gorm:"column:campaign;type:jsonb;serializer:json"`
	TaxBreakdown       *types.TaxBreakdown    `gorm:"column:tax_breakdown;type:jsonb;serializer:json"`
	ShippingCharge     *types.ShippingCharge  `gorm:"column:shipping_charge;type:jsonb;serializer:json"`
	PaymentMethod      enums.PaymentMethod    `gorm:"column:payment_method;type:payment_method;not null;default:'gateway'"`
	PaymentStatus      enums.PaymentStatus    `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	OrderStatus        enums.OrderStatus      `gorm:"column:order_status;type:order_status;not null;default:'pending'"`
	GatewayOrderID     *string                `gorm:"column:gateway_order_id;uniqueIndex"`
	GatewayPaymentID   *string                `gorm:"column:gateway_payment_id"`
	TrackingNumber     *string                `gorm:"column:tracking_number"`
	TrackingCourier    *string                `gorm:"column:tracking_courier"`
	ShippedAt          *time.Time             `gorm:"column:shipped_at"`
	EstimatedDelivery  *time.Time             `gorm:"column:estimated_delivery"`
	CancelledAt        *time.Time             `gorm:"column:cancelled_at"`
	ExpiredAt          *time.Time             `gorm:"column:expired_at"`
	Items              []OrderItem            `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
