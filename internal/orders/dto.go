package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

// OrderDetail is the read shape returned to storefront and admin callers.
type OrderDetail struct {
	ID                uuid.UUID              `json:"id"`
	OrderNumber       int64                  `json:"order_number"`
	SubtotalPaise     int64                  `json:"subtotal_paise"`
	DiscountPaise     int64                  `json:"discount_paise"`
	ShippingPaise     int64                  `json:"shipping_paise"`
	TaxPaise          int64                  `json:"tax_paise"`
	TotalPaise        int64                  `json:"total_paise"`
	Campaign          *types.AppliedCampaign `json:"campaign,omitempty"`
	TaxBreakdown      *types.TaxBreakdown    `json:"tax_breakdown,omitempty"`
	ShippingCharge    *types.ShippingCharge  `json:"shipping_charge,omitempty"`
	PaymentMethod     enums.PaymentMethod    `json:"payment_method"`
	PaymentStatus     enums.PaymentStatus    `json:"payment_status"`
	OrderStatus       enums.OrderStatus      `json:"order_status"`
	TrackingNumber    *string                `json:"tracking_number,omitempty"`
	TrackingCourier   *string                `json:"tracking_courier,omitempty"`
	ShippedAt         *time.Time             `json:"shipped_at,omitempty"`
	EstimatedDelivery *time.Time             `json:"estimated_delivery,omitempty"`
	Items             []OrderItemDetail      `json:"items"`
	CreatedAt         time.Time              `json:"created_at"`
}

// OrderItemDetail is the line item read shape.
type OrderItemDetail struct {
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	UnitPricePaise int64      `json:"unit_price_paise"`
	TotalPaise     int64      `json:"total_paise"`
}

func detailFromModel(order *models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:                order.ID,
		OrderNumber:       order.OrderNumber,
		SubtotalPaise:     order.SubtotalPaise,
		DiscountPaise:     order.DiscountPaise,
		ShippingPaise:     order.ShippingPaise,
		TaxPaise:          order.TaxPaise,
		TotalPaise:        order.TotalPaise,
		Campaign:          order.Campaign,
		TaxBreakdown:      order.TaxBreakdown,
		ShippingCharge:    order.ShippingCharge,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		OrderStatus:       order.OrderStatus,
		TrackingNumber:    order.TrackingNumber,
		TrackingCourier:   order.TrackingCourier,
		ShippedAt:         order.ShippedAt,
		EstimatedDelivery: order.EstimatedDelivery,
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		detail.Items = append(detail.Items, OrderItemDetail{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPricePaise: item.UnitPricePaise,
			TotalPaise:     item.TotalPaise,
		})
	}
	return detail
}
