package types

import (
	"github.com/google/uuid"

	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
)

// TaxBreakdown is the GST outcome snapshotted onto an order. Amounts are in
// paise; Rate is the percentage serialized as a decimal string. Snapshots are
// persisted as JSONB through the model layer's json serializer.
type TaxBreakdown struct {
	Type           enums.TaxType `json:"type"`
	Rate           string        `json:"rate"`
	TaxablePaise   int64         `json:"taxable_paise"`
	CGSTPaise      int64         `json:"cgst_paise"`
	SGSTPaise      int64         `json:"sgst_paise"`
	IGSTPaise      int64         `json:"igst_paise"`
	TotalPaise     int64         `json:"total_paise"`
	PriceInclusive bool          `json:"price_inclusive"`
}

// AppliedCampaign records which promotion was applied at checkout and what it
// was worth, so later campaign edits never alter the order.
type AppliedCampaign struct {
	ID            uuid.UUID          `json:"id"`
	Name          string             `json:"name"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	Value         string             `json:"value"`
	DiscountPaise int64              `json:"discount_paise"`
}

// ShippingCharge is the shipping outcome snapshotted onto an order.
type ShippingCharge struct {
	Zone         string     `json:"zone"`
	RuleID       *uuid.UUID `json:"rule_id,omitempty"`
	AmountPaise  int64      `json:"amount_paise"`
	FreeDelivery bool       `json:"free_delivery"`
	Fallback     bool       `json:"fallback"`
	Label        string     `json:"label"`
}
