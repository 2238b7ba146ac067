package campaigns

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

var evalNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func activeCampaign(name string, mutate func(*models.Campaign)) models.Campaign {
	campaign := models.Campaign{
		ID:            uuid.New(),
		Name:          name,
		Status:        enums.CampaignStatusActive,
		DiscountType:  enums.DiscountTypePercent,
		DiscountValue: decimal.NewFromInt(10),
		CreatedAt:     evalNow.Add(-24 * time.Hour),
	}
	if mutate != nil {
		mutate(&campaign)
	}
	return campaign
}

func cartWithSubtotal(subtotalPaise int64, quantity int) types.Cart {
	return types.Cart{Items: []types.CartItem{{
		ProductID:      uuid.New(),
		Name:           "widget",
		Quantity:       quantity,
		UnitPricePaise: subtotalPaise / int64(quantity),
	}}}
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestEvaluateAppliesPercentOverThreshold(t *testing.T) {
	// Subtotal Rs 5,000, 10% off above Rs 3,000 -> Rs 500 discount.
	campaign := activeCampaign("festival", func(c *models.Campaign) {
		c.MinSubtotalPaise = int64Ptr(300000)
	})
	cart := cartWithSubtotal(500000, 2)

	result := Evaluate(evalNow, cart, []models.Campaign{campaign})
	require.NotNil(t, result.Applied)
	assert.Nil(t, result.Nearest)
	assert.Equal(t, int64(50000), result.Applied.DiscountPaise)
	assert.Equal(t, campaign.ID, result.Applied.Campaign.ID)
}

func TestEvaluateNearestMissReportsSubtotalGap(t *testing.T) {
	// Subtotal Rs 2,500 against a Rs 3,000 threshold -> Rs 500 more needed.
	campaign := activeCampaign("festival", func(c *models.Campaign) {
		c.MinSubtotalPaise = int64Ptr(300000)
	})
	cart := cartWithSubtotal(250000, 1)

	result := Evaluate(evalNow, cart, []models.Campaign{campaign})
	require.Nil(t, result.Applied)
	require.NotNil(t, result.Nearest)
	assert.Equal(t, GapSubtotal, result.Nearest.Dimension)
	assert.Equal(t, int64(50000), result.Nearest.SubtotalGapPaise)
}

func TestEvaluateEmptyCart(t *testing.T) {
	campaign := activeCampaign("festival", nil)
	result := Evaluate(evalNow, types.Cart{}, []models.Campaign{campaign})
	assert.Nil(t, result.Applied)
	assert.Nil(t, result.Nearest)
}

func TestEvaluateSkipsInactiveAndOutOfWindow(t *testing.T) {
	inactive := activeCampaign("off", func(c *models.Campaign) {
		c.Status = enums.CampaignStatusInactive
	})
	future := activeCampaign("later", func(c *models.Campaign) {
		start := evalNow.Add(time.Hour)
		c.StartsAt = &start
	})
	ended := activeCampaign("done", func(c *models.Campaign) {
		end := evalNow.Add(-time.Hour)
		c.EndsAt = &end
	})

	result := Evaluate(evalNow, cartWithSubtotal(100000, 1), []models.Campaign{inactive, future, ended})
	assert.Nil(t, result.Applied)
	assert.Nil(t, result.Nearest)
}

func TestEvaluateFlatDiscountCappedAtSubtotal(t *testing.T) {
	campaign := activeCampaign("blowout", func(c *models.Campaign) {
		c.DiscountType = enums.DiscountTypeFlat
		c.DiscountValue = decimal.NewFromInt(2000) // Rs 2,000 flat
	})
	cart := cartWithSubtotal(150000, 1) // Rs 1,500

	result := Evaluate(evalNow, cart, []models.Campaign{campaign})
	require.NotNil(t, result.Applied)
	assert.Equal(t, int64(150000), result.Applied.DiscountPaise)
}

func TestEvaluatePicksLargestDiscount(t *testing.T) {
	small := activeCampaign("small", func(c *models.Campaign) {
		c.DiscountValue = decimal.NewFromInt(5)
	})
	big := activeCampaign("big", func(c *models.Campaign) {
		c.DiscountValue = decimal.NewFromInt(20)
	})

	result := Evaluate(evalNow, cartWithSubtotal(100000, 1), []models.Campaign{small, big})
	require.NotNil(t, result.Applied)
	assert.Equal(t, "big", result.Applied.Campaign.Name)
}

func TestEvaluateTieBreaksOnPriorityThenRecency(t *testing.T) {
	older := activeCampaign("older", func(c *models.Campaign) {
		c.Priority = 1
		c.CreatedAt = evalNow.Add(-48 * time.Hour)
	})
	newer := activeCampaign("newer", func(c *models.Campaign) {
		c.Priority = 1
		c.CreatedAt = evalNow.Add(-12 * time.Hour)
	})
	higherPriority := activeCampaign("priority", func(c *models.Campaign) {
		c.Priority = 5
		c.CreatedAt = evalNow.Add(-72 * time.Hour)
	})

	result := Evaluate(evalNow, cartWithSubtotal(100000, 1), []models.Campaign{older, newer, higherPriority})
	require.NotNil(t, result.Applied)
	assert.Equal(t, "priority", result.Applied.Campaign.Name)

	result = Evaluate(evalNow, cartWithSubtotal(100000, 1), []models.Campaign{older, newer})
	require.NotNil(t, result.Applied)
	assert.Equal(t, "newer", result.Applied.Campaign.Name)
}

func TestEvaluateDeterministicAcrossInputOrder(t *testing.T) {
	a := activeCampaign("a", nil)
	b := activeCampaign("b", nil)
	cart := cartWithSubtotal(100000, 1)

	first := Evaluate(evalNow, cart, []models.Campaign{a, b})
	second := Evaluate(evalNow, cart, []models.Campaign{b, a})
	require.NotNil(t, first.Applied)
	require.NotNil(t, second.Applied)
	assert.Equal(t, first.Applied.Campaign.ID, second.Applied.Campaign.ID)
}

func TestEvaluateProductScope(t *testing.T) {
	scopedProduct := uuid.New()
	campaign := activeCampaign("scoped", func(c *models.Campaign) {
		c.ProductScope = []string{scopedProduct.String()}
	})

	inScope := types.Cart{Items: []types.CartItem{{
		ProductID:      scopedProduct,
		Name:           "scoped item",
		Quantity:       1,
		UnitPricePaise: 100000,
	}}}
	result := Evaluate(evalNow, inScope, []models.Campaign{campaign})
	require.NotNil(t, result.Applied)

	outOfScope := cartWithSubtotal(100000, 1)
	result = Evaluate(evalNow, outOfScope, []models.Campaign{campaign})
	assert.Nil(t, result.Applied)
	// A scope miss cannot be bridged, so there is no nearest-miss either.
	assert.Nil(t, result.Nearest)
}

func TestEvaluateNearestPrefersFewestUnmetConditions(t *testing.T) {
	doubleMiss := activeCampaign("double", func(c *models.Campaign) {
		c.MinSubtotalPaise = int64Ptr(300000)
		c.MinQuantity = intPtr(5)
	})
	singleMiss := activeCampaign("single", func(c *models.Campaign) {
		c.MinSubtotalPaise = int64Ptr(400000)
	})

	result := Evaluate(evalNow, cartWithSubtotal(200000, 2), []models.Campaign{doubleMiss, singleMiss})
	require.Nil(t, result.Applied)
	require.NotNil(t, result.Nearest)
	assert.Equal(t, "single", result.Nearest.Campaign.Name)
}

func TestEvaluateQuantityGap(t *testing.T) {
	campaign := activeCampaign("bulk", func(c *models.Campaign) {
		c.MinQuantity = intPtr(5)
	})

	result := Evaluate(evalNow, cartWithSubtotal(100000, 2), []models.Campaign{campaign})
	require.Nil(t, result.Applied)
	require.NotNil(t, result.Nearest)
	assert.Equal(t, GapQuantity, result.Nearest.Dimension)
	assert.Equal(t, 3, result.Nearest.QuantityGap)
}

func TestDiscountPaiseRoundsHalfUp(t *testing.T) {
	campaign := activeCampaign("odd", func(c *models.Campaign) {
		c.DiscountValue = decimal.RequireFromString("12.5")
	})
	// 12.5% of 999 paise = 124.875 -> 125.
	assert.Equal(t, int64(125), DiscountPaise(campaign, 999))
}
