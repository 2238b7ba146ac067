package campaigns

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

// Applied pairs the winning campaign with the discount it is worth against
// the evaluated cart.
type Applied struct {
	Campaign      models.Campaign `json:"campaign"`
	DiscountPaise int64           `json:"discount_paise"`
}

// GapDimension names the single axis a nearest-miss campaign is short on.
type GapDimension string

const (
	GapSubtotal GapDimension = "subtotal"
	GapQuantity GapDimension = "quantity"
)

// NearestMiss describes the closest-to-qualifying campaign, for
// "add X more to unlock this offer" messaging.
type NearestMiss struct {
	Campaign         models.Campaign `json:"campaign"`
	Dimension        GapDimension    `json:"dimension"`
	SubtotalGapPaise int64           `json:"subtotal_gap_paise,omitempty"`
	QuantityGap      int             `json:"quantity_gap,omitempty"`
	UnmetConditions  int             `json:"unmet_conditions"`
}

// Result is the evaluator outcome. At most one campaign is ever applied;
// campaigns do not stack.
type Result struct {
	Applied *Applied     `json:"applied,omitempty"`
	Nearest *NearestMiss `json:"nearest,omitempty"`
}

// Evaluate selects the best applicable campaign for the cart, or the
// nearest-miss when none qualifies. Pure: no I/O, deterministic for fixed
// inputs.
func Evaluate(now time.Time, cart types.Cart, list []models.Campaign) Result {
	if cart.IsEmpty() {
		return Result{}
	}

	subtotal := cart.SubtotalPaise()
	quantity := cart.TotalQuantity()

	var candidates []Applied
	var misses []NearestMiss

	for _, campaign := range list {
		if !isLive(campaign, now) {
			continue
		}
		unmet := unmetConditions(campaign, cart, subtotal, quantity)
		if len(unmet) == 0 {
			candidates = append(candidates, Applied{
				Campaign:      campaign,
				DiscountPaise: DiscountPaise(campaign, subtotal),
			})
			continue
		}
		if miss, ok := buildMiss(campaign, unmet); ok {
			misses = append(misses, miss)
		}
	}

	if len(candidates) > 0 {
		return Result{Applied: pickBest(candidates)}
	}
	if len(misses) > 0 {
		return Result{Nearest: pickNearest(misses)}
	}
	return Result{}
}

// DiscountPaise computes the absolute discount a campaign is worth against
// the given subtotal, capped at the subtotal, rounded half-up to paise.
func DiscountPaise(campaign models.Campaign, subtotalPaise int64) int64 {
	var discount int64
	switch campaign.DiscountType {
	case enums.DiscountTypePercent:
		amount := decimal.NewFromInt(subtotalPaise).
			Mul(campaign.DiscountValue).
			Div(decimal.NewFromInt(100))
		discount = amount.Round(0).IntPart()
	case enums.DiscountTypeFlat:
		// Flat values are configured in rupees.
		discount = campaign.DiscountValue.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}
	if discount > subtotalPaise {
		discount = subtotalPaise
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func isLive(campaign models.Campaign, now time.Time) bool {
	if campaign.Status != enums.CampaignStatusActive {
		return false
	}
	if campaign.StartsAt != nil && now.Before(*campaign.StartsAt) {
		return false
	}
	if campaign.EndsAt != nil && now.After(*campaign.EndsAt) {
		return false
	}
	return true
}

type unmetCondition struct {
	dimension   GapDimension
	subtotalGap int64
	quantityGap int
	bridgeable  bool
}

func unmetConditions(campaign models.Campaign, cart types.Cart, subtotal int64, quantity int) []unmetCondition {
	var unmet []unmetCondition
	if campaign.MinSubtotalPaise != nil && subtotal < *campaign.MinSubtotalPaise {
		unmet = append(unmet, unmetCondition{
			dimension:   GapSubtotal,
			subtotalGap: *campaign.MinSubtotalPaise - subtotal,
			bridgeable:  true,
		})
	}
	if campaign.MinQuantity != nil && quantity < *campaign.MinQuantity {
		unmet = append(unmet, unmetCondition{
			dimension:   GapQuantity,
			quantityGap: *campaign.MinQuantity - quantity,
			bridgeable:  true,
		})
	}
	if len(campaign.ProductScope) > 0 && !cartTouchesScope(campaign.ProductScope, cart) {
		// A scope miss cannot be bridged by spending more, so it is never a
		// nearest-miss axis.
		unmet = append(unmet, unmetCondition{bridgeable: false})
	}
	return unmet
}

func cartTouchesScope(scope []string, cart types.Cart) bool {
	scoped := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		scoped[id] = struct{}{}
	}
	for _, item := range cart.Items {
		if item.Quantity <= 0 {
			continue
		}
		if _, ok := scoped[item.ProductID.String()]; ok {
			return true
		}
	}
	return false
}

func buildMiss(campaign models.Campaign, unmet []unmetCondition) (NearestMiss, bool) {
	miss := NearestMiss{Campaign: campaign, UnmetConditions: len(unmet)}
	for _, cond := range unmet {
		if !cond.bridgeable {
			continue
		}
		// Subtotal gaps win over quantity gaps when a campaign is short on
		// both; only one axis is ever reported.
		if miss.Dimension == "" || cond.dimension == GapSubtotal {
			miss.Dimension = cond.dimension
			miss.SubtotalGapPaise = cond.subtotalGap
			miss.QuantityGap = cond.quantityGap
		}
	}
	if miss.Dimension == "" {
		return NearestMiss{}, false
	}
	return miss, true
}

// pickBest orders candidates by discount desc, priority desc, creation time
// desc, then id asc so the choice is reproducible.
func pickBest(candidates []Applied) *Applied {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.DiscountPaise != b.DiscountPaise {
			return a.DiscountPaise > b.DiscountPaise
		}
		if a.Campaign.Priority != b.Campaign.Priority {
			return a.Campaign.Priority > b.Campaign.Priority
		}
		if !a.Campaign.CreatedAt.Equal(b.Campaign.CreatedAt) {
			return a.Campaign.CreatedAt.After(b.Campaign.CreatedAt)
		}
		return a.Campaign.ID.String() < b.Campaign.ID.String()
	})
	best := candidates[0]
	return &best
}

// pickNearest prefers campaigns with the fewest unmet conditions, then the
// smallest gap on its axis; subtotal gaps outrank quantity gaps when the
// counts tie, and ids break any remaining tie.
func pickNearest(misses []NearestMiss) *NearestMiss {
	sort.SliceStable(misses, func(i, j int) bool {
		a, b := misses[i], misses[j]
		if a.UnmetConditions != b.UnmetConditions {
			return a.UnmetConditions < b.UnmetConditions
		}
		if a.Dimension != b.Dimension {
			return a.Dimension == GapSubtotal
		}
		if a.Dimension == GapSubtotal && a.SubtotalGapPaise != b.SubtotalGapPaise {
			return a.SubtotalGapPaise < b.SubtotalGapPaise
		}
		if a.Dimension == GapQuantity && a.QuantityGap != b.QuantityGap {
			return a.QuantityGap < b.QuantityGap
		}
		return a.Campaign.ID.String() < b.Campaign.ID.String()
	})
	nearest := misses[0]
	return &nearest
}
