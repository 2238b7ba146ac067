package tax

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/arunmurugan-dev/kadai-backend/pkg/enums"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

// DefaultRatePercent applies when no tax settings row exists and no override
// is supplied.
var DefaultRatePercent = decimal.NewFromInt(18)

// Settings is the GST configuration consulted per calculation. Passed
// explicitly so the calculator stays a pure function.
type Settings struct {
	TaxEnabled       bool
	DefaultRate      decimal.Decimal
	PriceIncludesTax bool
	StoreState       string
}

// DefaultSettings is the documented degraded-mode fallback: 18% GST,
// tax-exclusive pricing.
func DefaultSettings(storeState string) Settings {
	return Settings{
		TaxEnabled:       true,
		DefaultRate:      DefaultRatePercent,
		PriceIncludesTax: false,
		StoreState:       storeState,
	}
}

// Input carries the per-calculation values.
type Input struct {
	Items         []types.CartItem
	DiscountPaise int64
	CustomerState string
	// RateOverride, when set, takes precedence over Settings.DefaultRate.
	RateOverride *decimal.Decimal
}

// Calculate computes the GST breakdown for the discounted cart value. The
// customer state is mandatory; the calculator never guesses it.
func Calculate(input Input, settings Settings) (*types.TaxBreakdown, error) {
	customerState := strings.TrimSpace(input.CustomerState)
	if customerState == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer state is required")
	}

	taxable := taxablePaise(input)

	if !settings.TaxEnabled {
		return &types.TaxBreakdown{
			Type:           enums.TaxTypeNone,
			Rate:           decimal.Zero.String(),
			TaxablePaise:   taxable,
			PriceInclusive: settings.PriceIncludesTax,
		}, nil
	}

	rate := effectiveRate(input, settings)

	breakdown := &types.TaxBreakdown{
		Rate:           rate.String(),
		PriceInclusive: settings.PriceIncludesTax,
	}

	if settings.PriceIncludesTax {
		// Back-calculate the taxable base from the tendered price.
		price := decimal.NewFromInt(taxable)
		base := price.Div(decimal.NewFromInt(1).Add(rate.Div(decimal.NewFromInt(100)))).Round(0)
		breakdown.TaxablePaise = base.IntPart()
		breakdown.TotalPaise = taxable - base.IntPart()
	} else {
		breakdown.TaxablePaise = taxable
		breakdown.TotalPaise = decimal.NewFromInt(taxable).
			Mul(rate).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}

	if sameState(customerState, settings.StoreState) {
		breakdown.Type = enums.TaxTypeIntraState
		// Split so CGST+SGST always equals the single-rate IGST total.
		breakdown.CGSTPaise = breakdown.TotalPaise / 2
		breakdown.SGSTPaise = breakdown.TotalPaise - breakdown.CGSTPaise
	} else {
		breakdown.Type = enums.TaxTypeInterState
		breakdown.IGSTPaise = breakdown.TotalPaise
	}

	return breakdown, nil
}

func taxablePaise(input Input) int64 {
	var subtotal int64
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			continue
		}
		subtotal += item.TotalPaise()
	}
	taxable := subtotal - input.DiscountPaise
	if taxable < 0 {
		taxable = 0
	}
	return taxable
}

func effectiveRate(input Input, settings Settings) decimal.Decimal {
	if input.RateOverride != nil && input.RateOverride.IsPositive() {
		return *input.RateOverride
	}
	if settings.DefaultRate.IsPositive() {
		return settings.DefaultRate
	}
	return DefaultRatePercent
}

func sameState(customer, store string) bool {
	normalize := func(s string) string {
		return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
	}
	return normalize(customer) == normalize(store)
}
