package shipping

import (
	"regexp"
	"sort"
	"strings"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
	"github.com/arunmurugan-dev/kadai-backend/pkg/types"
)

const (
	// ZoneTamilNadu is the store's home zone with dedicated rate tiers.
	ZoneTamilNadu = "tamil_nadu"
	// ZoneAllIndia is the universal fallback zone.
	ZoneAllIndia = "all_india"

	// FallbackRatePaise applies when no rule matches at all. Hitting it means
	// the rule table is misconfigured, so callers should log it.
	FallbackRatePaise int64 = 9900

	labelFreeDelivery = "Free Delivery"
)

var pinPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// Input carries the values a shipping fee depends on.
type Input struct {
	PostalCode    string
	State         string
	TotalQuantity int
	// FreeShippingFlags holds the eligibility flag of every cart line.
	FreeShippingFlags []bool
}

// Calculate resolves the shipping fee from zone-tiered rules. Pure over its
// inputs; callers supply the enabled rule set.
func Calculate(input Input, rules []models.ShippingRule) (*types.ShippingCharge, error) {
	pin := strings.TrimSpace(input.PostalCode)
	if !pinPattern.MatchString(pin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "postal code must be a valid 6-digit PIN")
	}
	if input.TotalQuantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total quantity must be positive")
	}

	zone := ResolveZone(input.State, pin)

	// Free delivery short-circuits the rule table entirely, and is labeled
	// distinctly from a zero-rate rule match.
	if allFreeShipping(input.FreeShippingFlags) {
		return &types.ShippingCharge{
			Zone:         zone,
			AmountPaise:  0,
			FreeDelivery: true,
			Label:        labelFreeDelivery,
		}, nil
	}

	if rule := matchRule(zone, input.TotalQuantity, rules); rule != nil {
		ruleID := rule.ID
		return &types.ShippingCharge{
			Zone:        zone,
			RuleID:      &ruleID,
			AmountPaise: rule.RatePaise,
			Label:       rule.Provider,
		}, nil
	}

	return &types.ShippingCharge{
		Zone:        zone,
		AmountPaise: FallbackRatePaise,
		Fallback:    true,
		Label:       "Standard Delivery",
	}, nil
}

// ResolveZone maps a state name (or, failing that, the PIN prefix) onto a
// rate zone. Tamil Nadu is the only first-class zone; everything else is
// all_india.
func ResolveZone(state, pin string) string {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(state)), " ", "") {
	case "tamilnadu", "tn":
		return ZoneTamilNadu
	case "":
		// Tamil Nadu PINs run 600xxx through 643xxx.
		if len(pin) >= 2 && pin[0] == '6' && pin[1] >= '0' && pin[1] <= '4' {
			return ZoneTamilNadu
		}
	}
	return ZoneAllIndia
}

func allFreeShipping(flags []bool) bool {
	if len(flags) == 0 {
		return false
	}
	for _, eligible := range flags {
		if !eligible {
			return false
		}
	}
	return true
}

// matchRule selects the applicable rule: enabled, zone or all_india, quantity
// inside [min, max] with a nil max meaning "and above". An exact-zone match
// beats all_india; remaining ties fall to insertion order then id, which is
// the documented deterministic choice.
func matchRule(zone string, quantity int, rules []models.ShippingRule) *models.ShippingRule {
	var matched []models.ShippingRule
	for _, rule := range rules {
		if !rule.IsEnabled {
			continue
		}
		if rule.Zone != zone && rule.Zone != ZoneAllIndia {
			continue
		}
		if quantity < rule.MinQuantity {
			continue
		}
		if rule.MaxQuantity != nil && quantity > *rule.MaxQuantity {
			continue
		}
		matched = append(matched, rule)
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		aExact, bExact := a.Zone == zone, b.Zone == zone
		if aExact != bExact {
			return aExact
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	best := matched[0]
	return &best
}
