package shipping

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunmurugan-dev/kadai-backend/pkg/db/models"
	pkgerrors "github.com/arunmurugan-dev/kadai-backend/pkg/errors"
)

func rule(zone string, min int, max *int, ratePaise int64, created time.Time) models.ShippingRule {
	return models.ShippingRule{
		ID:          uuid.New(),
		Zone:        zone,
		Provider:    "Professional Couriers",
		MinQuantity: min,
		MaxQuantity: max,
		RatePaise:   ratePaise,
		IsEnabled:   true,
		CreatedAt:   created,
	}
}

func maxQty(v int) *int { return &v }

func tamilNaduTiers() []models.ShippingRule {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return []models.ShippingRule{
		rule(ZoneTamilNadu, 1, maxQty(5), 6000, base),
		rule(ZoneTamilNadu, 6, nil, 12000, base.Add(time.Minute)),
		rule(ZoneAllIndia, 1, maxQty(5), 9000, base.Add(2*time.Minute)),
		rule(ZoneAllIndia, 6, nil, 15000, base.Add(3*time.Minute)),
	}
}

func TestCalculateTamilNaduTiers(t *testing.T) {
	// PIN 638656 with quantity 3 hits the low tier, quantity 6 the high one.
	charge, err := Calculate(Input{
		PostalCode:        "638656",
		TotalQuantity:     3,
		FreeShippingFlags: []bool{false, false, false},
	}, tamilNaduTiers())
	require.NoError(t, err)
	assert.Equal(t, ZoneTamilNadu, charge.Zone)
	assert.Equal(t, int64(6000), charge.AmountPaise)
	assert.False(t, charge.Fallback)

	charge, err = Calculate(Input{
		PostalCode:        "638656",
		TotalQuantity:     6,
		FreeShippingFlags: []bool{false},
	}, tamilNaduTiers())
	require.NoError(t, err)
	assert.Equal(t, int64(12000), charge.AmountPaise)
}

func TestCalculateFreeShippingShortCircuits(t *testing.T) {
	charge, err := Calculate(Input{
		PostalCode:        "638656",
		TotalQuantity:     3,
		FreeShippingFlags: []bool{true, true, true},
	}, tamilNaduTiers())
	require.NoError(t, err)

	assert.True(t, charge.FreeDelivery)
	assert.Equal(t, int64(0), charge.AmountPaise)
	assert.Equal(t, "Free Delivery", charge.Label)
	assert.Nil(t, charge.RuleID)
}

func TestCalculateMixedEligibilityStillCharges(t *testing.T) {
	charge, err := Calculate(Input{
		PostalCode:        "638656",
		TotalQuantity:     2,
		FreeShippingFlags: []bool{true, false},
	}, tamilNaduTiers())
	require.NoError(t, err)
	assert.False(t, charge.FreeDelivery)
	assert.Equal(t, int64(6000), charge.AmountPaise)
}

func TestCalculateRejectsBadPIN(t *testing.T) {
	for _, pin := range []string{"", "12345", "1234567", "038656", "63865a"} {
		_, err := Calculate(Input{PostalCode: pin, TotalQuantity: 1}, nil)
		require.Error(t, err, "pin=%q", pin)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	}
}

func TestCalculateRejectsNonPositiveQuantity(t *testing.T) {
	_, err := Calculate(Input{PostalCode: "638656", TotalQuantity: 0}, nil)
	require.Error(t, err)
}

func TestCalculateFallbackWhenNoRuleMatches(t *testing.T) {
	charge, err := Calculate(Input{
		PostalCode:        "560001",
		State:             "Karnataka",
		TotalQuantity:     2,
		FreeShippingFlags: []bool{false},
	}, nil)
	require.NoError(t, err)

	assert.True(t, charge.Fallback)
	assert.Equal(t, FallbackRatePaise, charge.AmountPaise)
	assert.Equal(t, "Standard Delivery", charge.Label)
}

func TestCalculateExactZoneBeatsAllIndia(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rules := []models.ShippingRule{
		rule(ZoneAllIndia, 1, nil, 9000, base),
		rule(ZoneTamilNadu, 1, nil, 4000, base.Add(time.Hour)),
	}

	charge, err := Calculate(Input{
		PostalCode:        "600001",
		State:             "Tamil Nadu",
		TotalQuantity:     1,
		FreeShippingFlags: []bool{false},
	}, rules)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), charge.AmountPaise)
}

func TestCalculateAllIndiaZoneUsesAllIndiaRules(t *testing.T) {
	charge, err := Calculate(Input{
		PostalCode:        "110001",
		State:             "Delhi",
		TotalQuantity:     6,
		FreeShippingFlags: []bool{false},
	}, tamilNaduTiers())
	require.NoError(t, err)
	assert.Equal(t, ZoneAllIndia, charge.Zone)
	assert.Equal(t, int64(15000), charge.AmountPaise)
}

func TestCalculateSkipsDisabledRules(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	disabled := rule(ZoneTamilNadu, 1, nil, 1000, base)
	disabled.IsEnabled = false
	rules := []models.ShippingRule{disabled, rule(ZoneTamilNadu, 1, nil, 5000, base.Add(time.Minute))}

	charge, err := Calculate(Input{
		PostalCode:        "600001",
		State:             "tn",
		TotalQuantity:     1,
		FreeShippingFlags: []bool{false},
	}, rules)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), charge.AmountPaise)
}

func TestResolveZone(t *testing.T) {
	cases := []struct {
		state string
		pin   string
		want  string
	}{
		{"Tamil Nadu", "600001", ZoneTamilNadu},
		{"tamilnadu", "110001", ZoneTamilNadu},
		{"TN", "110001", ZoneTamilNadu},
		{"Karnataka", "600001", ZoneAllIndia},
		{"", "638656", ZoneTamilNadu},
		{"", "643001", ZoneTamilNadu},
		{"", "650001", ZoneAllIndia},
		{"", "110001", ZoneAllIndia},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveZone(tc.state, tc.pin), "state=%q pin=%q", tc.state, tc.pin)
	}
}
