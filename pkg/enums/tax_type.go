package enums

// TaxType says whether GST was charged as an intra-state split or as IGST.
type TaxType string

const (
	TaxTypeIntraState TaxType = "intra_state"
	TaxTypeInterState TaxType = "inter_state"
	TaxTypeNone       TaxType = "none"
)

// String implements fmt.Stringer.
func (t TaxType) String() string {
	return string(t)
}
