package enums

// MatchSource records which key matched a line item to a catalog variant.
type MatchSource string

const (
	MatchSourceSKU                MatchSource = "sku"
	MatchSourceCustomerPartNumber MatchSource = "customer_part_number"
	MatchSourceTitle              MatchSource = "title"
	// MatchSourceManual marks the synthetic placeholder row a buyer adds for
	// manual product selection; it never resolves to a variant.
	MatchSourceManual MatchSource = "manual"
	MatchSourceNone   MatchSource = "none"
)

// String returns the literal string for the source.
func (m MatchSource) String() string {
	return string(m)
}
