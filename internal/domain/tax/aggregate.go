package tax

import (
	"github.com/shopspring/decimal"

	"retailcore/internal/core/types"
)

// Split holds document-level GST buckets.
type Split struct {
	CGST  types.Money `json:"cgst_amount"`
	SGST  types.Money `json:"sgst_amount"`
	IGST  types.Money `json:"igst_amount"`
	Total types.Money `json:"total_tax_amount"`
}

var two = decimal.NewFromInt(2)

// Aggregate classifies per-line tax amounts into CGST/SGST or IGST and
// sums document totals. Tax amounts arrive already computed by the
// pricing engine; the aggregator only classifies and sums.
func Aggregate(lineTaxes []types.Money, jurisdiction Jurisdiction) Split {
	var split Split
	split.CGST = decimal.Zero
	split.SGST = decimal.Zero
	split.IGST = decimal.Zero
	split.Total = decimal.Zero

	for _, amount := range lineTaxes {
		split.Total = split.Total.Add(amount)
		if jurisdiction == JurisdictionInter {
			split.IGST = split.IGST.Add(amount)
			continue
		}
		half := amount.Div(two)
		split.CGST = split.CGST.Add(half)
		split.SGST = split.SGST.Add(amount.Sub(half))
	}

	return split
}
