// Package pricing computes per-line and per-document totals: item
// discounts, bill discount, loyalty deduction, taxable base, tax and
// grand total. Price is a pure function over immutable inputs; callers
// invoke it explicitly at each boundary (add item, change discount,
// commit) instead of recomputing as a side effect.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/types"
)

// DiscountMode selects how a DiscountSpec value is interpreted.
type DiscountMode string

const (
	DiscountNone    DiscountMode = "none"
	DiscountPercent DiscountMode = "percent"
	DiscountAmount  DiscountMode = "amount"
)

// DiscountSpec is a percentage or fixed-amount discount.
// Exactly one mode is active, or none.
type DiscountSpec struct {
	Mode  DiscountMode
	Value types.Money
}

// NoDiscount is the zero discount.
func NoDiscount() DiscountSpec {
	return DiscountSpec{Mode: DiscountNone, Value: decimal.Zero}
}

// amountOn resolves the discount against a base amount. Fixed amounts
// are capped at the base; percentages outside 0..100 are rejected
// because they would drive the total negative.
func (d DiscountSpec) amountOn(base types.Money, scope string) (types.Money, error) {
	switch d.Mode {
	case DiscountNone, "":
		return decimal.Zero, nil
	case DiscountPercent:
		if d.Value.IsNegative() || d.Value.GreaterThan(types.Hundred) {
			return decimal.Zero, apperror.NewInvalidDiscount(
				fmt.Sprintf("%s discount percentage must be between 0 and 100", scope))
		}
		return types.Percent(base, d.Value), nil
	case DiscountAmount:
		if d.Value.IsNegative() {
			return decimal.Zero, apperror.NewInvalidDiscount(
				fmt.Sprintf("%s discount amount cannot be negative", scope))
		}
		if d.Value.GreaterThan(base) {
			return base, nil
		}
		return d.Value, nil
	default:
		return decimal.Zero, apperror.NewValidation("unknown discount mode").
			WithDetail("mode", string(d.Mode))
	}
}

// LineItem is one requested document line. BatchNo may be empty at
// request time; the inventory allocator resolves it.
type LineItem struct {
	ProductID string
	BatchNo   string
	Quantity  int64
	UnitPrice types.Money
	Discount  DiscountSpec
	TaxRate   types.Money // percent
}

// Loyalty describes a requested loyalty point deduction.
type Loyalty struct {
	PointsRequested int64
	PointsAvailable int64
}

// PricedLine carries the derived amounts for one line.
type PricedLine struct {
	LineNo         int
	ProductID      string
	BatchNo        string
	Quantity       int64
	UnitPrice      types.Money
	Subtotal       types.Money // unitPrice × quantity
	DiscountAmount types.Money // the line's own discount
	NetAmount      types.Money // subtotal − item discount
	TaxableAmount  types.Money // proportional share of the document base
	TaxRate        types.Money
	TaxAmount      types.Money
	LineTotal      types.Money // taxableAmount + taxAmount
}

// PricedDocument is the immutable result of a Price call.
type PricedDocument struct {
	Lines []PricedLine

	Subtotal           types.Money // Σ line subtotals
	ItemDiscountTotal  types.Money
	NetSubtotal        types.Money // Σ line net amounts
	BillDiscountAmount types.Money
	LoyaltyPointsUsed  int64
	LoyaltyAmount      types.Money
	TaxableAmount      types.Money
	EffectiveTaxRate   types.Money // weighted average of line rates
	TaxAmount          types.Money
	RoundOff           types.Money
	GrandTotal         types.Money // rounded, payable
}

// LineTaxes returns the per-line tax amounts for the totals aggregator.
func (d *PricedDocument) LineTaxes() []types.Money {
	taxes := make([]types.Money, len(d.Lines))
	for i, line := range d.Lines {
		taxes[i] = line.TaxAmount
	}
	return taxes
}

// Engine computes document totals. loyaltyRate converts one loyalty
// point to currency; zero means 1:1.
type Engine struct {
	loyaltyRate types.Money
}

// NewEngine creates a pricing engine.
func NewEngine(loyaltyRate types.Money) *Engine {
	if loyaltyRate.IsZero() {
		loyaltyRate = decimal.NewFromInt(1)
	}
	return &Engine{loyaltyRate: loyaltyRate}
}

// Price computes totals in normative order: item discounts, bill
// discount, loyalty deduction, then tax recomputed globally on the final
// taxable base at the weighted average of line rates. Per-line taxable
// and tax amounts are the proportional attribution of the document
// figures, so line totals always sum to taxable + tax exactly.
func (e *Engine) Price(items []LineItem, billDiscount DiscountSpec, loyalty *Loyalty) (*PricedDocument, error) {
	if len(items) == 0 {
		return nil, apperror.NewValidation("at least one line item is required").
			WithDetail("field", "items")
	}

	doc := &PricedDocument{
		Lines:             make([]PricedLine, 0, len(items)),
		Subtotal:          decimal.Zero,
		ItemDiscountTotal: decimal.Zero,
		NetSubtotal:       decimal.Zero,
	}
	weighted := decimal.Zero

	for i, item := range items {
		lineNo := i + 1
		if err := validateLine(item, lineNo); err != nil {
			return nil, err
		}

		subtotal := item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
		discount, err := item.Discount.amountOn(subtotal, "line")
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				appErr.WithDetail("line_no", lineNo)
			}
			return nil, err
		}
		net := subtotal.Sub(discount)

		doc.Lines = append(doc.Lines, PricedLine{
			LineNo:         lineNo,
			ProductID:      item.ProductID,
			BatchNo:        item.BatchNo,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Subtotal:       subtotal,
			DiscountAmount: discount,
			NetAmount:      net,
			TaxRate:        item.TaxRate,
		})

		doc.Subtotal = doc.Subtotal.Add(subtotal)
		doc.ItemDiscountTotal = doc.ItemDiscountTotal.Add(discount)
		doc.NetSubtotal = doc.NetSubtotal.Add(net)
		weighted = weighted.Add(net.Mul(item.TaxRate))
	}

	billAmount, err := billDiscount.amountOn(doc.NetSubtotal, "bill")
	if err != nil {
		return nil, err
	}
	doc.BillDiscountAmount = billAmount

	loyaltyAmount := decimal.Zero
	if loyalty != nil && loyalty.PointsRequested > 0 {
		if loyalty.PointsRequested > loyalty.PointsAvailable {
			return nil, apperror.NewInvalidLoyalty(loyalty.PointsRequested, loyalty.PointsAvailable)
		}
		loyaltyAmount = decimal.NewFromInt(loyalty.PointsRequested).Mul(e.loyaltyRate)
		remaining := doc.NetSubtotal.Sub(billAmount)
		if loyaltyAmount.GreaterThan(remaining) {
			return nil, apperror.NewInvalidLoyalty(loyalty.PointsRequested, loyalty.PointsAvailable).
				WithDetail("reason", "deduction exceeds remaining taxable base").
				WithDetail("remaining_base", remaining.String())
		}
		doc.LoyaltyPointsUsed = loyalty.PointsRequested
	}
	doc.LoyaltyAmount = loyaltyAmount

	doc.TaxableAmount = doc.NetSubtotal.Sub(billAmount).Sub(loyaltyAmount)

	// Tax policy: single global recomputation on the final taxable base.
	// The weighted average rate preserves each line's rate in proportion
	// to its share of the post-item-discount base.
	doc.EffectiveTaxRate = decimal.Zero
	if doc.NetSubtotal.IsPositive() {
		doc.EffectiveTaxRate = weighted.Div(doc.NetSubtotal)
	}
	doc.TaxAmount = types.Percent(doc.TaxableAmount, doc.EffectiveTaxRate)

	e.attributeLineShares(doc)

	unrounded := doc.TaxableAmount.Add(doc.TaxAmount)
	doc.RoundOff = types.RoundOff(unrounded)
	doc.GrandTotal = types.RoundMoney(unrounded)

	return doc, nil
}

// attributeLineShares distributes the document taxable base and tax back
// onto lines proportionally to each line's net amount, assigning the
// remainder to the last line so the column sums are exact. This is
// reporting attribution only; document totals are never derived from it.
func (e *Engine) attributeLineShares(doc *PricedDocument) {
	remainingTaxable := doc.TaxableAmount
	remainingTax := doc.TaxAmount

	for i := range doc.Lines {
		line := &doc.Lines[i]
		if i == len(doc.Lines)-1 || !doc.NetSubtotal.IsPositive() {
			line.TaxableAmount = remainingTaxable
			line.TaxAmount = remainingTax
		} else {
			share := line.NetAmount.Div(doc.NetSubtotal)
			line.TaxableAmount = doc.TaxableAmount.Mul(share)
			line.TaxAmount = doc.TaxAmount.Mul(share)
			remainingTaxable = remainingTaxable.Sub(line.TaxableAmount)
			remainingTax = remainingTax.Sub(line.TaxAmount)
		}
		line.LineTotal = line.TaxableAmount.Add(line.TaxAmount)
	}
}

func validateLine(item LineItem, lineNo int) error {
	if item.ProductID == "" {
		return apperror.NewValidation("product is required").
			WithDetail("field", "product_id").
			WithDetail("line_no", lineNo)
	}
	if item.Quantity <= 0 {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("line_no", lineNo)
	}
	if item.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unit_price").
			WithDetail("line_no", lineNo)
	}
	if item.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate cannot be negative").
			WithDetail("field", "tax_percent").
			WithDetail("line_no", lineNo)
	}
	return nil
}
