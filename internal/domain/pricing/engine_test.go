package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(price string, qty int64, taxRate string, discount DiscountSpec) LineItem {
	return LineItem{
		ProductID: "P1",
		Quantity:  qty,
		UnitPrice: money(price),
		Discount:  discount,
		TaxRate:   money(taxRate),
	}
}

func percentOff(v string) DiscountSpec {
	return DiscountSpec{Mode: DiscountPercent, Value: money(v)}
}

func amountOff(v string) DiscountSpec {
	return DiscountSpec{Mode: DiscountAmount, Value: money(v)}
}

func TestPrice_SingleLinePercentDiscount(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	doc, err := engine.Price(
		[]LineItem{line("100", 2, "12", percentOff("10"))},
		NoDiscount(), nil,
	)
	require.NoError(t, err)

	assert.True(t, doc.Subtotal.Equal(money("200")), "subtotal %s", doc.Subtotal)
	assert.True(t, doc.ItemDiscountTotal.Equal(money("20")))
	assert.True(t, doc.TaxableAmount.Equal(money("180")))
	assert.True(t, doc.TaxAmount.Equal(money("21.60")), "tax %s", doc.TaxAmount)
	assert.True(t, doc.GrandTotal.Equal(money("201.60")), "total %s", doc.GrandTotal)
	assert.True(t, doc.RoundOff.IsZero())
}

func TestPrice_BillDiscountAndLoyalty(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	items := []LineItem{
		line("100", 2, "12", percentOff("10")), // net 180
		line("90", 2, "12", NoDiscount()),      // net 180
	}
	doc, err := engine.Price(items, percentOff("5"), &Loyalty{
		PointsRequested: 50,
		PointsAvailable: 120,
	})
	require.NoError(t, err)

	// net subtotal 360, bill discount 18, loyalty 50 at 1:1
	assert.True(t, doc.NetSubtotal.Equal(money("360")))
	assert.True(t, doc.BillDiscountAmount.Equal(money("18")))
	assert.True(t, doc.LoyaltyAmount.Equal(money("50")))
	assert.Equal(t, int64(50), doc.LoyaltyPointsUsed)
	assert.True(t, doc.TaxableAmount.Equal(money("292")))

	// all lines at 12%: tax = 292 × 12% = 35.04
	assert.True(t, doc.TaxAmount.Equal(money("35.04")), "tax %s", doc.TaxAmount)
	assert.True(t, doc.GrandTotal.Equal(money("327.04")), "total %s", doc.GrandTotal)
}

func TestPrice_TaxRecomputedAfterBillDiscount(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	// Tax is computed on the post-discount base, not summed per line.
	doc, err := engine.Price(
		[]LineItem{line("100", 1, "18", NoDiscount())},
		amountOff("40"), nil,
	)
	require.NoError(t, err)

	assert.True(t, doc.TaxableAmount.Equal(money("60")))
	assert.True(t, doc.TaxAmount.Equal(money("10.8")), "tax %s", doc.TaxAmount)
}

func TestPrice_MixedRatesUseWeightedAverage(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	items := []LineItem{
		line("100", 1, "5", NoDiscount()),
		line("300", 1, "18", NoDiscount()),
	}
	doc, err := engine.Price(items, NoDiscount(), nil)
	require.NoError(t, err)

	// weighted rate = (100×5 + 300×18) / 400 = 14.75
	assert.True(t, doc.EffectiveTaxRate.Equal(money("14.75")), "rate %s", doc.EffectiveTaxRate)
	assert.True(t, doc.TaxAmount.Equal(money("59")), "tax %s", doc.TaxAmount)
}

func TestPrice_RoundOffHalfUp(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	doc, err := engine.Price(
		[]LineItem{line("33.33", 1, "18", NoDiscount())},
		NoDiscount(), nil,
	)
	require.NoError(t, err)

	// 33.33 × 1.18 = 39.3294 → 39.33, round_off +0.0006
	assert.True(t, doc.GrandTotal.Equal(money("39.33")), "total %s", doc.GrandTotal)
	assert.True(t, doc.RoundOff.Equal(money("0.0006")), "round off %s", doc.RoundOff)
	assert.True(t, doc.TaxableAmount.Add(doc.TaxAmount).Add(doc.RoundOff).Equal(doc.GrandTotal))
}

func TestPrice_LineSharesSumExactly(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	items := []LineItem{
		line("10.01", 3, "12", NoDiscount()),
		line("7.77", 7, "12", percentOff("3")),
		line("123.45", 1, "12", NoDiscount()),
	}
	doc, err := engine.Price(items, percentOff("2.5"), nil)
	require.NoError(t, err)

	taxableSum := decimal.Zero
	taxSum := decimal.Zero
	for _, ln := range doc.Lines {
		taxableSum = taxableSum.Add(ln.TaxableAmount)
		taxSum = taxSum.Add(ln.TaxAmount)
		assert.True(t, ln.LineTotal.Equal(ln.TaxableAmount.Add(ln.TaxAmount)))
	}
	assert.True(t, taxableSum.Equal(doc.TaxableAmount), "taxable %s vs %s", taxableSum, doc.TaxableAmount)
	assert.True(t, taxSum.Equal(doc.TaxAmount), "tax %s vs %s", taxSum, doc.TaxAmount)
}

func TestPrice_DiscountErrors(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	tests := []struct {
		name     string
		items    []LineItem
		bill     DiscountSpec
		wantCode string
	}{
		{
			name:     "line percent above 100",
			items:    []LineItem{line("100", 1, "18", percentOff("150"))},
			bill:     NoDiscount(),
			wantCode: apperror.CodeInvalidDiscount,
		},
		{
			name:     "negative line percent",
			items:    []LineItem{line("100", 1, "18", percentOff("-5"))},
			bill:     NoDiscount(),
			wantCode: apperror.CodeInvalidDiscount,
		},
		{
			name:     "negative bill amount",
			items:    []LineItem{line("100", 1, "18", NoDiscount())},
			bill:     amountOff("-10"),
			wantCode: apperror.CodeInvalidDiscount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Price(tt.items, tt.bill, nil)
			require.Error(t, err)
			assert.True(t, apperror.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestPrice_FixedDiscountCappedAtBase(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	doc, err := engine.Price(
		[]LineItem{line("50", 1, "18", amountOff("80"))},
		NoDiscount(), nil,
	)
	require.NoError(t, err)

	assert.True(t, doc.Lines[0].DiscountAmount.Equal(money("50")))
	assert.True(t, doc.TaxableAmount.IsZero())
	assert.True(t, doc.GrandTotal.IsZero())
}

func TestPrice_LoyaltyOverBalanceRejected(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	_, err := engine.Price(
		[]LineItem{line("100", 1, "18", NoDiscount())},
		NoDiscount(),
		&Loyalty{PointsRequested: 200, PointsAvailable: 100},
	)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidLoyalty), "got %v", err)
}

func TestPrice_LoyaltyExceedingRemainingBaseRejected(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	_, err := engine.Price(
		[]LineItem{line("100", 1, "18", NoDiscount())},
		amountOff("60"),
		&Loyalty{PointsRequested: 50, PointsAvailable: 500},
	)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidLoyalty), "got %v", err)
}

func TestPrice_ValidationErrors(t *testing.T) {
	engine := NewEngine(decimal.NewFromInt(1))

	_, err := engine.Price(nil, NoDiscount(), nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	bad := line("100", 0, "18", NoDiscount())
	_, err = engine.Price([]LineItem{bad}, NoDiscount(), nil)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 1, appErr.Details["line_no"])
}
