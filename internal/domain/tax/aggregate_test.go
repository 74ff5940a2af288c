package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"retailcore/internal/core/types"
)

func amounts(values ...string) []types.Money {
	out := make([]types.Money, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func TestJurisdictionFor(t *testing.T) {
	assert.Equal(t, JurisdictionIntra, JurisdictionFor("27", "27"))
	assert.Equal(t, JurisdictionIntra, JurisdictionFor("27", ""))
	assert.Equal(t, JurisdictionInter, JurisdictionFor("27", "29"))
}

func TestAggregate_Intrastate(t *testing.T) {
	split := Aggregate(amounts("18", "21.60"), JurisdictionIntra)

	assert.True(t, split.CGST.Equal(decimal.RequireFromString("19.80")), "cgst %s", split.CGST)
	assert.True(t, split.SGST.Equal(decimal.RequireFromString("19.80")), "sgst %s", split.SGST)
	assert.True(t, split.IGST.IsZero())
	assert.True(t, split.Total.Equal(decimal.RequireFromString("39.60")))
}

func TestAggregate_Interstate(t *testing.T) {
	split := Aggregate(amounts("18", "21.60"), JurisdictionInter)

	assert.True(t, split.CGST.IsZero())
	assert.True(t, split.SGST.IsZero())
	assert.True(t, split.IGST.Equal(decimal.RequireFromString("39.60")), "igst %s", split.IGST)
	assert.True(t, split.Total.Equal(decimal.RequireFromString("39.60")))
}

func TestAggregate_HalvesAlwaysSumToTotal(t *testing.T) {
	split := Aggregate(amounts("0.03", "10.01", "7.77"), JurisdictionIntra)

	assert.True(t, split.CGST.Add(split.SGST).Equal(split.Total),
		"cgst %s + sgst %s != total %s", split.CGST, split.SGST, split.Total)
}

func TestAggregate_Empty(t *testing.T) {
	split := Aggregate(nil, JurisdictionIntra)

	assert.True(t, split.CGST.IsZero())
	assert.True(t, split.SGST.IsZero())
	assert.True(t, split.IGST.IsZero())
	assert.True(t, split.Total.IsZero())
}

func TestTable_RateFor(t *testing.T) {
	table := NewTable(decimal.RequireFromString("18"))
	table.SetRate("P-MILK", decimal.RequireFromString("5"))

	assert.True(t, table.RateFor("P-MILK").Equal(decimal.RequireFromString("5")))
	assert.True(t, table.RateFor("P-UNKNOWN").Equal(decimal.RequireFromString("18")))
}
