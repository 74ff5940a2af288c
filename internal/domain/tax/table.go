// Package tax provides the static tax rate table and the document-level
// CGST/SGST/IGST classification of already-computed line tax.
package tax

import (
	"sync"

	"retailcore/internal/core/types"
)

// Jurisdiction determines how line tax is split across GST buckets.
type Jurisdiction string

const (
	// JurisdictionIntra splits each line's tax into CGST and SGST at
	// half its rate each (issuer and counterparty share a state).
	JurisdictionIntra Jurisdiction = "intrastate"

	// JurisdictionInter records the full rate as IGST.
	JurisdictionInter Jurisdiction = "interstate"
)

// JurisdictionFor derives the split policy from GST state codes.
func JurisdictionFor(issuerStateCode, counterpartyStateCode string) Jurisdiction {
	if counterpartyStateCode == "" || issuerStateCode == counterpartyStateCode {
		return JurisdictionIntra
	}
	return JurisdictionInter
}

// Table is a static lookup of the applicable tax rate per product.
// Rates are percentages. Safe for concurrent reads after setup.
type Table struct {
	mu          sync.RWMutex
	rates       map[string]types.Money
	defaultRate types.Money
}

// NewTable creates a rate table with a fallback rate for unlisted products.
func NewTable(defaultRate types.Money) *Table {
	return &Table{
		rates:       make(map[string]types.Money),
		defaultRate: defaultRate,
	}
}

// SetRate registers the tax rate for a product.
func (t *Table) SetRate(productID string, ratePercent types.Money) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[productID] = ratePercent
}

// RateFor returns the product's tax rate, falling back to the default.
func (t *Table) RateFor(productID string) types.Money {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if rate, ok := t.rates[productID]; ok {
		return rate
	}
	return t.defaultRate
}
