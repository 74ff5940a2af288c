package invoice

import "retailcore/pkg/numerator"

const (
	// NumeratorPrefix is the document number prefix (INV-2026-00001).
	NumeratorPrefix = "INV"

	// NumeratorStrategy is Strict: invoices are fiscal documents and the
	// sequence must be gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
