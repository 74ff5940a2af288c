package salesreturn

import "retailcore/pkg/numerator"

const (
	// NumeratorPrefix is the document number prefix (RET-2026-00001).
	NumeratorPrefix = "RET"

	// NumeratorStrategy is Strict: returns adjust fiscal totals.
	NumeratorStrategy = numerator.StrategyStrict
)
