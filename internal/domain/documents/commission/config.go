package commission

import "retailcore/pkg/numerator"

const (
	// NumeratorPrefix is the document number prefix (COM-2026-00001).
	NumeratorPrefix = "COM"

	// NumeratorStrategy is Cached: commission vouchers are internal
	// documents, gaps after a restart are acceptable.
	NumeratorStrategy = numerator.StrategyCached
)
