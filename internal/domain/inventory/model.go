// Package inventory provides batch-level stock allocation. Batches are
// the only shared mutable state in the engine; every decrement is guarded
// so quantity on hand never goes negative under concurrent commits.
package inventory

import (
	"time"

	"retailcore/internal/core/types"
)

// CorrectionBatchNo receives reversal quantities when the originally
// allocated batch no longer exists.
const CorrectionBatchNo = "CORRECTION"

// Batch is a dated lot of a product with its own quantity and expiry.
type Batch struct {
	ProductID      string      `db:"product_id" json:"productId"`
	BatchNo        string      `db:"batch_no" json:"batchNo"`
	QuantityOnHand int64       `db:"quantity_on_hand" json:"quantityOnHand"`
	ExpiryDate     time.Time   `db:"expiry_date" json:"expiryDate"`
	RetailPrice    types.Money `db:"retail_price" json:"retailPrice"`
	WholesalePrice types.Money `db:"wholesale_price" json:"wholesalePrice"`
	TaxRate        types.Money `db:"tax_rate" json:"taxRate"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updatedAt"`
}

// Expired reports whether the batch is past its expiry at the given time.
// Batches without an expiry date never expire.
func (b Batch) Expired(now time.Time) bool {
	return !b.ExpiryDate.IsZero() && b.ExpiryDate.Before(now)
}
