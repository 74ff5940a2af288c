package inventory

import (
	"context"
)

// Repository is the storage contract for inventory batches.
//
// Decrement must be guarded: it fails with INSUFFICIENT_STOCK instead of
// driving quantity_on_hand negative, atomically with respect to
// concurrent writers (UPDATE ... WHERE quantity_on_hand >= $qty in the
// postgres implementation, a mutex in the in-memory one).
type Repository interface {
	// ListBatches returns all batches for a product.
	ListBatches(ctx context.Context, productID string) ([]Batch, error)

	// GetBatch returns one batch, or a NOT_FOUND error.
	GetBatch(ctx context.Context, productID, batchNo string) (*Batch, error)

	// Decrement atomically reduces quantity on hand. Fails with
	// INSUFFICIENT_STOCK when the guard does not hold, NOT_FOUND when
	// the batch does not exist.
	Decrement(ctx context.Context, productID, batchNo string, quantity int64) error

	// Increment adds quantity back to a batch (reversal path).
	Increment(ctx context.Context, productID, batchNo string, quantity int64) error

	// CreateBatch inserts a new batch (seeding and correction batches).
	CreateBatch(ctx context.Context, batch Batch) error
}
