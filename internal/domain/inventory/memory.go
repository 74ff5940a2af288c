package inventory

import (
	"context"
	"sort"
	"sync"
	"time"

	"retailcore/internal/core/apperror"
)

// MemoryRepository is a mutex-guarded in-memory Repository. It backs
// tests and the seed tool; the postgres repository is the production
// implementation.
type MemoryRepository struct {
	mu      sync.Mutex
	batches map[string]*Batch
}

// NewMemoryRepository creates an empty in-memory batch store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{batches: make(map[string]*Batch)}
}

func (r *MemoryRepository) ListBatches(_ context.Context, productID string) ([]Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Batch
	for _, b := range r.batches {
		if b.ProductID == productID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchNo < out[j].BatchNo })
	return out, nil
}

func (r *MemoryRepository) GetBatch(_ context.Context, productID, batchNo string) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[claimKey(productID, batchNo)]
	if !ok {
		return nil, apperror.NewNotFound("batch", batchNo).WithDetail("product_id", productID)
	}
	copied := *b
	return &copied, nil
}

func (r *MemoryRepository) Decrement(_ context.Context, productID, batchNo string, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[claimKey(productID, batchNo)]
	if !ok {
		return apperror.NewNotFound("batch", batchNo).WithDetail("product_id", productID)
	}
	if b.QuantityOnHand < quantity {
		return apperror.NewInsufficientStock(productID, batchNo, quantity, b.QuantityOnHand)
	}
	b.QuantityOnHand -= quantity
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) Increment(_ context.Context, productID, batchNo string, quantity int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[claimKey(productID, batchNo)]
	if !ok {
		return apperror.NewNotFound("batch", batchNo).WithDetail("product_id", productID)
	}
	b.QuantityOnHand += quantity
	b.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemoryRepository) CreateBatch(_ context.Context, batch Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := claimKey(batch.ProductID, batch.BatchNo)
	if _, ok := r.batches[key]; ok {
		return apperror.NewDuplicate("batch", "batch_no", batch.BatchNo)
	}
	copied := batch
	r.batches[key] = &copied
	return nil
}
