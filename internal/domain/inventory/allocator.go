package inventory

import (
	"context"
	"sort"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/pkg/logger"
)

// LineRequest asks for quantity of a product, optionally pinned to a batch.
type LineRequest struct {
	LineNo    int
	ProductID string
	BatchNo   string // empty: allocator picks by FEFO
	Quantity  int64
}

// Allocation is one resolved (product, batch, quantity) decrement.
type Allocation struct {
	LineNo    int
	ProductID string
	BatchNo   string
	Quantity  int64
}

// Plan is a validated dry run covering every line of a document.
// Nothing is decremented until Commit.
type Plan struct {
	Allocations []Allocation
}

// Allocator resolves line requests into concrete batches and performs
// the all-or-nothing decrement tied to document commit.
type Allocator struct {
	repo       Repository
	maxRetries int
	now        func() time.Time
}

// NewAllocator creates an allocator over the given batch repository.
func NewAllocator(repo Repository) *Allocator {
	return &Allocator{
		repo:       repo,
		maxRetries: 3,
		now:        time.Now,
	}
}

// PlanAllocations computes a dry-run plan. Explicit batches are validated
// for sufficient quantity; unspecified batches are resolved
// first-expiry-first-out among non-past batches with stock. The plan
// accounts for earlier lines of the same document drawing on the same
// batch. No state is mutated.
func (a *Allocator) PlanAllocations(ctx context.Context, lines []LineRequest) (*Plan, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one line item is required").
			WithDetail("field", "items")
	}

	plan := &Plan{Allocations: make([]Allocation, 0, len(lines))}
	// Quantities already claimed by earlier lines in this plan.
	claimed := make(map[string]int64)

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity").
				WithDetail("line_no", line.LineNo)
		}

		alloc, err := a.resolveLine(ctx, line, claimed)
		if err != nil {
			return nil, err
		}

		claimed[claimKey(alloc.ProductID, alloc.BatchNo)] += alloc.Quantity
		plan.Allocations = append(plan.Allocations, alloc)
	}

	return plan, nil
}

func (a *Allocator) resolveLine(ctx context.Context, line LineRequest, claimed map[string]int64) (Allocation, error) {
	if line.BatchNo != "" {
		batch, err := a.repo.GetBatch(ctx, line.ProductID, line.BatchNo)
		if err != nil {
			return Allocation{}, err
		}
		available := batch.QuantityOnHand - claimed[claimKey(line.ProductID, line.BatchNo)]
		if available < line.Quantity {
			return Allocation{}, apperror.NewInsufficientStock(line.ProductID, line.BatchNo, line.Quantity, available).
				WithDetail("line_no", line.LineNo)
		}
		return Allocation{
			LineNo:    line.LineNo,
			ProductID: line.ProductID,
			BatchNo:   line.BatchNo,
			Quantity:  line.Quantity,
		}, nil
	}

	batches, err := a.repo.ListBatches(ctx, line.ProductID)
	if err != nil {
		return Allocation{}, err
	}

	now := a.now()
	candidates := batches[:0:0]
	for _, b := range batches {
		if b.Expired(now) {
			continue
		}
		if b.QuantityOnHand-claimed[claimKey(b.ProductID, b.BatchNo)] > 0 {
			candidates = append(candidates, b)
		}
	}

	// Earliest expiry first; batches without expiry go last.
	sort.SliceStable(candidates, func(i, j int) bool {
		ei, ej := candidates[i].ExpiryDate, candidates[j].ExpiryDate
		if ei.IsZero() {
			return false
		}
		if ej.IsZero() {
			return true
		}
		return ei.Before(ej)
	})

	var totalAvailable int64
	for _, b := range candidates {
		available := b.QuantityOnHand - claimed[claimKey(b.ProductID, b.BatchNo)]
		totalAvailable += available
		if available >= line.Quantity {
			return Allocation{
				LineNo:    line.LineNo,
				ProductID: line.ProductID,
				BatchNo:   b.BatchNo,
				Quantity:  line.Quantity,
			}, nil
		}
	}

	return Allocation{}, apperror.NewInsufficientStock(line.ProductID, "", line.Quantity, totalAvailable).
		WithDetail("line_no", line.LineNo)
}

// Commit applies every decrement of the plan. If any guard fails,
// already-applied decrements are compensated before the error surfaces,
// so the plan is all-or-nothing even outside a database transaction.
func (a *Allocator) Commit(ctx context.Context, plan *Plan) error {
	for i, alloc := range plan.Allocations {
		if err := a.repo.Decrement(ctx, alloc.ProductID, alloc.BatchNo, alloc.Quantity); err != nil {
			for j := i - 1; j >= 0; j-- {
				prev := plan.Allocations[j]
				if incErr := a.repo.Increment(ctx, prev.ProductID, prev.BatchNo, prev.Quantity); incErr != nil {
					logger.Error(ctx, "failed to compensate allocation",
						"product_id", prev.ProductID,
						"batch_no", prev.BatchNo,
						"error", incErr,
					)
				}
			}
			return err
		}
	}
	return nil
}

// Allocate runs plan-then-commit, replanning from scratch when a
// concurrent writer wins the race on a batch. Quantities may have
// changed, so a losing writer never partially applies a stale plan.
func (a *Allocator) Allocate(ctx context.Context, lines []LineRequest) (*Plan, error) {
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		plan, err := a.PlanAllocations(ctx, lines)
		if err != nil {
			return nil, err
		}

		err = a.Commit(ctx, plan)
		if err == nil {
			return plan, nil
		}
		lastErr = err

		if !apperror.IsInsufficientStock(err) && !apperror.IsConcurrentModification(err) {
			return nil, err
		}
		logger.Debug(ctx, "allocation lost race, replanning", "attempt", attempt+1)
	}

	return nil, lastErr
}

// Reverse re-increments the plan's batches by the allocated quantities
// (return completion or invoice void). When the original batch no longer
// exists, the quantity lands on the product's correction batch instead
// of failing silently.
func (a *Allocator) Reverse(ctx context.Context, allocations []Allocation) error {
	for _, alloc := range allocations {
		err := a.repo.Increment(ctx, alloc.ProductID, alloc.BatchNo, alloc.Quantity)
		if err == nil {
			continue
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		logger.Warn(ctx, "original batch missing on reversal, using correction batch",
			"product_id", alloc.ProductID,
			"batch_no", alloc.BatchNo,
		)
		if err := a.creditCorrectionBatch(ctx, alloc.ProductID, alloc.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (a *Allocator) creditCorrectionBatch(ctx context.Context, productID string, quantity int64) error {
	err := a.repo.Increment(ctx, productID, CorrectionBatchNo, quantity)
	if err == nil {
		return nil
	}
	if !apperror.IsNotFound(err) {
		return err
	}
	return a.repo.CreateBatch(ctx, Batch{
		ProductID:      productID,
		BatchNo:        CorrectionBatchNo,
		QuantityOnHand: quantity,
		UpdatedAt:      a.now().UTC(),
	})
}

func claimKey(productID, batchNo string) string {
	return productID + "/" + batchNo
}
