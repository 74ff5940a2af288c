package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
)

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func seedRepo(t *testing.T, batches ...Batch) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	for _, b := range batches {
		require.NoError(t, repo.CreateBatch(context.Background(), b))
	}
	return repo
}

func fixedAllocator(repo Repository) *Allocator {
	a := NewAllocator(repo)
	a.now = func() time.Time { return day(0) }
	return a
}

func quantityOf(t *testing.T, repo Repository, productID, batchNo string) int64 {
	t.Helper()
	b, err := repo.GetBatch(context.Background(), productID, batchNo)
	require.NoError(t, err)
	return b.QuantityOnHand
}

func TestPlanAllocations_FEFO(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "LATE", QuantityOnHand: 10, ExpiryDate: day(60)},
		Batch{ProductID: "P1", BatchNo: "EARLY", QuantityOnHand: 10, ExpiryDate: day(10)},
		Batch{ProductID: "P1", BatchNo: "NOEXP", QuantityOnHand: 10},
	)
	a := fixedAllocator(repo)

	plan, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 5},
	})
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, "EARLY", plan.Allocations[0].BatchNo)

	// Nothing is decremented by planning.
	assert.Equal(t, int64(10), quantityOf(t, repo, "P1", "EARLY"))
}

func TestPlanAllocations_SkipsExpiredAndEmptyBatches(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "EXPIRED", QuantityOnHand: 10, ExpiryDate: day(-1)},
		Batch{ProductID: "P1", BatchNo: "EMPTY", QuantityOnHand: 0, ExpiryDate: day(5)},
		Batch{ProductID: "P1", BatchNo: "GOOD", QuantityOnHand: 10, ExpiryDate: day(30)},
	)
	a := fixedAllocator(repo)

	plan, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "GOOD", plan.Allocations[0].BatchNo)
}

func TestPlanAllocations_NoExpiryBatchesPickedLast(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "NOEXP", QuantityOnHand: 10},
		Batch{ProductID: "P1", BatchNo: "DATED", QuantityOnHand: 2, ExpiryDate: day(90)},
	)
	a := fixedAllocator(repo)

	// Dated batch cannot cover the quantity, so the undated one is used.
	plan, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, "NOEXP", plan.Allocations[0].BatchNo)
}

func TestPlanAllocations_ExplicitBatch(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 10, ExpiryDate: day(10)},
		Batch{ProductID: "P1", BatchNo: "B", QuantityOnHand: 10, ExpiryDate: day(60)},
	)
	a := fixedAllocator(repo)

	plan, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", BatchNo: "B", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, "B", plan.Allocations[0].BatchNo)

	_, err = a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", BatchNo: "B", Quantity: 11},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)

	_, err = a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", BatchNo: "MISSING", Quantity: 1},
	})
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestPlanAllocations_AccountsForEarlierLines(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 5, ExpiryDate: day(10)},
		Batch{ProductID: "P1", BatchNo: "B", QuantityOnHand: 5, ExpiryDate: day(60)},
	)
	a := fixedAllocator(repo)

	plan, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 5},
		{LineNo: 2, ProductID: "P1", Quantity: 5},
	})
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 2)
	assert.Equal(t, "A", plan.Allocations[0].BatchNo)
	assert.Equal(t, "B", plan.Allocations[1].BatchNo)

	// A third line cannot draw on quantities already claimed above.
	_, err = a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 5},
		{LineNo: 2, ProductID: "P1", Quantity: 5},
		{LineNo: 3, ProductID: "P1", Quantity: 1},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestPlanAllocations_InsufficientReportsTotalAvailable(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 3, ExpiryDate: day(10)},
		Batch{ProductID: "P1", BatchNo: "B", QuantityOnHand: 4, ExpiryDate: day(60)},
	)
	a := fixedAllocator(repo)

	_, err := a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 20},
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(7), appErr.Details["available"])
	assert.Equal(t, 1, appErr.Details["line_no"])
}

func TestPlanAllocations_Validation(t *testing.T) {
	a := fixedAllocator(NewMemoryRepository())

	_, err := a.PlanAllocations(context.Background(), nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = a.PlanAllocations(context.Background(), []LineRequest{
		{LineNo: 1, ProductID: "P1", Quantity: 0},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCommit_AppliesAllDecrements(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 10, ExpiryDate: day(10)},
		Batch{ProductID: "P2", BatchNo: "B", QuantityOnHand: 10, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	plan := &Plan{Allocations: []Allocation{
		{LineNo: 1, ProductID: "P1", BatchNo: "A", Quantity: 4},
		{LineNo: 2, ProductID: "P2", BatchNo: "B", Quantity: 6},
	}}
	require.NoError(t, a.Commit(context.Background(), plan))

	assert.Equal(t, int64(6), quantityOf(t, repo, "P1", "A"))
	assert.Equal(t, int64(4), quantityOf(t, repo, "P2", "B"))
}

func TestCommit_CompensatesOnPartialFailure(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 10, ExpiryDate: day(10)},
		Batch{ProductID: "P2", BatchNo: "B", QuantityOnHand: 2, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	plan := &Plan{Allocations: []Allocation{
		{LineNo: 1, ProductID: "P1", BatchNo: "A", Quantity: 4},
		{LineNo: 2, ProductID: "P2", BatchNo: "B", Quantity: 6},
	}}
	err := a.Commit(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The first decrement was rolled back.
	assert.Equal(t, int64(10), quantityOf(t, repo, "P1", "A"))
	assert.Equal(t, int64(2), quantityOf(t, repo, "P2", "B"))
}

func TestAllocate_ConcurrentNeverOversells(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 10, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.Allocate(context.Background(), []LineRequest{
				{LineNo: 1, ProductID: "P1", Quantity: 4},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)
		}
	}
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, int64(2), quantityOf(t, repo, "P1", "A"))
}

func TestAllocate_TwoWritersOneBatch(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 5, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = a.Allocate(context.Background(), []LineRequest{
				{LineNo: 1, ProductID: "P1", Quantity: 3},
			})
		}(i)
	}
	wg.Wait()

	// Exactly one writer wins; the loser sees insufficient stock, and
	// the batch ends at 2, never negative.
	if errs[0] == nil {
		require.Error(t, errs[1])
		assert.True(t, apperror.IsInsufficientStock(errs[1]))
	} else {
		require.NoError(t, errs[1])
		assert.True(t, apperror.IsInsufficientStock(errs[0]))
	}
	assert.Equal(t, int64(2), quantityOf(t, repo, "P1", "A"))
}

func TestReverse_RestoresQuantities(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 6, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	err := a.Reverse(context.Background(), []Allocation{
		{LineNo: 1, ProductID: "P1", BatchNo: "A", Quantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), quantityOf(t, repo, "P1", "A"))
}

func TestReverse_MissingBatchFallsBackToCorrection(t *testing.T) {
	repo := seedRepo(t,
		Batch{ProductID: "P1", BatchNo: "A", QuantityOnHand: 6, ExpiryDate: day(10)},
	)
	a := fixedAllocator(repo)

	err := a.Reverse(context.Background(), []Allocation{
		{LineNo: 1, ProductID: "P1", BatchNo: "GONE", Quantity: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), quantityOf(t, repo, "P1", CorrectionBatchNo))

	// A second reversal reuses the correction batch.
	err = a.Reverse(context.Background(), []Allocation{
		{LineNo: 1, ProductID: "P1", BatchNo: "GONE", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), quantityOf(t, repo, "P1", CorrectionBatchNo))
}
