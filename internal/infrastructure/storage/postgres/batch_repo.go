package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/inventory"
)

const batchesTable = "inv_batches"

// BatchRepo implements inventory.Repository. The decrement is a single
// guarded UPDATE, so the never-negative invariant holds under any
// number of concurrent committers without explicit row locks.
type BatchRepo struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txManager *TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var batchColumns = []string{
	"product_id", "batch_no", "quantity_on_hand", "expiry_date",
	"retail_price", "wholesale_price", "tax_rate", "updated_at",
}

func (r *BatchRepo) ListBatches(ctx context.Context, productID string) ([]inventory.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID}).
		// Zero expiry means no expiry; those batches sort last.
		OrderBy("NULLIF(expiry_date, '0001-01-01'::timestamptz) NULLS LAST", "batch_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []inventory.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}
	return batches, nil
}

func (r *BatchRepo) GetBatch(ctx context.Context, productID, batchNo string) (*inventory.Batch, error) {
	q := r.builder.Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"product_id": productID, "batch_no": batchNo})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batch inventory.Batch
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &batch, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchNo).WithDetail("product_id", productID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &batch, nil
}

// Decrement reduces quantity on hand atomically. The WHERE guard makes
// the losing concurrent writer affect zero rows instead of driving the
// quantity negative.
func (r *BatchRepo) Decrement(ctx context.Context, productID, batchNo string, quantity int64) error {
	sql := `
		UPDATE inv_batches
		SET quantity_on_hand = quantity_on_hand - $1, updated_at = NOW()
		WHERE product_id = $2 AND batch_no = $3 AND quantity_on_hand >= $1
	`

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, quantity, productID, batchNo)
	if err != nil {
		return fmt.Errorf("decrement batch: %w", err)
	}

	if result.RowsAffected() == 0 {
		batch, err := r.GetBatch(ctx, productID, batchNo)
		if err != nil {
			return err
		}
		return apperror.NewInsufficientStock(productID, batchNo, quantity, batch.QuantityOnHand)
	}
	return nil
}

func (r *BatchRepo) Increment(ctx context.Context, productID, batchNo string, quantity int64) error {
	sql := `
		UPDATE inv_batches
		SET quantity_on_hand = quantity_on_hand + $1, updated_at = NOW()
		WHERE product_id = $2 AND batch_no = $3
	`

	querier := r.txManager.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, quantity, productID, batchNo)
	if err != nil {
		return fmt.Errorf("increment batch: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchNo).WithDetail("product_id", productID)
	}
	return nil
}

func (r *BatchRepo) CreateBatch(ctx context.Context, batch inventory.Batch) error {
	if batch.UpdatedAt.IsZero() {
		batch.UpdatedAt = time.Now().UTC()
	}

	q := r.builder.Insert(batchesTable).SetMap(StructToMap(batch))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

var _ inventory.Repository = (*BatchRepo)(nil)
