package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/salesreturn"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "doc_returns"
	returnLinesTable = "doc_return_lines"
)

var returnColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"return_no", "invoice_id", "invoice_no", "customer_id", "reason", "status",
	"taxable_amount", "cgst_amount", "sgst_amount", "igst_amount", "tax_amount",
	"round_off", "refund_total",
}

var returnLineColumns = []string{
	"line_no", "product_id", "batch_no", "quantity", "unit_price",
	"taxable_amount", "tax_rate", "tax_amount", "refund_amount",
}

// SalesReturnRepo implements salesreturn.Repository.
type SalesReturnRepo struct {
	*BaseDocumentRepo[*salesreturn.SalesReturn]

	txManager *postgres.TxManager
}

// NewSalesReturnRepo creates a new sales return repository.
func NewSalesReturnRepo(txManager *postgres.TxManager) *SalesReturnRepo {
	return &SalesReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			returnsTable,
			"return_no",
			returnColumns,
			func() *salesreturn.SalesReturn { return &salesreturn.SalesReturn{} },
		),
		txManager: txManager,
	}
}

// GetLines loads the table part ordered by line number.
func (r *SalesReturnRepo) GetLines(ctx context.Context, docID id.ID) ([]salesreturn.Line, error) {
	q := r.Builder().
		Select(returnLineColumns...).
		From(returnLinesTable).
		Where(squirrel.Eq{"return_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []salesreturn.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select return lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the table part within the caller's transaction.
func (r *SalesReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []salesreturn.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	delQ := r.Builder().
		Delete(returnLinesTable).
		Where(squirrel.Eq{"return_id": docID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete return lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	insQ := r.Builder().
		Insert(returnLinesTable).
		Columns(append([]string{"return_id"}, returnLineColumns...)...)
	for _, line := range lines {
		insQ = insQ.Values(
			docID, line.LineNo, line.ProductID, line.BatchNo, line.Quantity,
			line.UnitPrice, line.TaxableAmount, line.TaxRate,
			line.TaxAmount, line.RefundAmount,
		)
	}

	sql, args, err = insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return lines: %w", err)
	}
	return nil
}

// List retrieves sales returns with filtering.
func (r *SalesReturnRepo) List(ctx context.Context, filter salesreturn.ListFilter) (domain.ListResult[*salesreturn.SalesReturn], error) {
	var extra []squirrel.Sqlizer
	if filter.InvoiceID != nil {
		extra = append(extra, squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}
	if filter.CustomerID != nil {
		extra = append(extra, squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}

var _ salesreturn.Repository = (*SalesReturnRepo)(nil)
