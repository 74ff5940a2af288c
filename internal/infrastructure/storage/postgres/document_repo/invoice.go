package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceLinesTable = "doc_invoice_lines"
)

var invoiceColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"invoice_no", "customer_id", "customer_state_code", "payment_method", "status",
	"subtotal", "item_discount_total", "bill_discount_amount",
	"loyalty_points_used", "loyalty_amount", "discount_amount", "taxable_amount",
	"cgst_amount", "sgst_amount", "igst_amount", "tax_amount",
	"round_off", "grand_total",
}

var invoiceLineColumns = []string{
	"line_no", "product_id", "batch_no", "quantity", "unit_price",
	"discount_amount", "taxable_amount", "tax_rate", "tax_amount", "line_total",
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]

	txManager *postgres.TxManager
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			invoicesTable,
			"invoice_no",
			invoiceColumns,
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
		txManager: txManager,
	}
}

// GetLines loads the table part ordered by line number.
func (r *InvoiceRepo) GetLines(ctx context.Context, docID id.ID) ([]invoice.Line, error) {
	q := r.Builder().
		Select(invoiceLineColumns...).
		From(invoiceLinesTable).
		Where(squirrel.Eq{"invoice_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.Line
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select invoice lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the table part atomically within the caller's
// transaction.
func (r *InvoiceRepo) SaveLines(ctx context.Context, docID id.ID, lines []invoice.Line) error {
	querier := r.txManager.GetQuerier(ctx)

	delQ := r.Builder().
		Delete(invoiceLinesTable).
		Where(squirrel.Eq{"invoice_id": docID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete invoice lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	insQ := r.Builder().
		Insert(invoiceLinesTable).
		Columns(append([]string{"invoice_id"}, invoiceLineColumns...)...)
	for _, line := range lines {
		insQ = insQ.Values(
			docID, line.LineNo, line.ProductID, line.BatchNo, line.Quantity,
			line.UnitPrice, line.DiscountAmount, line.TaxableAmount,
			line.TaxRate, line.TaxAmount, line.LineTotal,
		)
	}

	sql, args, err = insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invoice lines: %w", err)
	}
	return nil
}

// List retrieves invoices with filtering.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	var extra []squirrel.Sqlizer
	if filter.CustomerID != nil {
		extra = append(extra, squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}

var _ invoice.Repository = (*InvoiceRepo)(nil)
