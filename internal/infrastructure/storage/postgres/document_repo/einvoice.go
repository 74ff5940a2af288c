package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/infrastructure/storage/postgres"
)

const einvoicesTable = "doc_einvoices"

var einvoiceColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"invoice_id", "invoice_no", "status", "payload", "payload_hash",
	"irn", "ack_no", "ack_date", "failure_reason", "cancel_reason",
}

// EInvoiceRepo implements einvoice.Repository.
type EInvoiceRepo struct {
	*BaseDocumentRepo[*einvoice.EInvoice]

	txManager *postgres.TxManager
}

// NewEInvoiceRepo creates a new e-invoice repository.
func NewEInvoiceRepo(txManager *postgres.TxManager) *EInvoiceRepo {
	return &EInvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			einvoicesTable,
			"invoice_no",
			einvoiceColumns,
			func() *einvoice.EInvoice { return &einvoice.EInvoice{} },
		),
		txManager: txManager,
	}
}

// GetByInvoiceID returns the registration for an invoice. A unique index
// on invoice_id keeps the relation one-to-one.
func (r *EInvoiceRepo) GetByInvoiceID(ctx context.Context, invoiceID id.ID) (*einvoice.EInvoice, error) {
	doc := &einvoice.EInvoice{}
	q := r.Builder().
		Select(einvoiceColumns...).
		From(einvoicesTable).
		Where(squirrel.Eq{"invoice_id": invoiceID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("einvoice", invoiceID.String()).
				WithDetail("invoice_id", invoiceID)
		}
		return nil, fmt.Errorf("get einvoice by invoice: %w", err)
	}
	return doc, nil
}

// SetRegistration persists the portal receipt.
func (r *EInvoiceRepo) SetRegistration(ctx context.Context, docID id.ID, irn, ackNo string, ackDate time.Time) error {
	return r.SetFields(ctx, docID, map[string]any{
		"irn":      irn,
		"ack_no":   ackNo,
		"ack_date": ackDate,
	})
}

// SetFailure records why generation or submission failed.
func (r *EInvoiceRepo) SetFailure(ctx context.Context, docID id.ID, reason string) error {
	return r.SetFields(ctx, docID, map[string]any{
		"failure_reason": reason,
	})
}

// SetCancellation records the cancellation reason.
func (r *EInvoiceRepo) SetCancellation(ctx context.Context, docID id.ID, reason string) error {
	return r.SetFields(ctx, docID, map[string]any{
		"cancel_reason": reason,
	})
}

// List retrieves e-invoice registrations with filtering.
func (r *EInvoiceRepo) List(ctx context.Context, filter einvoice.ListFilter) (domain.ListResult[*einvoice.EInvoice], error) {
	var extra []squirrel.Sqlizer
	if filter.InvoiceID != nil {
		extra = append(extra, squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}

var _ einvoice.Repository = (*EInvoiceRepo)(nil)
