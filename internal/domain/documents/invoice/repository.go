package invoice

import (
	"context"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/lifecycle"
)

// Repository defines operations for invoice documents.
type Repository interface {
	Create(ctx context.Context, doc *Invoice) error
	GetByID(ctx context.Context, docID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, invoiceNo string) (*Invoice, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// UpdateStatus performs a compare-and-set on (id, status). Fails
	// with CONCURRENT_MODIFICATION when the row no longer carries the
	// expected status.
	UpdateStatus(ctx context.Context, docID id.ID, from, to lifecycle.Status) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	CustomerID *string
}
