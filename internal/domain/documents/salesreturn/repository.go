package salesreturn

import (
	"context"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/lifecycle"
)

// Repository defines operations for sales return documents.
type Repository interface {
	Create(ctx context.Context, doc *SalesReturn) error
	GetByID(ctx context.Context, docID id.ID) (*SalesReturn, error)

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// UpdateStatus performs a compare-and-set on (id, status).
	UpdateStatus(ctx context.Context, docID id.ID, from, to lifecycle.Status) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesReturn], error)
}

// ListFilter for filtering sales returns.
type ListFilter struct {
	domain.ListFilter

	InvoiceID  *id.ID
	CustomerID *string
}
