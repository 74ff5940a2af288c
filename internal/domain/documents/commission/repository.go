package commission

import (
	"context"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/lifecycle"
)

// Repository defines operations for commission vouchers.
type Repository interface {
	Create(ctx context.Context, doc *Commission) error
	GetByID(ctx context.Context, docID id.ID) (*Commission, error)

	// UpdateStatus performs a compare-and-set on (id, status).
	UpdateStatus(ctx context.Context, docID id.ID, from, to lifecycle.Status) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Commission], error)
}

// ListFilter for filtering commission vouchers.
type ListFilter struct {
	domain.ListFilter

	AgentID   *string
	InvoiceID *id.ID
}
