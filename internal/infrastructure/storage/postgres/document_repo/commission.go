package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/commission"
	"retailcore/internal/infrastructure/storage/postgres"
)

const commissionsTable = "doc_commissions"

var commissionColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"commission_no", "invoice_id", "invoice_no", "agent_id", "status",
	"rate_percent", "base_amount", "commission_amount",
}

// CommissionRepo implements commission.Repository.
type CommissionRepo struct {
	*BaseDocumentRepo[*commission.Commission]
}

// NewCommissionRepo creates a new commission repository.
func NewCommissionRepo(txManager *postgres.TxManager) *CommissionRepo {
	return &CommissionRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txManager,
			commissionsTable,
			"commission_no",
			commissionColumns,
			func() *commission.Commission { return &commission.Commission{} },
		),
	}
}

// List retrieves commission vouchers with filtering.
func (r *CommissionRepo) List(ctx context.Context, filter commission.ListFilter) (domain.ListResult[*commission.Commission], error) {
	var extra []squirrel.Sqlizer
	if filter.AgentID != nil {
		extra = append(extra, squirrel.Eq{"agent_id": *filter.AgentID})
	}
	if filter.InvoiceID != nil {
		extra = append(extra, squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}
	return r.BaseDocumentRepo.List(ctx, filter.ListFilter, extra...)
}

var _ commission.Repository = (*CommissionRepo)(nil)
