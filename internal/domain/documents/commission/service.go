package commission

import (
	"context"
	"fmt"
	"time"

	"retailcore/internal/core/apperror"
	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/audit"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/lifecycle"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// CreateRequest opens a pending commission voucher.
type CreateRequest struct {
	InvoiceID   id.ID
	AgentID     string
	RatePercent types.Money
}

// InvoiceLookup is the slice of the invoice service the commission flow needs.
type InvoiceLookup interface {
	GetByID(ctx context.Context, docID id.ID) (*invoice.Invoice, error)
}

// Service provides business operations for commission vouchers.
type Service struct {
	repo       Repository
	invoices   InvoiceLookup
	auditStore audit.Store
	numerator  *numerator.Service
	txManager  tx.Manager
}

// NewService creates a new commission service.
func NewService(
	repo Repository,
	invoices InvoiceLookup,
	auditStore audit.Store,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		invoices:   invoices,
		auditStore: auditStore,
		numerator:  num,
		txManager:  txManager,
	}
}

// Create opens a PENDING voucher. The base is the invoice's pre-tax
// taxable amount; the payout never includes collected tax.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Commission, error) {
	inv, err := s.invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Voided() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot commission a voided invoice").
			WithDetail("invoice_id", inv.ID)
	}

	doc := NewCommission(inv.ID, inv.InvoiceNo, req.AgentID, req.RatePercent, inv.TaxableAmount)
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix),
		&numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.CommissionNo = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeCommission, doc.ID, lifecycle.Record{
			To:    doc.Status,
			Actor: appctx.GetActorID(ctx),
			At:    doc.CreatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "commission created",
		"id", doc.ID,
		"commission_no", doc.CommissionNo,
		"agent_id", doc.AgentID,
		"amount", doc.CommissionAmount,
	)
	return doc, nil
}

// GetByID retrieves a voucher.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Commission, error) {
	return s.repo.GetByID(ctx, docID)
}

// Approve moves the voucher to APPROVED.
func (s *Service) Approve(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*Commission, error) {
	return s.transition(ctx, docID, lifecycle.StatusApproved, meta)
}

// Reject moves the voucher to REJECTED (terminal).
func (s *Service) Reject(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*Commission, error) {
	return s.transition(ctx, docID, lifecycle.StatusRejected, meta)
}

// Pay settles an approved voucher (terminal).
func (s *Service) Pay(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*Commission, error) {
	return s.transition(ctx, docID, lifecycle.StatusPaid, meta)
}

// List retrieves vouchers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Commission], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) transition(ctx context.Context, docID id.ID, target lifecycle.Status, meta lifecycle.Meta) (*Commission, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := lifecycle.Transition(doc, target, meta); err != nil {
		return nil, err
	}
	rec := doc.Trail[len(doc.Trail)-1]

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, doc.ID, from, target); err != nil {
			return err
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeCommission, doc.ID, rec))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "commission transitioned",
		"id", doc.ID, "commission_no", doc.CommissionNo, "from", from, "to", target)
	return doc, nil
}
