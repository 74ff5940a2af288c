package salesreturn

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"retailcore/internal/core/apperror"
	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/audit"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/domain/tax"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// ItemRequest is one returned line. BatchNo narrows the match when the
// invoice has the same product on several batches.
type ItemRequest struct {
	ProductID string
	BatchNo   string
	Quantity  int64
}

// CreateRequest opens a pending return against an invoice.
type CreateRequest struct {
	InvoiceID id.ID
	Items     []ItemRequest
	Reason    string
}

// InvoiceLookup is the slice of the invoice service the return flow needs.
type InvoiceLookup interface {
	GetByID(ctx context.Context, docID id.ID) (*invoice.Invoice, error)
}

// Service provides business operations for sales returns.
type Service struct {
	repo       Repository
	invoices   InvoiceLookup
	allocator  *inventory.Allocator
	auditStore audit.Store
	numerator  *numerator.Service
	txManager  tx.Manager
}

// NewService creates a new sales return service.
func NewService(
	repo Repository,
	invoices InvoiceLookup,
	allocator *inventory.Allocator,
	auditStore audit.Store,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		invoices:   invoices,
		allocator:  allocator,
		auditStore: auditStore,
		numerator:  num,
		txManager:  txManager,
	}
}

// Create opens a PENDING return. Refund figures come from the invoice's
// committed amounts per unit; nothing is recomputed from catalog prices
// and no stock moves yet.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*SalesReturn, error) {
	inv, err := s.invoices.GetByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Voided() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot return against a voided invoice").
			WithDetail("invoice_id", inv.ID)
	}

	doc := NewSalesReturn(inv.ID, inv.InvoiceNo, inv.CustomerID, req.Reason)

	for i, item := range req.Items {
		line, err := matchInvoiceLine(inv, item)
		if err != nil {
			return nil, err
		}
		if item.Quantity > line.Quantity {
			return nil, apperror.NewValidation("returned quantity exceeds invoiced quantity").
				WithDetail("product_id", item.ProductID).
				WithDetail("invoiced", line.Quantity).
				WithDetail("requested", item.Quantity)
		}

		qty := decimal.NewFromInt(item.Quantity)
		invoiced := decimal.NewFromInt(line.Quantity)
		taxable := line.TaxableAmount.Mul(qty).Div(invoiced)
		taxAmt := line.TaxAmount.Mul(qty).Div(invoiced)

		doc.Lines = append(doc.Lines, Line{
			LineNo:        i + 1,
			ProductID:     line.ProductID,
			BatchNo:       line.BatchNo,
			Quantity:      item.Quantity,
			UnitPrice:     line.UnitPrice,
			TaxableAmount: taxable,
			TaxRate:       line.TaxRate,
			TaxAmount:     taxAmt,
			RefundAmount:  taxable.Add(taxAmt),
		})

		doc.TaxableAmount = doc.TaxableAmount.Add(taxable)
		doc.TaxAmount = doc.TaxAmount.Add(taxAmt)
	}

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	split := tax.Aggregate(lineTaxes(doc.Lines), jurisdictionOf(inv))
	doc.CGSTAmount = split.CGST
	doc.SGSTAmount = split.SGST
	doc.IGSTAmount = split.IGST

	unrounded := doc.TaxableAmount.Add(doc.TaxAmount)
	doc.RoundOff = types.RoundOff(unrounded)
	doc.RefundTotal = types.RoundMoney(unrounded)

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix),
		&numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.ReturnNo = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeReturn, doc.ID, lifecycle.Record{
			To:    doc.Status,
			Actor: appctx.GetActorID(ctx),
			At:    doc.CreatedAt,
		}))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return created", "id", doc.ID, "return_no", doc.ReturnNo, "invoice_no", doc.InvoiceNo)
	return doc, nil
}

// GetByID retrieves a return with lines and audit trail.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SalesReturn, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Approve moves the return to APPROVED.
func (s *Service) Approve(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*SalesReturn, error) {
	return s.transition(ctx, docID, lifecycle.StatusApproved, meta)
}

// Reject moves the return to REJECTED (terminal).
func (s *Service) Reject(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*SalesReturn, error) {
	return s.transition(ctx, docID, lifecycle.StatusRejected, meta)
}

// Complete finishes an approved return: the status flips and the
// returned quantities go back to their original batches atomically.
func (s *Service) Complete(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*SalesReturn, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := lifecycle.Transition(doc, lifecycle.StatusCompleted, meta); err != nil {
		return nil, err
	}
	rec := doc.Trail[len(doc.Trail)-1]

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, doc.ID, from, lifecycle.StatusCompleted); err != nil {
			return err
		}
		if err := s.allocator.Reverse(ctx, allocationsFrom(doc.Lines)); err != nil {
			return err
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeReturn, doc.ID, rec))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return completed", "id", doc.ID, "return_no", doc.ReturnNo)
	return doc, nil
}

// List retrieves returns with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesReturn], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) transition(ctx context.Context, docID id.ID, target lifecycle.Status, meta lifecycle.Meta) (*SalesReturn, error) {
	doc, err := s.GetByID(ctx, docID)
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
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeReturn, doc.ID, rec))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales return transitioned",
		"id", doc.ID, "return_no", doc.ReturnNo, "from", from, "to", target)
	return doc, nil
}

func matchInvoiceLine(inv *invoice.Invoice, item ItemRequest) (*invoice.Line, error) {
	for i := range inv.Lines {
		line := &inv.Lines[i]
		if line.ProductID != item.ProductID {
			continue
		}
		if item.BatchNo != "" && line.BatchNo != item.BatchNo {
			continue
		}
		return line, nil
	}
	return nil, apperror.NewValidation("product was not sold on this invoice").
		WithDetail("product_id", item.ProductID).
		WithDetail("batch_no", item.BatchNo)
}

// jurisdictionOf infers the split policy from the invoice's committed
// amounts instead of re-deriving it from state codes.
func jurisdictionOf(inv *invoice.Invoice) tax.Jurisdiction {
	if inv.IGSTAmount.IsPositive() {
		return tax.JurisdictionInter
	}
	return tax.JurisdictionIntra
}

func lineTaxes(lines []Line) []types.Money {
	taxes := make([]types.Money, len(lines))
	for i, line := range lines {
		taxes[i] = line.TaxAmount
	}
	return taxes
}

func allocationsFrom(lines []Line) []inventory.Allocation {
	allocs := make([]inventory.Allocation, len(lines))
	for i, line := range lines {
		allocs[i] = inventory.Allocation{
			LineNo:    line.LineNo,
			ProductID: line.ProductID,
			BatchNo:   line.BatchNo,
			Quantity:  line.Quantity,
		}
	}
	return allocs
}
