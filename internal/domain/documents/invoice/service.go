package invoice

import (
	"context"
	"fmt"
	"time"

	appctx "retailcore/internal/core/context"
	"retailcore/internal/core/id"
	"retailcore/internal/core/tx"
	"retailcore/internal/core/types"
	"retailcore/internal/domain"
	"retailcore/internal/domain/audit"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/tax"
	"retailcore/pkg/logger"
	"retailcore/pkg/numerator"
)

// ItemRequest is one requested line. TaxRate nil means the rate is
// resolved from the tax table.
type ItemRequest struct {
	ProductID string
	BatchNo   string
	Quantity  int64
	UnitPrice types.Money
	Discount  pricing.DiscountSpec
	TaxRate   *types.Money
}

// CreateRequest carries everything needed to price and commit an invoice.
type CreateRequest struct {
	CustomerID             string
	CustomerStateCode      string
	PaymentMethod          PaymentMethod
	Items                  []ItemRequest
	BillDiscount           pricing.DiscountSpec
	LoyaltyPointsUsed      int64
	LoyaltyPointsAvailable int64
}

// Service provides business operations for invoices. Commit is atomic:
// pricing, batch allocation and the document row succeed or fail
// together.
type Service struct {
	repo            Repository
	pricer          *pricing.Engine
	allocator       *inventory.Allocator
	taxes           *tax.Table
	auditStore      audit.Store
	numerator       *numerator.Service
	txManager       tx.Manager
	issuerStateCode string
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	pricer *pricing.Engine,
	allocator *inventory.Allocator,
	taxes *tax.Table,
	auditStore audit.Store,
	num *numerator.Service,
	txManager tx.Manager,
	issuerStateCode string,
) *Service {
	return &Service{
		repo:            repo,
		pricer:          pricer,
		allocator:       allocator,
		taxes:           taxes,
		auditStore:      auditStore,
		numerator:       num,
		txManager:       txManager,
		issuerStateCode: issuerStateCode,
	}
}

// Create prices the request, allocates stock batch-by-batch and commits
// the invoice as CREATED. Nothing is decremented when any step fails.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Invoice, error) {
	items := make([]pricing.LineItem, len(req.Items))
	for i, item := range req.Items {
		rate := s.taxes.RateFor(item.ProductID)
		if item.TaxRate != nil {
			rate = *item.TaxRate
		}
		items[i] = pricing.LineItem{
			ProductID: item.ProductID,
			BatchNo:   item.BatchNo,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			TaxRate:   rate,
		}
	}

	var loyalty *pricing.Loyalty
	if req.LoyaltyPointsUsed > 0 {
		loyalty = &pricing.Loyalty{
			PointsRequested: req.LoyaltyPointsUsed,
			PointsAvailable: req.LoyaltyPointsAvailable,
		}
	}

	priced, err := s.pricer.Price(items, req.BillDiscount, loyalty)
	if err != nil {
		return nil, err
	}

	jurisdiction := tax.JurisdictionFor(s.issuerStateCode, req.CustomerStateCode)
	split := tax.Aggregate(priced.LineTaxes(), jurisdiction)

	doc := s.buildDocument(req, priced, split)

	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(NumeratorPrefix),
		&numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	doc.InvoiceNo = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.allocator.Allocate(ctx, lineRequests(doc.Lines))
		if err != nil {
			return err
		}
		applyAllocations(doc.Lines, plan)

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		created := audit.NewEntry(lifecycle.DocTypeInvoice, doc.ID, lifecycle.Record{
			To:    doc.Status,
			Actor: appctx.GetActorID(ctx),
			At:    doc.CreatedAt,
		})
		return s.auditStore.Append(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice created",
		"id", doc.ID,
		"invoice_no", doc.InvoiceNo,
		"grand_total", doc.GrandTotal,
	)
	return doc, nil
}

func (s *Service) buildDocument(req CreateRequest, priced *pricing.PricedDocument, split tax.Split) *Invoice {
	doc := NewInvoice(req.CustomerID, req.PaymentMethod)
	doc.CustomerStateCode = req.CustomerStateCode

	doc.Subtotal = priced.Subtotal
	doc.ItemDiscountTotal = priced.ItemDiscountTotal
	doc.BillDiscountAmount = priced.BillDiscountAmount
	doc.LoyaltyPointsUsed = priced.LoyaltyPointsUsed
	doc.LoyaltyAmount = priced.LoyaltyAmount
	doc.DiscountAmount = priced.ItemDiscountTotal.Add(priced.BillDiscountAmount).Add(priced.LoyaltyAmount)
	doc.TaxableAmount = priced.TaxableAmount
	doc.CGSTAmount = split.CGST
	doc.SGSTAmount = split.SGST
	doc.IGSTAmount = split.IGST
	doc.TaxAmount = priced.TaxAmount
	doc.RoundOff = priced.RoundOff
	doc.GrandTotal = priced.GrandTotal

	for _, line := range priced.Lines {
		doc.Lines = append(doc.Lines, Line{
			LineNo:         line.LineNo,
			ProductID:      line.ProductID,
			BatchNo:        line.BatchNo,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			TaxableAmount:  line.TaxableAmount,
			TaxRate:        line.TaxRate,
			TaxAmount:      line.TaxAmount,
			LineTotal:      line.LineTotal,
		})
	}

	return doc
}

// GetByID retrieves an invoice with lines and audit trail.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Invoice, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	entries, err := s.auditStore.ListByDocument(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get trail: %w", err)
	}
	doc.Trail = trailFromEntries(entries)

	return doc, nil
}

// Void transitions the invoice to VOIDED and restores allocated stock.
// The status write is a compare-and-set, so two concurrent voids cannot
// both restore quantities.
func (s *Service) Void(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*Invoice, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := lifecycle.Transition(doc, lifecycle.StatusVoided, meta); err != nil {
		return nil, err
	}
	rec := doc.Trail[len(doc.Trail)-1]

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, doc.ID, from, lifecycle.StatusVoided); err != nil {
			return err
		}
		if err := s.allocator.Reverse(ctx, allocationsFrom(doc.Lines)); err != nil {
			return err
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeInvoice, doc.ID, rec))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice voided", "id", doc.ID, "invoice_no", doc.InvoiceNo, "actor", rec.Actor)
	return doc, nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

func lineRequests(lines []Line) []inventory.LineRequest {
	reqs := make([]inventory.LineRequest, len(lines))
	for i, line := range lines {
		reqs[i] = inventory.LineRequest{
			LineNo:    line.LineNo,
			ProductID: line.ProductID,
			BatchNo:   line.BatchNo,
			Quantity:  line.Quantity,
		}
	}
	return reqs
}

// applyAllocations writes resolved batch numbers back onto the lines.
func applyAllocations(lines []Line, plan *inventory.Plan) {
	byLine := make(map[int]string, len(plan.Allocations))
	for _, alloc := range plan.Allocations {
		byLine[alloc.LineNo] = alloc.BatchNo
	}
	for i := range lines {
		if batchNo, ok := byLine[lines[i].LineNo]; ok {
			lines[i].BatchNo = batchNo
		}
	}
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

func trailFromEntries(entries []audit.Entry) []lifecycle.Record {
	trail := make([]lifecycle.Record, len(entries))
	for i, e := range entries {
		trail[i] = lifecycle.Record{
			From:   lifecycle.Status(e.FromStatus),
			To:     lifecycle.Status(e.ToStatus),
			Actor:  e.Actor,
			Reason: e.Reason,
			At:     e.OccurredAt,
		}
	}
	return trail
}
