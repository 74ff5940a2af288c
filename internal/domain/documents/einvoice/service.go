package einvoice

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
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
)

// InvoiceLookup is the slice of the invoice service the registration flow needs.
type InvoiceLookup interface {
	GetByID(ctx context.Context, docID id.ID) (*invoice.Invoice, error)
}

// Service provides e-invoice registration operations. Submission is
// idempotent: once an IRN is assigned, repeated submits return it
// without touching the portal again.
type Service struct {
	repo        Repository
	invoices    InvoiceLookup
	portal      Portal
	journal     Journal
	auditStore  audit.Store
	txManager   tx.Manager
	maxAttempts int
	backoffBase time.Duration
}

// NewService creates a new e-invoice service.
func NewService(
	repo Repository,
	invoices InvoiceLookup,
	portal Portal,
	journal Journal,
	auditStore audit.Store,
	txManager tx.Manager,
	maxAttempts int,
	backoffBase time.Duration,
) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	if backoffBase <= 0 {
		backoffBase = 200 * time.Millisecond
	}
	return &Service{
		repo:        repo,
		invoices:    invoices,
		portal:      portal,
		journal:     journal,
		auditStore:  auditStore,
		txManager:   txManager,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Generate builds the portal payload for an invoice and commits the
// registration as GENERATED. Idempotent per invoice: an existing
// registration is returned as-is.
func (s *Service) Generate(ctx context.Context, invoiceID id.ID, meta lifecycle.Meta) (*EInvoice, error) {
	existing, err := s.repo.GetByInvoiceID(ctx, invoiceID)
	if err == nil {
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Voided() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot register a voided invoice").
			WithDetail("invoice_id", inv.ID)
	}

	doc := NewEInvoice(inv.ID, inv.InvoiceNo)
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}

	created := lifecycle.Record{
		To:    doc.Status,
		Actor: appctx.GetActorID(ctx),
		At:    doc.CreatedAt,
	}

	payload, err := buildPayload(inv)
	if err != nil {
		doc.FailureReason = err.Error()
		if terr := lifecycle.Transition(doc, lifecycle.StatusFailed, meta); terr != nil {
			return nil, terr
		}
		if perr := s.persistNew(ctx, doc, created); perr != nil {
			return nil, perr
		}
		return doc, nil
	}

	doc.Payload = payload
	sum := sha256.Sum256(payload)
	doc.PayloadHash = hex.EncodeToString(sum[:])

	if err := lifecycle.Transition(doc, lifecycle.StatusGenerated, meta); err != nil {
		return nil, err
	}
	if err := s.persistNew(ctx, doc, created); err != nil {
		return nil, err
	}

	logger.Info(ctx, "einvoice generated", "id", doc.ID, "invoice_no", doc.InvoiceNo)
	return doc, nil
}

func (s *Service) persistNew(ctx context.Context, doc *EInvoice, created lifecycle.Record) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeEInvoice, doc.ID, created)); err != nil {
			return err
		}
		for _, rec := range doc.Trail {
			if err := s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeEInvoice, doc.ID, rec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Submit registers the document on the portal with bounded retries.
// A journal task is recorded first, so a crash mid-submission is picked
// up by the relay worker. Already-submitted documents return their IRN
// without a portal call.
func (s *Service) Submit(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*EInvoice, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	if doc.Status == lifecycle.StatusSubmitted {
		return doc, nil
	}
	if !lifecycle.CanTransition(lifecycle.DocTypeEInvoice, doc.Status, lifecycle.StatusSubmitted) {
		allowed := allowedActionStrings(doc)
		return nil, apperror.NewIllegalTransition(string(lifecycle.DocTypeEInvoice),
			string(doc.Status), string(lifecycle.StatusSubmitted), allowed)
	}

	task := Task{
		ID:         id.New(),
		EInvoiceID: doc.ID,
		Payload:    doc.Payload,
		Status:     TaskPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.journal.Enqueue(ctx, task); err != nil {
		return nil, err
	}

	sub := Submission{
		IdempotencyKey: doc.ID.String(),
		InvoiceNo:      doc.InvoiceNo,
		Payload:        doc.Payload,
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay(s.backoffBase, attempt-1)):
			}
		}

		ack, err := s.portal.Submit(ctx, sub)
		if err == nil {
			if err := s.finalize(ctx, doc, ack, meta); err != nil {
				return nil, err
			}
			if err := s.journal.MarkSucceeded(ctx, task.ID); err != nil {
				logger.Warn(ctx, "failed to close journal task", "task_id", task.ID, "error", err)
			}
			return doc, nil
		}

		lastErr = err
		if !apperror.IsRetryableSubmission(err) {
			if jerr := s.journal.MarkFailed(ctx, task.ID, err.Error()); jerr != nil {
				logger.Warn(ctx, "failed to park journal task", "task_id", task.ID, "error", jerr)
			}
			return nil, err
		}
		logger.Warn(ctx, "portal submission failed, retrying",
			"einvoice_id", doc.ID, "attempt", attempt+1, "error", err)
	}

	// Retries exhausted in-process; the relay worker takes over.
	retryAt := time.Now().Add(backoffDelay(s.backoffBase, s.maxAttempts))
	if jerr := s.journal.MarkRetry(ctx, task.ID, lastErr.Error(), retryAt); jerr != nil {
		logger.Warn(ctx, "failed to reschedule journal task", "task_id", task.ID, "error", jerr)
	}
	return nil, lastErr
}

// finalize persists the acknowledgement and flips the status. The IRN
// lands before the CAS so a crash between the writes keeps the receipt.
func (s *Service) finalize(ctx context.Context, doc *EInvoice, ack *Acknowledgement, meta lifecycle.Meta) error {
	from := doc.Status
	if err := lifecycle.Transition(doc, lifecycle.StatusSubmitted, meta); err != nil {
		return err
	}
	rec := doc.Trail[len(doc.Trail)-1]

	doc.IRN = ack.IRN
	doc.AckNo = ack.AckNo
	ackDate := ack.AckDate
	doc.AckDate = &ackDate

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetRegistration(ctx, doc.ID, ack.IRN, ack.AckNo, ack.AckDate); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, doc.ID, from, lifecycle.StatusSubmitted); err != nil {
			return err
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeEInvoice, doc.ID, rec))
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "einvoice submitted", "id", doc.ID, "irn", ack.IRN, "ack_no", ack.AckNo)
	return nil
}

// Cancel withdraws the registration. A submitted document is cancelled
// on the portal first; the reason code is mandatory either way.
func (s *Service) Cancel(ctx context.Context, docID id.ID, meta lifecycle.Meta) (*EInvoice, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	from := doc.Status
	if err := lifecycle.Transition(doc, lifecycle.StatusCancelled, meta); err != nil {
		return nil, err
	}
	rec := doc.Trail[len(doc.Trail)-1]

	if from == lifecycle.StatusSubmitted {
		if err := s.portal.Cancel(ctx, doc.IRN, meta.Reason); err != nil {
			return nil, err
		}
	}

	doc.CancelReason = meta.Reason
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SetCancellation(ctx, doc.ID, meta.Reason); err != nil {
			return err
		}
		if err := s.repo.UpdateStatus(ctx, doc.ID, from, lifecycle.StatusCancelled); err != nil {
			return err
		}
		return s.auditStore.Append(ctx, audit.NewEntry(lifecycle.DocTypeEInvoice, doc.ID, rec))
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "einvoice cancelled", "id", doc.ID, "irn", doc.IRN, "reason", meta.Reason)
	return doc, nil
}

// GetByID retrieves a registration.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*EInvoice, error) {
	return s.repo.GetByID(ctx, docID)
}

// GetByInvoiceID retrieves the registration for an invoice.
func (s *Service) GetByInvoiceID(ctx context.Context, invoiceID id.ID) (*EInvoice, error) {
	return s.repo.GetByInvoiceID(ctx, invoiceID)
}

// List retrieves registrations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*EInvoice], error) {
	return s.repo.List(ctx, filter)
}

// portalPayload is the document shape submitted to the portal.
type portalPayload struct {
	InvoiceNo     string      `json:"invoice_no"`
	InvoiceDate   string      `json:"invoice_date"`
	CustomerID    string      `json:"customer_id"`
	StateCode     string      `json:"state_code,omitempty"`
	TaxableAmount types.Money `json:"taxable_amount"`
	CGSTAmount    types.Money `json:"cgst_amount"`
	SGSTAmount    types.Money `json:"sgst_amount"`
	IGSTAmount    types.Money `json:"igst_amount"`
	TaxAmount     types.Money `json:"tax_amount"`
	RoundOff      types.Money `json:"round_off"`
	GrandTotal    types.Money `json:"grand_total"`

	Items []portalItem `json:"items"`
}

type portalItem struct {
	LineNo    int         `json:"line_no"`
	ProductID string      `json:"product_id"`
	Quantity  int64       `json:"quantity"`
	UnitPrice types.Money `json:"unit_price"`
	Taxable   types.Money `json:"taxable_amount"`
	TaxRate   types.Money `json:"tax_rate"`
	TaxAmount types.Money `json:"tax_amount"`
	Total     types.Money `json:"line_total"`
}

func buildPayload(inv *invoice.Invoice) ([]byte, error) {
	p := portalPayload{
		InvoiceNo:     inv.InvoiceNo,
		InvoiceDate:   inv.CreatedAt.UTC().Format("2006-01-02"),
		CustomerID:    inv.CustomerID,
		StateCode:     inv.CustomerStateCode,
		TaxableAmount: inv.TaxableAmount,
		CGSTAmount:    inv.CGSTAmount,
		SGSTAmount:    inv.SGSTAmount,
		IGSTAmount:    inv.IGSTAmount,
		TaxAmount:     inv.TaxAmount,
		RoundOff:      inv.RoundOff,
		GrandTotal:    inv.GrandTotal,
	}
	for _, line := range inv.Lines {
		p.Items = append(p.Items, portalItem{
			LineNo:    line.LineNo,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Taxable:   line.TaxableAmount,
			TaxRate:   line.TaxRate,
			TaxAmount: line.TaxAmount,
			Total:     line.LineTotal,
		})
	}
	return json.Marshal(p)
}

func allowedActionStrings(doc *EInvoice) []string {
	actions := lifecycle.AllowedActions(lifecycle.DocTypeEInvoice, doc.Status)
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

// backoffDelay is exponential from base, capped at five minutes.
func backoffDelay(base time.Duration, retry int) time.Duration {
	const maxDelay = 5 * time.Minute
	d := base
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return d
}
