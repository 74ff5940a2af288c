package einvoice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/audit"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/lifecycle"
)

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRepo struct {
	docs map[id.ID]*EInvoice
	ops  []string
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*EInvoice)}
}

func (r *memRepo) Create(_ context.Context, doc *EInvoice) error {
	r.ops = append(r.ops, "create")
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*EInvoice, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("einvoice", docID)
	}
	copied := *doc
	return &copied, nil
}

func (r *memRepo) GetByInvoiceID(_ context.Context, invoiceID id.ID) (*EInvoice, error) {
	for _, doc := range r.docs {
		if doc.InvoiceID == invoiceID {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("einvoice", invoiceID)
}

func (r *memRepo) SetRegistration(_ context.Context, docID id.ID, irn, ackNo string, ackDate time.Time) error {
	r.ops = append(r.ops, "set_registration")
	doc := r.docs[docID]
	doc.IRN = irn
	doc.AckNo = ackNo
	doc.AckDate = &ackDate
	return nil
}

func (r *memRepo) UpdateStatus(_ context.Context, docID id.ID, from, to lifecycle.Status) error {
	r.ops = append(r.ops, "update_status")
	doc, ok := r.docs[docID]
	if !ok || doc.Status != from {
		return apperror.NewConcurrentModification("einvoice", docID)
	}
	doc.Status = to
	return nil
}

func (r *memRepo) SetFailure(_ context.Context, docID id.ID, reason string) error {
	r.docs[docID].FailureReason = reason
	return nil
}

func (r *memRepo) SetCancellation(_ context.Context, docID id.ID, reason string) error {
	r.docs[docID].CancelReason = reason
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*EInvoice], error) {
	out := domain.ListResult[*EInvoice]{}
	for _, doc := range r.docs {
		copied := *doc
		out.Items = append(out.Items, &copied)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

type memJournal struct {
	tasks     []Task
	succeeded []id.ID
	retried   []id.ID
	failed    []id.ID
}

func (j *memJournal) Enqueue(_ context.Context, task Task) error {
	j.tasks = append(j.tasks, task)
	return nil
}

func (j *memJournal) ClaimPending(_ context.Context, _ int) ([]Task, error) { return nil, nil }

func (j *memJournal) MarkSucceeded(_ context.Context, taskID id.ID) error {
	j.succeeded = append(j.succeeded, taskID)
	return nil
}

func (j *memJournal) MarkRetry(_ context.Context, taskID id.ID, _ string, _ time.Time) error {
	j.retried = append(j.retried, taskID)
	return nil
}

func (j *memJournal) MarkFailed(_ context.Context, taskID id.ID, _ string) error {
	j.failed = append(j.failed, taskID)
	return nil
}

type fakePortal struct {
	submitCalls int
	cancelCalls int
	cancelIRN   string
	submitFn    func(attempt int) (*Acknowledgement, error)
}

func (p *fakePortal) Submit(_ context.Context, _ Submission) (*Acknowledgement, error) {
	p.submitCalls++
	return p.submitFn(p.submitCalls)
}

func (p *fakePortal) Cancel(_ context.Context, irn, _ string) error {
	p.cancelCalls++
	p.cancelIRN = irn
	return nil
}

type memAudit struct {
	entries []audit.Entry
}

func (a *memAudit) Append(_ context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *memAudit) ListByDocument(_ context.Context, docID id.ID) ([]audit.Entry, error) {
	var out []audit.Entry
	for _, e := range a.entries {
		if e.DocumentID == docID {
			out = append(out, e)
		}
	}
	return out, nil
}

type invoiceLookup struct {
	invoices map[id.ID]*invoice.Invoice
}

func (l *invoiceLookup) GetByID(_ context.Context, docID id.ID) (*invoice.Invoice, error) {
	inv, ok := l.invoices[docID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", docID)
	}
	return inv, nil
}

func testInvoice() *invoice.Invoice {
	inv := invoice.NewInvoice("CUST-1", invoice.PaymentCash)
	inv.InvoiceNo = "INV-2026-00001"
	inv.TaxableAmount = decimal.RequireFromString("180")
	inv.TaxAmount = decimal.RequireFromString("21.60")
	inv.GrandTotal = decimal.RequireFromString("201.60")
	inv.Lines = []invoice.Line{{
		LineNo:    1,
		ProductID: "P1",
		BatchNo:   "B1",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("100"),
	}}
	return inv
}

type fixture struct {
	svc      *Service
	repo     *memRepo
	journal  *memJournal
	portal   *fakePortal
	auditLog *memAudit
	inv      *invoice.Invoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemRepo(),
		journal:  &memJournal{},
		portal:   &fakePortal{},
		auditLog: &memAudit{},
		inv:      testInvoice(),
	}
	lookup := &invoiceLookup{invoices: map[id.ID]*invoice.Invoice{f.inv.ID: f.inv}}
	f.svc = NewService(f.repo, lookup, f.portal, f.journal, f.auditLog, noopTx{}, 3, time.Millisecond)
	return f
}

func ack() *Acknowledgement {
	return &Acknowledgement{
		IRN:     "IRN-XYZ",
		AckNo:   "ACK-1",
		AckDate: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{Actor: "pos-1"})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusGenerated, doc.Status)
	assert.Equal(t, f.inv.InvoiceNo, doc.InvoiceNo)
	assert.NotEmpty(t, doc.Payload)
	assert.NotEmpty(t, doc.PayloadHash)
	assert.Contains(t, string(doc.Payload), `"invoice_no":"INV-2026-00001"`)

	// Creation and the PENDING->GENERATED move are both in the trail.
	require.Len(t, f.auditLog.entries, 2)
	assert.Equal(t, string(lifecycle.StatusGenerated), f.auditLog.entries[1].ToStatus)
}

func TestGenerate_IdempotentPerInvoice(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)
	second, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.repo.docs, 1)
}

func TestGenerate_RejectsVoidedInvoice(t *testing.T) {
	f := newFixture(t)
	f.inv.Status = lifecycle.StatusVoided

	_, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule), "got %v", err)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(int) (*Acknowledgement, error) { return ack(), nil }

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	submitted, err := f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{Actor: "pos-1"})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusSubmitted, submitted.Status)
	assert.Equal(t, "IRN-XYZ", submitted.IRN)
	assert.Equal(t, "ACK-1", submitted.AckNo)

	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSubmitted, stored.Status)
	assert.Equal(t, "IRN-XYZ", stored.IRN)

	require.Len(t, f.journal.tasks, 1)
	assert.Equal(t, []id.ID{f.journal.tasks[0].ID}, f.journal.succeeded)

	// The IRN write lands before the status flip.
	assert.Equal(t, []string{"create", "set_registration", "update_status"}, f.repo.ops)
}

func TestSubmit_IdempotentOnceSubmitted(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(int) (*Acknowledgement, error) { return ack(), nil }

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.NoError(t, err)

	again, err := f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.NoError(t, err)

	assert.Equal(t, "IRN-XYZ", again.IRN)
	assert.Equal(t, 1, f.portal.submitCalls)
	assert.Len(t, f.journal.tasks, 1)
}

func TestSubmit_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(attempt int) (*Acknowledgement, error) {
		if attempt < 3 {
			return nil, apperror.NewExternalSubmission("portal unavailable", true)
		}
		return ack(), nil
	}

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	submitted, err := f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.NoError(t, err)

	assert.Equal(t, 3, f.portal.submitCalls)
	assert.Equal(t, "IRN-XYZ", submitted.IRN)
}

func TestSubmit_ExhaustedRetriesHandOffToRelay(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(int) (*Acknowledgement, error) {
		return nil, apperror.NewExternalSubmission("portal unavailable", true)
	}

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.Error(t, err)
	assert.Equal(t, 3, f.portal.submitCalls)

	// Document stays re-submittable; the task is rescheduled, not parked.
	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusGenerated, stored.Status)
	assert.Len(t, f.journal.retried, 1)
	assert.Empty(t, f.journal.failed)
}

func TestSubmit_PermanentRejectionParksTask(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(int) (*Acknowledgement, error) {
		return nil, apperror.NewExternalSubmission("schema rejected", false)
	}

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.Error(t, err)

	assert.Equal(t, 1, f.portal.submitCalls)
	assert.Len(t, f.journal.failed, 1)
	assert.Empty(t, f.journal.retried)
}

func TestSubmit_RequiresGeneratedStatus(t *testing.T) {
	f := newFixture(t)
	doc := NewEInvoice(f.inv.ID, f.inv.InvoiceNo)
	require.NoError(t, f.repo.Create(context.Background(), doc))

	_, err := f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err), "got %v", err)
	assert.Empty(t, f.journal.tasks)
}

func TestCancel_SubmittedGoesThroughPortal(t *testing.T) {
	f := newFixture(t)
	f.portal.submitFn = func(int) (*Acknowledgement, error) { return ack(), nil }

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)
	_, err = f.svc.Submit(context.Background(), doc.ID, lifecycle.Meta{})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), doc.ID, lifecycle.Meta{Actor: "ops", Reason: "1"})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusCancelled, cancelled.Status)
	assert.Equal(t, "1", cancelled.CancelReason)
	assert.Equal(t, 1, f.portal.cancelCalls)
	assert.Equal(t, "IRN-XYZ", f.portal.cancelIRN)
}

func TestCancel_GeneratedSkipsPortal(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), doc.ID, lifecycle.Meta{Reason: "2"})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusCancelled, cancelled.Status)
	assert.Zero(t, f.portal.cancelCalls)
}

func TestCancel_RequiresReason(t *testing.T) {
	f := newFixture(t)

	doc, err := f.svc.Generate(context.Background(), f.inv.ID, lifecycle.Meta{})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), doc.ID, lifecycle.Meta{Actor: "ops"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusGenerated, stored.Status)
}
