package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/audit"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/domain/pricing"
	"retailcore/internal/domain/tax"
	"retailcore/pkg/numerator"
)

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqRow struct{ val int64 }

func (r seqRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.val
	return nil
}

// seqQuerier backs the numerator with an in-memory sequence.
type seqQuerier struct {
	sequences map[string]int64
}

func (q *seqQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	key := args[0].(string)
	q.sequences[key]++
	return seqRow{val: q.sequences[key]}
}

type memRepo struct {
	docs  map[id.ID]*Invoice
	lines map[id.ID][]Line
}

func newMemRepo() *memRepo {
	return &memRepo{docs: make(map[id.ID]*Invoice), lines: make(map[id.ID][]Line)}
}

func (r *memRepo) Create(_ context.Context, doc *Invoice) error {
	copied := *doc
	r.docs[doc.ID] = &copied
	return nil
}

func (r *memRepo) GetByID(_ context.Context, docID id.ID) (*Invoice, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", docID)
	}
	copied := *doc
	return &copied, nil
}

func (r *memRepo) GetByNumber(_ context.Context, invoiceNo string) (*Invoice, error) {
	for _, doc := range r.docs {
		if doc.InvoiceNo == invoiceNo {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", invoiceNo)
}

func (r *memRepo) GetLines(_ context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *memRepo) SaveLines(_ context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *memRepo) UpdateStatus(_ context.Context, docID id.ID, from, to lifecycle.Status) error {
	doc, ok := r.docs[docID]
	if !ok || doc.Status != from {
		return apperror.NewConcurrentModification("invoice", docID)
	}
	doc.Status = to
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Invoice], error) {
	out := domain.ListResult[*Invoice]{}
	for _, doc := range r.docs {
		copied := *doc
		out.Items = append(out.Items, &copied)
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
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

type fixture struct {
	svc      *Service
	repo     *memRepo
	stock    *inventory.MemoryRepository
	auditLog *memAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newMemRepo(),
		stock:    inventory.NewMemoryRepository(),
		auditLog: &memAudit{},
	}

	taxes := tax.NewTable(decimal.RequireFromString("18"))
	taxes.SetRate("P1", decimal.RequireFromString("12"))

	f.svc = NewService(
		f.repo,
		pricing.NewEngine(decimal.NewFromInt(1)),
		inventory.NewAllocator(f.stock),
		taxes,
		f.auditLog,
		numerator.New(&seqQuerier{sequences: make(map[string]int64)}),
		noopTx{},
		"27",
	)
	return f
}

func (f *fixture) seedBatch(t *testing.T, productID, batchNo string, qty int64, expiry time.Time) {
	t.Helper()
	require.NoError(t, f.stock.CreateBatch(context.Background(), inventory.Batch{
		ProductID:      productID,
		BatchNo:        batchNo,
		QuantityOnHand: qty,
		ExpiryDate:     expiry,
	}))
}

func (f *fixture) stockOf(t *testing.T, productID, batchNo string) int64 {
	t.Helper()
	b, err := f.stock.GetBatch(context.Background(), productID, batchNo)
	require.NoError(t, err)
	return b.QuantityOnHand
}

func basicRequest() CreateRequest {
	return CreateRequest{
		CustomerID:    "CUST-1",
		PaymentMethod: PaymentCash,
		Items: []ItemRequest{{
			ProductID: "P1",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("100"),
			Discount:  pricing.DiscountSpec{Mode: pricing.DiscountPercent, Value: decimal.RequireFromString("10")},
		}},
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	far := time.Now().AddDate(1, 0, 0)
	near := time.Now().AddDate(0, 1, 0)
	f.seedBatch(t, "P1", "LATE", 50, far)
	f.seedBatch(t, "P1", "SOON", 50, near)

	doc, err := f.svc.Create(context.Background(), basicRequest())
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("INV-%d-00001", time.Now().Year()), doc.InvoiceNo)
	assert.Equal(t, lifecycle.StatusCreated, doc.Status)

	// 200 gross, 10% item discount, 12% tax from the rate table.
	assert.True(t, doc.TaxableAmount.Equal(decimal.RequireFromString("180")))
	assert.True(t, doc.TaxAmount.Equal(decimal.RequireFromString("21.60")))
	assert.True(t, doc.GrandTotal.Equal(decimal.RequireFromString("201.60")))

	// Intrastate: tax split evenly, nothing on IGST.
	assert.True(t, doc.CGSTAmount.Equal(decimal.RequireFromString("10.80")), "cgst %s", doc.CGSTAmount)
	assert.True(t, doc.SGSTAmount.Equal(decimal.RequireFromString("10.80")))
	assert.True(t, doc.IGSTAmount.IsZero())

	// The earliest-expiring batch was picked and decremented.
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "SOON", doc.Lines[0].BatchNo)
	assert.Equal(t, int64(48), f.stockOf(t, "P1", "SOON"))
	assert.Equal(t, int64(50), f.stockOf(t, "P1", "LATE"))

	stored, err := f.svc.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Lines, 1)
	require.Len(t, stored.Trail, 1)
	assert.Equal(t, lifecycle.StatusCreated, stored.Trail[0].To)
}

func TestCreate_Interstate(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	req := basicRequest()
	req.CustomerStateCode = "29"
	doc, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, doc.CGSTAmount.IsZero())
	assert.True(t, doc.SGSTAmount.IsZero())
	assert.True(t, doc.IGSTAmount.Equal(decimal.RequireFromString("21.60")), "igst %s", doc.IGSTAmount)
}

func TestCreate_InsufficientStockLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 1, time.Now().AddDate(1, 0, 0))

	_, err := f.svc.Create(context.Background(), basicRequest())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err), "got %v", err)

	assert.Empty(t, f.repo.docs)
	assert.Empty(t, f.auditLog.entries)
	assert.Equal(t, int64(1), f.stockOf(t, "P1", "B1"))
}

func TestCreate_PricingErrorDoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	req := basicRequest()
	req.BillDiscount = pricing.DiscountSpec{Mode: pricing.DiscountPercent, Value: decimal.RequireFromString("150")}

	_, err := f.svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidDiscount))
	assert.Equal(t, int64(50), f.stockOf(t, "P1", "B1"))
}

func TestCreate_ExplicitTaxRateOverridesTable(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	rate := decimal.RequireFromString("28")
	req := basicRequest()
	req.Items[0].TaxRate = &rate

	doc, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, doc.TaxAmount.Equal(decimal.RequireFromString("50.40")), "tax %s", doc.TaxAmount)
}

func TestCreate_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	first, err := f.svc.Create(context.Background(), basicRequest())
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), basicRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), numerator.ParseNumber(first.InvoiceNo))
	assert.Equal(t, int64(2), numerator.ParseNumber(second.InvoiceNo))
}

func TestVoid(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	doc, err := f.svc.Create(context.Background(), basicRequest())
	require.NoError(t, err)
	require.Equal(t, int64(48), f.stockOf(t, "P1", "B1"))

	voided, err := f.svc.Void(context.Background(), doc.ID, lifecycle.Meta{Actor: "manager-1", Reason: "entry error"})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusVoided, voided.Status)
	assert.Equal(t, int64(50), f.stockOf(t, "P1", "B1"))

	stored, err := f.repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusVoided, stored.Status)

	// Second void hits the terminal state.
	_, err = f.svc.Void(context.Background(), doc.ID, lifecycle.Meta{})
	require.Error(t, err)
	assert.True(t, apperror.IsIllegalTransition(err), "got %v", err)
	assert.Equal(t, int64(50), f.stockOf(t, "P1", "B1"))
}

func TestVoid_RestoresToCorrectionBatchWhenOriginalGone(t *testing.T) {
	f := newFixture(t)
	f.seedBatch(t, "P1", "B1", 50, time.Now().AddDate(1, 0, 0))

	doc, err := f.svc.Create(context.Background(), basicRequest())
	require.NoError(t, err)

	// Simulate the batch disappearing before the void.
	f.repo.lines[doc.ID][0].BatchNo = "GONE"

	_, err = f.svc.Void(context.Background(), doc.ID, lifecycle.Meta{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.stockOf(t, "P1", inventory.CorrectionBatchNo))
}
