// Package invoice provides the sales invoice document: priced lines,
// batch allocations, GST split and the CREATED→VOIDED lifecycle.
package invoice

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/lifecycle"
)

// PaymentMethod is how the customer settles the invoice.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentUPI    PaymentMethod = "UPI"
	PaymentCredit PaymentMethod = "CREDIT"
)

// Invoice is a committed sales document. All monetary fields are the
// pricing engine's output at commit time; they are never recomputed
// after commit.
type Invoice struct {
	entity.BaseDocument

	InvoiceNo         string           `db:"invoice_no" json:"invoiceNo"`
	CustomerID        string           `db:"customer_id" json:"customerId"`
	CustomerStateCode string           `db:"customer_state_code" json:"customerStateCode,omitempty"`
	PaymentMethod     PaymentMethod    `db:"payment_method" json:"paymentMethod"`
	Status            lifecycle.Status `db:"status" json:"status"`

	Subtotal           types.Money `db:"subtotal" json:"subtotal"`
	ItemDiscountTotal  types.Money `db:"item_discount_total" json:"itemDiscountTotal"`
	BillDiscountAmount types.Money `db:"bill_discount_amount" json:"billDiscountAmount"`
	LoyaltyPointsUsed  int64       `db:"loyalty_points_used" json:"loyaltyPointsUsed"`
	LoyaltyAmount      types.Money `db:"loyalty_amount" json:"loyaltyAmount"`
	DiscountAmount     types.Money `db:"discount_amount" json:"discountAmount"`
	TaxableAmount      types.Money `db:"taxable_amount" json:"taxableAmount"`

	CGSTAmount types.Money `db:"cgst_amount" json:"cgstAmount"`
	SGSTAmount types.Money `db:"sgst_amount" json:"sgstAmount"`
	IGSTAmount types.Money `db:"igst_amount" json:"igstAmount"`
	TaxAmount  types.Money `db:"tax_amount" json:"taxAmount"`

	RoundOff   types.Money `db:"round_off" json:"roundOff"`
	GrandTotal types.Money `db:"grand_total" json:"grandTotal"`

	// Table part: priced, batch-allocated lines
	Lines []Line `db:"-" json:"lines"`

	// Trail is the lifecycle audit trail, oldest first.
	Trail []lifecycle.Record `db:"-" json:"trail,omitempty"`
}

// Line is one priced invoice line with its resolved batch.
type Line struct {
	LineNo         int         `db:"line_no" json:"lineNo"`
	ProductID      string      `db:"product_id" json:"productId"`
	BatchNo        string      `db:"batch_no" json:"batchNo"`
	Quantity       int64       `db:"quantity" json:"quantity"`
	UnitPrice      types.Money `db:"unit_price" json:"unitPrice"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxableAmount  types.Money `db:"taxable_amount" json:"taxableAmount"`
	TaxRate        types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	LineTotal      types.Money `db:"line_total" json:"lineTotal"`
}

// NewInvoice creates an invoice shell. Pricing fields are filled by the
// service before commit.
func NewInvoice(customerID string, payment PaymentMethod) *Invoice {
	return &Invoice{
		BaseDocument:  entity.NewBaseDocument(),
		CustomerID:    customerID,
		PaymentMethod: payment,
		Status:        lifecycle.InitialStatus(lifecycle.DocTypeInvoice),
		Lines:         make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(_ context.Context) error {
	if inv.CustomerID == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customer_id")
	}

	switch inv.PaymentMethod {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentCredit:
	default:
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "payment_method").
			WithDetail("value", string(inv.PaymentMethod))
	}

	if len(inv.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}

	return nil
}

// Voided reports whether the invoice reached its terminal state.
func (inv *Invoice) Voided() bool {
	return inv.Status == lifecycle.StatusVoided
}

// --- lifecycle.Subject implementation ---

func (inv *Invoice) DocumentType() lifecycle.DocType { return lifecycle.DocTypeInvoice }

func (inv *Invoice) CurrentStatus() lifecycle.Status { return inv.Status }

func (inv *Invoice) ApplyTransition(rec lifecycle.Record) {
	inv.Status = rec.To
	inv.Trail = append(inv.Trail, rec)
	inv.Touch()
}

var _ lifecycle.Subject = (*Invoice)(nil)
