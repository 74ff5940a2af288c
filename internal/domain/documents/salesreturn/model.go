// Package salesreturn provides the sales return document: a refund
// against an existing invoice with its own approval lifecycle. Stock is
// restored only at completion, never at request time.
package salesreturn

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/lifecycle"
)

// SalesReturn is a refund request against one invoice. Refund amounts
// are derived from the invoice's committed line figures; the bill
// discount is not refunded.
type SalesReturn struct {
	entity.BaseDocument

	ReturnNo   string           `db:"return_no" json:"returnNo"`
	InvoiceID  id.ID            `db:"invoice_id" json:"invoiceId"`
	InvoiceNo  string           `db:"invoice_no" json:"invoiceNo"`
	CustomerID string           `db:"customer_id" json:"customerId"`
	Reason     string           `db:"reason" json:"reason,omitempty"`
	Status     lifecycle.Status `db:"status" json:"status"`

	TaxableAmount types.Money `db:"taxable_amount" json:"taxableAmount"`
	CGSTAmount    types.Money `db:"cgst_amount" json:"cgstAmount"`
	SGSTAmount    types.Money `db:"sgst_amount" json:"sgstAmount"`
	IGSTAmount    types.Money `db:"igst_amount" json:"igstAmount"`
	TaxAmount     types.Money `db:"tax_amount" json:"taxAmount"`
	RoundOff      types.Money `db:"round_off" json:"roundOff"`
	RefundTotal   types.Money `db:"refund_total" json:"refundTotal"`

	Lines []Line `db:"-" json:"lines"`

	Trail []lifecycle.Record `db:"-" json:"trail,omitempty"`
}

// Line is one returned line, carrying its refund share.
type Line struct {
	LineNo        int         `db:"line_no" json:"lineNo"`
	ProductID     string      `db:"product_id" json:"productId"`
	BatchNo       string      `db:"batch_no" json:"batchNo"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	TaxableAmount types.Money `db:"taxable_amount" json:"taxableAmount"`
	TaxRate       types.Money `db:"tax_rate" json:"taxRate"`
	TaxAmount     types.Money `db:"tax_amount" json:"taxAmount"`
	RefundAmount  types.Money `db:"refund_amount" json:"refundAmount"`
}

// NewSalesReturn creates a pending return against an invoice.
func NewSalesReturn(invoiceID id.ID, invoiceNo, customerID, reason string) *SalesReturn {
	return &SalesReturn{
		BaseDocument: entity.NewBaseDocument(),
		InvoiceID:    invoiceID,
		InvoiceNo:    invoiceNo,
		CustomerID:   customerID,
		Reason:       reason,
		Status:       lifecycle.InitialStatus(lifecycle.DocTypeReturn),
		Lines:        make([]Line, 0),
	}
}

// Validate implements entity.Validatable.
func (r *SalesReturn) Validate(_ context.Context) error {
	if id.IsNil(r.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoice_id")
	}
	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}
	for _, line := range r.Lines {
		if line.Quantity <= 0 {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "quantity").
				WithDetail("line_no", line.LineNo)
		}
	}
	return nil
}

// --- lifecycle.Subject implementation ---

func (r *SalesReturn) DocumentType() lifecycle.DocType { return lifecycle.DocTypeReturn }

func (r *SalesReturn) CurrentStatus() lifecycle.Status { return r.Status }

func (r *SalesReturn) ApplyTransition(rec lifecycle.Record) {
	r.Status = rec.To
	r.Trail = append(r.Trail, rec)
	r.Touch()
}

var _ lifecycle.Subject = (*SalesReturn)(nil)
