// Package einvoice provides the e-invoice registration document: the
// fiscal submission of a committed invoice to the government portal,
// with IRN/acknowledgement tracking and idempotent, retried submission.
package einvoice

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/lifecycle"
)

// EInvoice tracks one invoice's registration on the portal.
// IRN and acknowledgement are set exactly once; a repeated submission
// returns the already-assigned IRN.
type EInvoice struct {
	entity.BaseDocument

	InvoiceID id.ID            `db:"invoice_id" json:"invoiceId"`
	InvoiceNo string           `db:"invoice_no" json:"invoiceNo"`
	Status    lifecycle.Status `db:"status" json:"status"`

	// Payload is the generated portal document, canonical JSON.
	Payload     []byte `db:"payload" json:"-"`
	PayloadHash string `db:"payload_hash" json:"payloadHash,omitempty"`

	IRN     string     `db:"irn" json:"irn,omitempty"`
	AckNo   string     `db:"ack_no" json:"ackNo,omitempty"`
	AckDate *time.Time `db:"ack_date" json:"ackDate,omitempty"`

	FailureReason string `db:"failure_reason" json:"failureReason,omitempty"`
	CancelReason  string `db:"cancel_reason" json:"cancelReason,omitempty"`

	Trail []lifecycle.Record `db:"-" json:"trail,omitempty"`
}

// NewEInvoice creates a pending registration for an invoice.
func NewEInvoice(invoiceID id.ID, invoiceNo string) *EInvoice {
	return &EInvoice{
		BaseDocument: entity.NewBaseDocument(),
		InvoiceID:    invoiceID,
		InvoiceNo:    invoiceNo,
		Status:       lifecycle.InitialStatus(lifecycle.DocTypeEInvoice),
	}
}

// Validate implements entity.Validatable.
func (e *EInvoice) Validate(_ context.Context) error {
	if id.IsNil(e.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoice_id")
	}
	return nil
}

// Registered reports whether the portal has assigned an IRN.
func (e *EInvoice) Registered() bool {
	return e.IRN != ""
}

// --- lifecycle.Subject implementation ---

func (e *EInvoice) DocumentType() lifecycle.DocType { return lifecycle.DocTypeEInvoice }

func (e *EInvoice) CurrentStatus() lifecycle.Status { return e.Status }

func (e *EInvoice) ApplyTransition(rec lifecycle.Record) {
	e.Status = rec.To
	e.Trail = append(e.Trail, rec)
	e.Touch()
}

var _ lifecycle.Subject = (*EInvoice)(nil)
