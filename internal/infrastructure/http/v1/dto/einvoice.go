package dto

import (
	"time"

	"retailcore/internal/domain/documents/einvoice"
)

// --- Request DTOs ---

type GenerateEInvoiceRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required"`
}

// --- Response DTOs ---

type EInvoiceResponse struct {
	ID            string               `json:"id"`
	InvoiceID     string               `json:"invoice_id"`
	InvoiceNo     string               `json:"invoice_no"`
	Status        string               `json:"status"`
	PayloadHash   string               `json:"payload_hash,omitempty"`
	IRN           string               `json:"irn,omitempty"`
	AckNo         string               `json:"ack_no,omitempty"`
	AckDate       *time.Time           `json:"ack_date,omitempty"`
	FailureReason string               `json:"failure_reason,omitempty"`
	CancelReason  string               `json:"cancel_reason,omitempty"`
	Trail         []TrailEntryResponse `json:"trail,omitempty"`
}

// FromEInvoice maps the domain document to the wire response.
func FromEInvoice(doc *einvoice.EInvoice) EInvoiceResponse {
	return EInvoiceResponse{
		ID:            doc.ID.String(),
		InvoiceID:     doc.InvoiceID.String(),
		InvoiceNo:     doc.InvoiceNo,
		Status:        string(doc.Status),
		PayloadHash:   doc.PayloadHash,
		IRN:           doc.IRN,
		AckNo:         doc.AckNo,
		AckDate:       doc.AckDate,
		FailureReason: doc.FailureReason,
		CancelReason:  doc.CancelReason,
		Trail:         FromTrail(doc.Trail),
	}
}

// FromEInvoices maps a list page.
func FromEInvoices(docs []*einvoice.EInvoice) []EInvoiceResponse {
	out := make([]EInvoiceResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromEInvoice(doc))
	}
	return out
}
