package dto

import (
	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/documents/commission"
)

// --- Request DTOs ---

type CreateCommissionRequest struct {
	InvoiceID   string      `json:"invoice_id" binding:"required"`
	AgentID     string      `json:"agent_id" binding:"required"`
	RatePercent types.Money `json:"rate_percent" binding:"required"`
}

// ToCreateRequest converts the wire request into the service request.
func (r *CreateCommissionRequest) ToCreateRequest() (commission.CreateRequest, error) {
	invoiceID, err := id.Parse(r.InvoiceID)
	if err != nil {
		return commission.CreateRequest{}, apperror.NewValidation("invalid invoice_id").
			WithDetail("invoice_id", r.InvoiceID)
	}
	return commission.CreateRequest{
		InvoiceID:   invoiceID,
		AgentID:     r.AgentID,
		RatePercent: r.RatePercent,
	}, nil
}

// --- Response DTOs ---

type CommissionResponse struct {
	ID               string               `json:"id"`
	CommissionNo     string               `json:"commission_no"`
	InvoiceID        string               `json:"invoice_id"`
	InvoiceNo        string               `json:"invoice_no"`
	AgentID          string               `json:"agent_id"`
	Status           string               `json:"status"`
	RatePercent      types.Money          `json:"rate_percent"`
	BaseAmount       types.Money          `json:"base_amount"`
	CommissionAmount types.Money          `json:"commission_amount"`
	Trail            []TrailEntryResponse `json:"trail,omitempty"`
}

// FromCommission maps the domain document to the wire response.
func FromCommission(doc *commission.Commission) CommissionResponse {
	return CommissionResponse{
		ID:               doc.ID.String(),
		CommissionNo:     doc.CommissionNo,
		InvoiceID:        doc.InvoiceID.String(),
		InvoiceNo:        doc.InvoiceNo,
		AgentID:          doc.AgentID,
		Status:           string(doc.Status),
		RatePercent:      doc.RatePercent,
		BaseAmount:       doc.BaseAmount,
		CommissionAmount: doc.CommissionAmount,
		Trail:            FromTrail(doc.Trail),
	}
}

// FromCommissions maps a list page.
func FromCommissions(docs []*commission.Commission) []CommissionResponse {
	out := make([]CommissionResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromCommission(doc))
	}
	return out
}
