package dto

import (
	"retailcore/internal/domain/documents"
)

// TransitionRequest drives the generic document transition endpoint.
// The document type is resolved from the id, so callers only name the
// action.
type TransitionRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Action     string `json:"action" binding:"required"`
	Reason     string `json:"reason,omitempty"`
}

// TransitionResponse reports the resulting status. IRN and AckNo are
// set for e-invoice submissions.
type TransitionResponse struct {
	DocumentType string `json:"document_type"`
	Status       string `json:"status"`
	IRN          string `json:"irn,omitempty"`
	AckNo        string `json:"ack_no,omitempty"`
}

// FromTransition maps the resolver result to the wire response.
func FromTransition(res *documents.TransitionResult) TransitionResponse {
	return TransitionResponse{
		DocumentType: string(res.DocumentType),
		Status:       string(res.Status),
		IRN:          res.IRN,
		AckNo:        res.AckNo,
	}
}
