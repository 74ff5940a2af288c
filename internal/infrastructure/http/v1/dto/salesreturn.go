package dto

import (
	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/documents/salesreturn"
)

// --- Request DTOs ---

type ReturnItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	BatchNo   string `json:"batch_no,omitempty"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

type CreateReturnRequest struct {
	InvoiceID string              `json:"invoice_id" binding:"required"`
	Items     []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	Reason    string              `json:"reason,omitempty"`
}

// ToCreateRequest converts the wire request into the service request.
func (r *CreateReturnRequest) ToCreateRequest() (salesreturn.CreateRequest, error) {
	invoiceID, err := id.Parse(r.InvoiceID)
	if err != nil {
		return salesreturn.CreateRequest{}, apperror.NewValidation("invalid invoice_id").
			WithDetail("invoice_id", r.InvoiceID)
	}

	req := salesreturn.CreateRequest{
		InvoiceID: invoiceID,
		Reason:    r.Reason,
	}
	for _, item := range r.Items {
		req.Items = append(req.Items, salesreturn.ItemRequest{
			ProductID: item.ProductID,
			BatchNo:   item.BatchNo,
			Quantity:  item.Quantity,
		})
	}
	return req, nil
}

// --- Response DTOs ---

type ReturnLineResponse struct {
	LineNo        int         `json:"line_no"`
	ProductID     string      `json:"product_id"`
	BatchNo       string      `json:"batch_no"`
	Quantity      int64       `json:"quantity"`
	UnitPrice     types.Money `json:"unit_price"`
	TaxableAmount types.Money `json:"taxable_amount"`
	TaxRate       types.Money `json:"tax_rate"`
	TaxAmount     types.Money `json:"tax_amount"`
	RefundAmount  types.Money `json:"refund_amount"`
}

type ReturnResponse struct {
	ID            string               `json:"id"`
	ReturnNo      string               `json:"return_no"`
	InvoiceID     string               `json:"invoice_id"`
	InvoiceNo     string               `json:"invoice_no"`
	CustomerID    string               `json:"customer_id"`
	Reason        string               `json:"reason,omitempty"`
	Status        string               `json:"status"`
	TaxableAmount types.Money          `json:"taxable_amount"`
	CGSTAmount    types.Money          `json:"cgst_amount"`
	SGSTAmount    types.Money          `json:"sgst_amount"`
	IGSTAmount    types.Money          `json:"igst_amount"`
	TaxAmount     types.Money          `json:"tax_amount"`
	RoundOff      types.Money          `json:"round_off"`
	RefundTotal   types.Money          `json:"refund_total"`
	Lines         []ReturnLineResponse `json:"lines,omitempty"`
	Trail         []TrailEntryResponse `json:"trail,omitempty"`
}

// FromReturn maps the domain document to the wire response.
func FromReturn(doc *salesreturn.SalesReturn) ReturnResponse {
	resp := ReturnResponse{
		ID:            doc.ID.String(),
		ReturnNo:      doc.ReturnNo,
		InvoiceID:     doc.InvoiceID.String(),
		InvoiceNo:     doc.InvoiceNo,
		CustomerID:    doc.CustomerID,
		Reason:        doc.Reason,
		Status:        string(doc.Status),
		TaxableAmount: doc.TaxableAmount,
		CGSTAmount:    doc.CGSTAmount,
		SGSTAmount:    doc.SGSTAmount,
		IGSTAmount:    doc.IGSTAmount,
		TaxAmount:     doc.TaxAmount,
		RoundOff:      doc.RoundOff,
		RefundTotal:   doc.RefundTotal,
		Trail:         FromTrail(doc.Trail),
	}

	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, ReturnLineResponse{
			LineNo:        line.LineNo,
			ProductID:     line.ProductID,
			BatchNo:       line.BatchNo,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			TaxableAmount: line.TaxableAmount,
			TaxRate:       line.TaxRate,
			TaxAmount:     line.TaxAmount,
			RefundAmount:  line.RefundAmount,
		})
	}

	return resp
}

// FromReturns maps a list page.
func FromReturns(docs []*salesreturn.SalesReturn) []ReturnResponse {
	out := make([]ReturnResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromReturn(doc))
	}
	return out
}
