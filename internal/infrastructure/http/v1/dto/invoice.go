package dto

import (
	"retailcore/internal/core/apperror"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/domain/pricing"
)

// --- Request DTOs ---

type InvoiceItemRequest struct {
	ProductID string       `json:"product_id" binding:"required"`
	BatchID   string       `json:"batch_id,omitempty"`
	Quantity  int64        `json:"quantity" binding:"required,gt=0"`
	UnitPrice types.Money  `json:"unit_price" binding:"required"`
	// At most one of the two discount fields may be set.
	DiscountPercent *types.Money `json:"discount_percent,omitempty"`
	DiscountAmount  *types.Money `json:"discount_amount,omitempty"`
	TaxPercent      *types.Money `json:"tax_percent,omitempty"`
}

type BillDiscountRequest struct {
	Type  string      `json:"type" binding:"omitempty,oneof=percent amount"`
	Value types.Money `json:"value"`
}

type CreateInvoiceRequest struct {
	CustomerID             string               `json:"customer_id" binding:"required"`
	CustomerStateCode      string               `json:"customer_state_code,omitempty"`
	PaymentMethod          string               `json:"payment_method" binding:"required"`
	Items                  []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	BillDiscount           *BillDiscountRequest `json:"bill_discount,omitempty"`
	LoyaltyPointsUsed      int64                `json:"loyalty_points_used,omitempty"`
	LoyaltyPointsAvailable int64                `json:"loyalty_points_available,omitempty"`
}

func discountSpec(percent, amount *types.Money) pricing.DiscountSpec {
	switch {
	case percent != nil:
		return pricing.DiscountSpec{Mode: pricing.DiscountPercent, Value: *percent}
	case amount != nil:
		return pricing.DiscountSpec{Mode: pricing.DiscountAmount, Value: *amount}
	default:
		return pricing.NoDiscount()
	}
}

// Validate rejects contradictory discount fields before pricing runs.
func (r *CreateInvoiceRequest) Validate() error {
	for i, item := range r.Items {
		if item.DiscountPercent != nil && item.DiscountAmount != nil {
			return apperror.NewInvalidDiscount("discount_percent and discount_amount are mutually exclusive").
				WithDetail("line_no", i+1)
		}
	}
	return nil
}

// ToCreateRequest converts the wire request into the service request.
func (r *CreateInvoiceRequest) ToCreateRequest() invoice.CreateRequest {
	req := invoice.CreateRequest{
		CustomerID:             r.CustomerID,
		CustomerStateCode:      r.CustomerStateCode,
		PaymentMethod:          invoice.PaymentMethod(r.PaymentMethod),
		BillDiscount:           pricing.NoDiscount(),
		LoyaltyPointsUsed:      r.LoyaltyPointsUsed,
		LoyaltyPointsAvailable: r.LoyaltyPointsAvailable,
	}

	if r.BillDiscount != nil {
		req.BillDiscount = pricing.DiscountSpec{
			Mode:  pricing.DiscountMode(r.BillDiscount.Type),
			Value: r.BillDiscount.Value,
		}
	}

	for _, item := range r.Items {
		req.Items = append(req.Items, invoice.ItemRequest{
			ProductID: item.ProductID,
			BatchNo:   item.BatchID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  discountSpec(item.DiscountPercent, item.DiscountAmount),
			TaxRate:   item.TaxPercent,
		})
	}

	return req
}

// --- Response DTOs ---

type InvoiceLineResponse struct {
	LineNo         int         `json:"line_no"`
	ProductID      string      `json:"product_id"`
	BatchNo        string      `json:"batch_no"`
	Quantity       int64       `json:"quantity"`
	UnitPrice      types.Money `json:"unit_price"`
	DiscountAmount types.Money `json:"discount_amount"`
	TaxableAmount  types.Money `json:"taxable_amount"`
	TaxRate        types.Money `json:"tax_rate"`
	TaxAmount      types.Money `json:"tax_amount"`
	LineTotal      types.Money `json:"line_total"`
}

type InvoiceResponse struct {
	ID                string                `json:"id"`
	InvoiceNo         string                `json:"invoice_no"`
	CustomerID        string                `json:"customer_id"`
	PaymentMethod     string                `json:"payment_method"`
	Status            string                `json:"status"`
	Subtotal          types.Money           `json:"subtotal"`
	DiscountAmount    types.Money           `json:"discount_amount"`
	LoyaltyPointsUsed int64                 `json:"loyalty_points_used,omitempty"`
	TaxableAmount     types.Money           `json:"taxable_amount"`
	CGSTAmount        types.Money           `json:"cgst_amount"`
	SGSTAmount        types.Money           `json:"sgst_amount"`
	IGSTAmount        types.Money           `json:"igst_amount"`
	TaxAmount         types.Money           `json:"tax_amount"`
	RoundOff          types.Money           `json:"round_off"`
	Total             types.Money           `json:"total"`
	Lines             []InvoiceLineResponse `json:"lines,omitempty"`
	Trail             []TrailEntryResponse  `json:"trail,omitempty"`
}

// FromInvoice maps the domain document to the wire response.
func FromInvoice(doc *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                doc.ID.String(),
		InvoiceNo:         doc.InvoiceNo,
		CustomerID:        doc.CustomerID,
		PaymentMethod:     string(doc.PaymentMethod),
		Status:            string(doc.Status),
		Subtotal:          doc.Subtotal,
		DiscountAmount:    doc.DiscountAmount,
		LoyaltyPointsUsed: doc.LoyaltyPointsUsed,
		TaxableAmount:     doc.TaxableAmount,
		CGSTAmount:        doc.CGSTAmount,
		SGSTAmount:        doc.SGSTAmount,
		IGSTAmount:        doc.IGSTAmount,
		TaxAmount:         doc.TaxAmount,
		RoundOff:          doc.RoundOff,
		Total:             doc.GrandTotal,
		Trail:             FromTrail(doc.Trail),
	}

	for _, line := range doc.Lines {
		resp.Lines = append(resp.Lines, InvoiceLineResponse{
			LineNo:         line.LineNo,
			ProductID:      line.ProductID,
			BatchNo:        line.BatchNo,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice,
			DiscountAmount: line.DiscountAmount,
			TaxableAmount:  line.TaxableAmount,
			TaxRate:        line.TaxRate,
			TaxAmount:      line.TaxAmount,
			LineTotal:      line.LineTotal,
		})
	}

	return resp
}

// FromInvoices maps a list page.
func FromInvoices(docs []*invoice.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromInvoice(doc))
	}
	return out
}

// TrailEntryResponse is one audit trail record.
type TrailEntryResponse struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
	At     string `json:"at"`
}

// FromTrail maps lifecycle records.
func FromTrail(trail []lifecycle.Record) []TrailEntryResponse {
	out := make([]TrailEntryResponse, 0, len(trail))
	for _, rec := range trail {
		out = append(out, TrailEntryResponse{
			From:   string(rec.From),
			To:     string(rec.To),
			Actor:  rec.Actor,
			Reason: rec.Reason,
			At:     rec.At.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return out
}
