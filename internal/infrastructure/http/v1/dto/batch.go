package dto

import (
	"time"

	"retailcore/internal/core/types"
	"retailcore/internal/domain/inventory"
)

// BatchResponse is one stock batch in the lookup surface.
type BatchResponse struct {
	ProductID       string      `json:"product_id"`
	BatchNo         string      `json:"batch_no"`
	QuantityInStock int64       `json:"quantity_in_stock"`
	ExpiryDate      *time.Time  `json:"expiry_date,omitempty"`
	RetailPrice     types.Money `json:"retail_price"`
	WholesalePrice  types.Money `json:"wholesale_price"`
	TaxRate         types.Money `json:"tax_rate"`
}

// FromBatch maps a stock batch to the wire response. A zero expiry
// means the batch never expires and is omitted.
func FromBatch(b inventory.Batch) BatchResponse {
	resp := BatchResponse{
		ProductID:       b.ProductID,
		BatchNo:         b.BatchNo,
		QuantityInStock: b.QuantityOnHand,
		RetailPrice:     b.RetailPrice,
		WholesalePrice:  b.WholesalePrice,
		TaxRate:         b.TaxRate,
	}
	if !b.ExpiryDate.IsZero() {
		expiry := b.ExpiryDate
		resp.ExpiryDate = &expiry
	}
	return resp
}

// FromBatches maps a batch listing.
func FromBatches(batches []inventory.Batch) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromBatch(b))
	}
	return out
}

// CreateBatchRequest registers a new stock batch.
type CreateBatchRequest struct {
	ProductID      string      `json:"product_id" binding:"required"`
	BatchNo        string      `json:"batch_no" binding:"required"`
	Quantity       int64       `json:"quantity" binding:"required,gte=0"`
	ExpiryDate     *time.Time  `json:"expiry_date,omitempty"`
	RetailPrice    types.Money `json:"retail_price"`
	WholesalePrice types.Money `json:"wholesale_price"`
	TaxRate        types.Money `json:"tax_rate"`
}

// ToBatch converts the wire request into the domain batch.
func (r *CreateBatchRequest) ToBatch() inventory.Batch {
	batch := inventory.Batch{
		ProductID:      r.ProductID,
		BatchNo:        r.BatchNo,
		QuantityOnHand: r.Quantity,
		RetailPrice:    r.RetailPrice,
		WholesalePrice: r.WholesalePrice,
		TaxRate:        r.TaxRate,
	}
	if r.ExpiryDate != nil {
		batch.ExpiryDate = *r.ExpiryDate
	}
	return batch
}
