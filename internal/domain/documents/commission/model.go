// Package commission provides the agent commission voucher computed
// from a committed invoice, with a PENDING→APPROVED→PAID lifecycle.
package commission

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/entity"
	"retailcore/internal/core/id"
	"retailcore/internal/core/types"
	"retailcore/internal/domain/lifecycle"
)

// Commission is one agent's payout claim on one invoice.
// CommissionAmount = BaseAmount × RatePercent, fixed at creation.
type Commission struct {
	entity.BaseDocument

	CommissionNo string           `db:"commission_no" json:"commissionNo"`
	InvoiceID    id.ID            `db:"invoice_id" json:"invoiceId"`
	InvoiceNo    string           `db:"invoice_no" json:"invoiceNo"`
	AgentID      string           `db:"agent_id" json:"agentId"`
	Status       lifecycle.Status `db:"status" json:"status"`

	RatePercent      types.Money `db:"rate_percent" json:"ratePercent"`
	BaseAmount       types.Money `db:"base_amount" json:"baseAmount"`
	CommissionAmount types.Money `db:"commission_amount" json:"commissionAmount"`

	Trail []lifecycle.Record `db:"-" json:"trail,omitempty"`
}

// NewCommission creates a pending commission voucher.
func NewCommission(invoiceID id.ID, invoiceNo, agentID string, ratePercent, baseAmount types.Money) *Commission {
	return &Commission{
		BaseDocument:     entity.NewBaseDocument(),
		InvoiceID:        invoiceID,
		InvoiceNo:        invoiceNo,
		AgentID:          agentID,
		Status:           lifecycle.InitialStatus(lifecycle.DocTypeCommission),
		RatePercent:      ratePercent,
		BaseAmount:       baseAmount,
		CommissionAmount: types.Percent(baseAmount, ratePercent),
	}
}

// Validate implements entity.Validatable.
func (c *Commission) Validate(_ context.Context) error {
	if id.IsNil(c.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoice_id")
	}
	if c.AgentID == "" {
		return apperror.NewValidation("agent is required").
			WithDetail("field", "agent_id")
	}
	if c.RatePercent.IsNegative() || c.RatePercent.GreaterThan(types.Hundred) {
		return apperror.NewValidation("commission rate must be between 0 and 100").
			WithDetail("field", "rate_percent")
	}
	return nil
}

// --- lifecycle.Subject implementation ---

func (c *Commission) DocumentType() lifecycle.DocType { return lifecycle.DocTypeCommission }

func (c *Commission) CurrentStatus() lifecycle.Status { return c.Status }

func (c *Commission) ApplyTransition(rec lifecycle.Record) {
	c.Status = rec.To
	c.Trail = append(c.Trail, rec)
	c.Touch()
}

var _ lifecycle.Subject = (*Commission)(nil)
