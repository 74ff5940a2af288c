package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/commission"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// CommissionHandler handles commission voucher endpoints.
type CommissionHandler struct {
	*BaseHandler
	service *commission.Service
}

// NewCommissionHandler creates a new commission handler.
func NewCommissionHandler(base *BaseHandler, service *commission.Service) *CommissionHandler {
	return &CommissionHandler{BaseHandler: base, service: service}
}

// Create handles POST /commissions.
func (h *CommissionHandler) Create(c *gin.Context) {
	var req dto.CreateCommissionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	createReq, err := req.ToCreateRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), createReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromCommission(doc))
}

// Get handles GET /commissions/:id.
func (h *CommissionHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCommission(doc))
}

// List handles GET /commissions.
func (h *CommissionHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := commission.ListFilter{
		ListFilter: domain.ListFilter{
			Status: c.Query("status"),
			Limit:  page.Limit,
			Offset: page.Offset(),
		},
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		filter.AgentID = &agentID
	}
	if invoiceID := c.Query("invoice_id"); invoiceID != "" {
		parsed, err := id.Parse(invoiceID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid invoice_id").WithDetail("invoice_id", invoiceID))
			return
		}
		filter.InvoiceID = &parsed
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Paginated(c, dto.FromCommissions(result.Items), page, result.TotalCount)
}

func (h *CommissionHandler) meta(c *gin.Context) lifecycle.Meta {
	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&body)
	return lifecycle.Meta{Actor: h.GetActorID(c), Reason: body.Reason}
}

// Approve handles POST /commissions/:id/approve.
func (h *CommissionHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Approve(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCommission(doc))
}

// Reject handles POST /commissions/:id/reject.
func (h *CommissionHandler) Reject(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Reject(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCommission(doc))
}

// Pay handles POST /commissions/:id/pay.
func (h *CommissionHandler) Pay(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Pay(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCommission(doc))
}
