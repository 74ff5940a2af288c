package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// EInvoiceHandler handles e-invoice registration endpoints.
type EInvoiceHandler struct {
	*BaseHandler
	service *einvoice.Service
}

// NewEInvoiceHandler creates a new e-invoice handler.
func NewEInvoiceHandler(base *BaseHandler, service *einvoice.Service) *EInvoiceHandler {
	return &EInvoiceHandler{BaseHandler: base, service: service}
}

// Generate handles POST /einvoices. Calling it again for the same
// invoice returns the existing registration.
func (h *EInvoiceHandler) Generate(c *gin.Context) {
	var req dto.GenerateEInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	invoiceID, err := id.Parse(req.InvoiceID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid invoice_id").WithDetail("invoice_id", req.InvoiceID))
		return
	}

	doc, err := h.service.Generate(c.Request.Context(), invoiceID, lifecycle.Meta{
		Actor: h.GetActorID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromEInvoice(doc))
}

// Get handles GET /einvoices/:id.
func (h *EInvoiceHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEInvoice(doc))
}

// List handles GET /einvoices.
func (h *EInvoiceHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := einvoice.ListFilter{
		ListFilter: domain.ListFilter{
			Status: c.Query("status"),
			Limit:  page.Limit,
			Offset: page.Offset(),
		},
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

	h.Paginated(c, dto.FromEInvoices(result.Items), page, result.TotalCount)
}

// Submit handles POST /einvoices/:id/submit. Repeated submission after
// success returns the stored IRN without another portal call.
func (h *EInvoiceHandler) Submit(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), docID, lifecycle.Meta{
		Actor: h.GetActorID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEInvoice(doc))
}

// Cancel handles POST /einvoices/:id/cancel. A reason is required.
func (h *EInvoiceHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	doc, err := h.service.Cancel(c.Request.Context(), docID, lifecycle.Meta{
		Actor:  h.GetActorID(c),
		Reason: body.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromEInvoice(doc))
}
