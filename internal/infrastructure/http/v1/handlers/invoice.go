package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	*BaseHandler
	service *invoice.Service
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(base *BaseHandler, service *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, service: service}
}

// Create handles POST /invoices.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), req.ToCreateRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromInvoice(doc))
}

// Get handles GET /invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}

// List handles GET /invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := invoice.ListFilter{
		ListFilter: domain.ListFilter{
			Status: c.Query("status"),
			Limit:  page.Limit,
			Offset: page.Offset(),
		},
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Paginated(c, dto.FromInvoices(result.Items), page, result.TotalCount)
}

// Void handles POST /invoices/:id/void.
func (h *InvoiceHandler) Void(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&body)

	doc, err := h.service.Void(c.Request.Context(), docID, lifecycle.Meta{
		Actor:  h.GetActorID(c),
		Reason: body.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromInvoice(doc))
}
