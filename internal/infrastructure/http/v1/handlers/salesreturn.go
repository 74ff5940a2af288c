package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/documents/salesreturn"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// SalesReturnHandler handles sales return endpoints.
type SalesReturnHandler struct {
	*BaseHandler
	service *salesreturn.Service
}

// NewSalesReturnHandler creates a new sales return handler.
func NewSalesReturnHandler(base *BaseHandler, service *salesreturn.Service) *SalesReturnHandler {
	return &SalesReturnHandler{BaseHandler: base, service: service}
}

// Create handles POST /returns.
func (h *SalesReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
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

	h.Created(c, dto.FromReturn(doc))
}

// Get handles GET /returns/:id.
func (h *SalesReturnHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReturn(doc))
}

// List handles GET /returns.
func (h *SalesReturnHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	page.Defaults()

	filter := salesreturn.ListFilter{
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
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Paginated(c, dto.FromReturns(result.Items), page, result.TotalCount)
}

func (h *SalesReturnHandler) meta(c *gin.Context) lifecycle.Meta {
	var body struct {
		Reason string `json:"reason,omitempty"`
	}
	_ = c.ShouldBindJSON(&body)
	return lifecycle.Meta{Actor: h.GetActorID(c), Reason: body.Reason}
}

// Approve handles POST /returns/:id/approve.
func (h *SalesReturnHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Approve(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReturn(doc))
}

// Reject handles POST /returns/:id/reject.
func (h *SalesReturnHandler) Reject(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Reject(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReturn(doc))
}

// Complete handles POST /returns/:id/complete. Completion restores the
// returned quantities to stock.
func (h *SalesReturnHandler) Complete(c *gin.Context) {
	docID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.Complete(c.Request.Context(), docID, h.meta(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromReturn(doc))
}
