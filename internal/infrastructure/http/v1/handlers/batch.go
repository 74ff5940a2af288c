package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/inventory"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// BatchHandler handles stock batch lookup endpoints.
type BatchHandler struct {
	*BaseHandler
	repo inventory.Repository
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(base *BaseHandler, repo inventory.Repository) *BatchHandler {
	return &BatchHandler{BaseHandler: base, repo: repo}
}

// ListByProduct handles GET /batches/:productId. Batches come back in
// FEFO order, soonest expiry first.
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	productID := c.Param("productId")
	if productID == "" {
		h.Error(c, apperror.NewValidation("product id is required"))
		return
	}

	batches, err := h.repo.ListBatches(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatches(batches))
}

// Get handles GET /batches/:productId/:batchNo.
func (h *BatchHandler) Get(c *gin.Context) {
	productID := c.Param("productId")
	batchNo := c.Param("batchNo")

	batch, err := h.repo.GetBatch(c.Request.Context(), productID, batchNo)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBatch(*batch))
}

// Create handles POST /batches.
func (h *BatchHandler) Create(c *gin.Context) {
	var req dto.CreateBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch := req.ToBatch()
	if err := h.repo.CreateBatch(c.Request.Context(), batch); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromBatch(batch))
}
