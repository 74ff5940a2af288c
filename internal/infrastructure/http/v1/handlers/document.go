package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents"
	"retailcore/internal/domain/lifecycle"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// DocumentHandler handles the generic transition endpoint. The resolver
// maps a bare document id to its type, so callers never send one.
type DocumentHandler struct {
	*BaseHandler
	resolver *documents.Resolver
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, resolver *documents.Resolver) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, resolver: resolver}
}

// Transition handles POST /documents/transition.
func (h *DocumentHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	docID, err := id.Parse(req.DocumentID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document_id").WithDetail("document_id", req.DocumentID))
		return
	}

	result, err := h.resolver.Transition(c.Request.Context(), docID, lifecycle.Action(req.Action), lifecycle.Meta{
		Actor:  h.GetActorID(c),
		Reason: req.Reason,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTransition(result))
}
