// Package documents dispatches generic lifecycle requests across the
// concrete document services. A transition request names a document id
// and an action; the resolver finds the document's type and routes the
// call.
package documents

import (
	"context"

	"retailcore/internal/core/apperror"
	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/commission"
	"retailcore/internal/domain/documents/einvoice"
	"retailcore/internal/domain/documents/invoice"
	"retailcore/internal/domain/documents/salesreturn"
	"retailcore/internal/domain/lifecycle"
)

// TransitionResult is the outcome of a dispatched transition.
type TransitionResult struct {
	DocumentType lifecycle.DocType
	Status       lifecycle.Status

	// Set for e-invoice submissions.
	IRN   string
	AckNo string
}

// Resolver routes transition requests to the owning document service.
type Resolver struct {
	invoices    *invoice.Service
	returns     *salesreturn.Service
	commissions *commission.Service
	einvoices   *einvoice.Service
}

// NewResolver creates a resolver over the four document services.
func NewResolver(
	invoices *invoice.Service,
	returns *salesreturn.Service,
	commissions *commission.Service,
	einvoices *einvoice.Service,
) *Resolver {
	return &Resolver{
		invoices:    invoices,
		returns:     returns,
		commissions: commissions,
		einvoices:   einvoices,
	}
}

// Transition resolves the document type behind docID and applies the
// action. Unknown ids fail with NOT_FOUND, actions foreign to the type
// with VALIDATION_ERROR, illegal moves with ILLEGAL_TRANSITION.
func (r *Resolver) Transition(ctx context.Context, docID id.ID, action lifecycle.Action, meta lifecycle.Meta) (*TransitionResult, error) {
	docType, err := r.resolveType(ctx, docID)
	if err != nil {
		return nil, err
	}

	target, err := lifecycle.ResolveAction(docType, action)
	if err != nil {
		return nil, err
	}

	switch docType {
	case lifecycle.DocTypeInvoice:
		doc, err := r.invoices.Void(ctx, docID, meta)
		if err != nil {
			return nil, err
		}
		return &TransitionResult{DocumentType: docType, Status: doc.Status}, nil

	case lifecycle.DocTypeReturn:
		var doc *salesreturn.SalesReturn
		switch target {
		case lifecycle.StatusApproved:
			doc, err = r.returns.Approve(ctx, docID, meta)
		case lifecycle.StatusRejected:
			doc, err = r.returns.Reject(ctx, docID, meta)
		case lifecycle.StatusCompleted:
			doc, err = r.returns.Complete(ctx, docID, meta)
		}
		if err != nil {
			return nil, err
		}
		return &TransitionResult{DocumentType: docType, Status: doc.Status}, nil

	case lifecycle.DocTypeCommission:
		var doc *commission.Commission
		switch target {
		case lifecycle.StatusApproved:
			doc, err = r.commissions.Approve(ctx, docID, meta)
		case lifecycle.StatusRejected:
			doc, err = r.commissions.Reject(ctx, docID, meta)
		case lifecycle.StatusPaid:
			doc, err = r.commissions.Pay(ctx, docID, meta)
		}
		if err != nil {
			return nil, err
		}
		return &TransitionResult{DocumentType: docType, Status: doc.Status}, nil

	case lifecycle.DocTypeEInvoice:
		var doc *einvoice.EInvoice
		switch target {
		case lifecycle.StatusSubmitted:
			doc, err = r.einvoices.Submit(ctx, docID, meta)
		case lifecycle.StatusCancelled:
			doc, err = r.einvoices.Cancel(ctx, docID, meta)
		default:
			return nil, apperror.NewValidation("action is not dispatchable for e-invoices").
				WithDetail("action", string(action))
		}
		if err != nil {
			return nil, err
		}
		return &TransitionResult{
			DocumentType: docType,
			Status:       doc.Status,
			IRN:          doc.IRN,
			AckNo:        doc.AckNo,
		}, nil
	}

	return nil, apperror.NewNotFound("document", docID)
}

// resolveType probes the document stores in commit-frequency order.
func (r *Resolver) resolveType(ctx context.Context, docID id.ID) (lifecycle.DocType, error) {
	if _, err := r.invoices.GetByID(ctx, docID); err == nil {
		return lifecycle.DocTypeInvoice, nil
	} else if !apperror.IsNotFound(err) {
		return "", err
	}

	if _, err := r.returns.GetByID(ctx, docID); err == nil {
		return lifecycle.DocTypeReturn, nil
	} else if !apperror.IsNotFound(err) {
		return "", err
	}

	if _, err := r.commissions.GetByID(ctx, docID); err == nil {
		return lifecycle.DocTypeCommission, nil
	} else if !apperror.IsNotFound(err) {
		return "", err
	}

	if _, err := r.einvoices.GetByID(ctx, docID); err == nil {
		return lifecycle.DocTypeEInvoice, nil
	} else if !apperror.IsNotFound(err) {
		return "", err
	}

	return "", apperror.NewNotFound("document", docID)
}
