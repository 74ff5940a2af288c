package einvoice

import (
	"context"
	"time"
)

// Submission is one portal registration attempt. IdempotencyKey keeps a
// retried submission from registering twice.
type Submission struct {
	IdempotencyKey string
	InvoiceNo      string
	Payload        []byte
}

// Acknowledgement is the portal's registration receipt.
type Acknowledgement struct {
	IRN     string
	AckNo   string
	AckDate time.Time
}

// Portal is the external e-invoice registry. Implementations classify
// failures: transient ones come back as retryable EXTERNAL_SUBMISSION
// errors, rejections as non-retryable.
type Portal interface {
	Submit(ctx context.Context, sub Submission) (*Acknowledgement, error)
	Cancel(ctx context.Context, irn, reason string) error
}
