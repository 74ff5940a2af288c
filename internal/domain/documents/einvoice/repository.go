package einvoice

import (
	"context"
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/domain"
	"retailcore/internal/domain/lifecycle"
)

// Repository defines operations for e-invoice registrations.
type Repository interface {
	Create(ctx context.Context, doc *EInvoice) error
	GetByID(ctx context.Context, docID id.ID) (*EInvoice, error)

	// GetByInvoiceID returns the registration for an invoice, or NOT_FOUND.
	// One invoice has at most one registration.
	GetByInvoiceID(ctx context.Context, invoiceID id.ID) (*EInvoice, error)

	// SetRegistration persists IRN and acknowledgement. Written before
	// the status flips to SUBMITTED so a crash between the two leaves a
	// re-submittable document that already knows its IRN.
	SetRegistration(ctx context.Context, docID id.ID, irn, ackNo string, ackDate time.Time) error

	// UpdateStatus performs a compare-and-set on (id, status).
	UpdateStatus(ctx context.Context, docID id.ID, from, to lifecycle.Status) error

	// SetFailure records the failure reason alongside the FAILED status.
	SetFailure(ctx context.Context, docID id.ID, reason string) error

	// SetCancellation records the cancellation reason.
	SetCancellation(ctx context.Context, docID id.ID, reason string) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*EInvoice], error)
}

// ListFilter for filtering e-invoice registrations.
type ListFilter struct {
	domain.ListFilter

	InvoiceID *id.ID
}

// TaskStatus is the state of one journal task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Task is one pending portal submission in the journal. The journal row
// is written in the same transaction as the document, so a submission is
// never lost between process restarts.
type Task struct {
	ID          id.ID      `db:"id"`
	EInvoiceID  id.ID      `db:"einvoice_id"`
	Payload     []byte     `db:"payload"`
	Status      TaskStatus `db:"status"`
	RetryCount  int        `db:"retry_count"`
	LastError   *string    `db:"last_error"`
	NextRetryAt *time.Time `db:"next_retry_at"`
	CreatedAt   time.Time  `db:"created_at"`
	CompletedAt *time.Time `db:"completed_at"`
}

// Journal persists submission tasks for the relay worker.
type Journal interface {
	// Enqueue inserts a pending task. Idempotent per e-invoice: a second
	// enqueue for the same document is a no-op while a task is pending.
	Enqueue(ctx context.Context, task Task) error

	// ClaimPending returns due pending tasks, locked against concurrent
	// relays (SKIP LOCKED in the postgres implementation).
	ClaimPending(ctx context.Context, limit int) ([]Task, error)

	MarkSucceeded(ctx context.Context, taskID id.ID) error

	// MarkRetry reschedules a transient failure.
	MarkRetry(ctx context.Context, taskID id.ID, errMsg string, nextRetryAt time.Time) error

	// MarkFailed parks a permanently rejected task.
	MarkFailed(ctx context.Context, taskID id.ID, errMsg string) error
}
