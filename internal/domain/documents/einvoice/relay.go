package einvoice

import (
	"context"
	"time"

	"retailcore/internal/core/apperror"
	"retailcore/internal/domain/lifecycle"
	"retailcore/pkg/logger"
)

// Relay drains the submission journal in the background: tasks left
// behind by crashed or retry-exhausted submissions are pushed to the
// portal until they succeed or are permanently rejected.
type Relay struct {
	service     *Service
	journal     Journal
	repo        Repository
	portal      Portal
	batchSize   int
	interval    time.Duration
	maxRetries  int
	backoffBase time.Duration
}

// NewRelay creates a submission relay.
func NewRelay(service *Service, journal Journal, repo Repository, portal Portal) *Relay {
	return &Relay{
		service:     service,
		journal:     journal,
		repo:        repo,
		portal:      portal,
		batchSize:   20,
		interval:    5 * time.Second,
		maxRetries:  10,
		backoffBase: time.Second,
	}
}

// Run processes batches until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			processed, err := r.ProcessBatch(ctx)
			if err != nil {
				logger.Error(ctx, "relay batch failed", "error", err)
				continue
			}
			if processed > 0 {
				logger.Info(ctx, "relay batch processed", "count", processed)
			}
		}
	}
}

// ProcessBatch claims due tasks and pushes each to the portal.
// Returns the number of tasks that reached a final outcome.
func (r *Relay) ProcessBatch(ctx context.Context) (int, error) {
	tasks, err := r.journal.ClaimPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, task := range tasks {
		if err := r.processTask(ctx, task); err != nil {
			logger.Warn(ctx, "relay task deferred", "task_id", task.ID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (r *Relay) processTask(ctx context.Context, task Task) error {
	doc, err := r.repo.GetByID(ctx, task.EInvoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return r.journal.MarkFailed(ctx, task.ID, "document no longer exists")
		}
		return err
	}

	// Another path won the race and already registered the document.
	if doc.Status == lifecycle.StatusSubmitted {
		return r.journal.MarkSucceeded(ctx, task.ID)
	}
	if doc.Status != lifecycle.StatusGenerated {
		return r.journal.MarkFailed(ctx, task.ID, "document is no longer submittable")
	}

	ack, err := r.portal.Submit(ctx, Submission{
		IdempotencyKey: doc.ID.String(),
		InvoiceNo:      doc.InvoiceNo,
		Payload:        task.Payload,
	})
	if err != nil {
		if !apperror.IsRetryableSubmission(err) {
			return r.journal.MarkFailed(ctx, task.ID, err.Error())
		}
		if task.RetryCount >= r.maxRetries {
			return r.journal.MarkFailed(ctx, task.ID, err.Error())
		}
		retryAt := time.Now().Add(backoffDelay(r.backoffBase, task.RetryCount))
		return r.journal.MarkRetry(ctx, task.ID, err.Error(), retryAt)
	}

	if err := r.service.finalize(ctx, doc, ack, lifecycle.Meta{Actor: "relay"}); err != nil {
		return err
	}
	return r.journal.MarkSucceeded(ctx, task.ID)
}
