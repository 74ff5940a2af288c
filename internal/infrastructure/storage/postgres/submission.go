package postgres

import (
	"context"
	"fmt"
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/documents/einvoice"
)

// SubmissionJournal implements einvoice.Journal on the sys_submissions
// table. Pending rows survive process restarts; the relay worker claims
// them with SKIP LOCKED so concurrent relays never double-submit.
type SubmissionJournal struct {
	txManager *TxManager
}

// NewSubmissionJournal creates the journal.
func NewSubmissionJournal(txManager *TxManager) *SubmissionJournal {
	return &SubmissionJournal{txManager: txManager}
}

// Enqueue inserts a pending task. A second enqueue while one is pending
// for the same document is a no-op, keyed by a partial unique index on
// (einvoice_id) WHERE status = 'pending'.
func (j *SubmissionJournal) Enqueue(ctx context.Context, task einvoice.Task) error {
	querier := j.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO sys_submissions (id, einvoice_id, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT DO NOTHING
	`, task.ID, task.EInvoiceID, task.Payload, einvoice.TaskPending, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue submission: %w", err)
	}
	return nil
}

// ClaimPending returns due pending tasks locked for this relay.
func (j *SubmissionJournal) ClaimPending(ctx context.Context, limit int) ([]einvoice.Task, error) {
	querier := j.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, `
		SELECT id, einvoice_id, payload, status, retry_count, last_error, next_retry_at, created_at, completed_at
		FROM sys_submissions
		WHERE status = $1
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, einvoice.TaskPending, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}
	defer rows.Close()

	var tasks []einvoice.Task
	for rows.Next() {
		var t einvoice.Task
		err := rows.Scan(
			&t.ID, &t.EInvoiceID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.NextRetryAt, &t.CreatedAt, &t.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return tasks, nil
}

func (j *SubmissionJournal) MarkSucceeded(ctx context.Context, taskID id.ID) error {
	querier := j.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		UPDATE sys_submissions
		SET status = $1, completed_at = $2
		WHERE id = $3
	`, einvoice.TaskSucceeded, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("mark submission succeeded: %w", err)
	}
	return nil
}

func (j *SubmissionJournal) MarkRetry(ctx context.Context, taskID id.ID, errMsg string, nextRetryAt time.Time) error {
	querier := j.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		UPDATE sys_submissions
		SET retry_count = retry_count + 1, last_error = $1, next_retry_at = $2
		WHERE id = $3
	`, errMsg, nextRetryAt, taskID)
	if err != nil {
		return fmt.Errorf("reschedule submission: %w", err)
	}
	return nil
}

func (j *SubmissionJournal) MarkFailed(ctx context.Context, taskID id.ID, errMsg string) error {
	querier := j.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		UPDATE sys_submissions
		SET status = $1, last_error = $2, completed_at = $3
		WHERE id = $4
	`, einvoice.TaskFailed, errMsg, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("mark submission failed: %w", err)
	}
	return nil
}

var _ einvoice.Journal = (*SubmissionJournal)(nil)
