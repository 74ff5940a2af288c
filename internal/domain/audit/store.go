// Package audit records document lifecycle transitions. Every status
// change appends an entry with actor, reason and timestamp; terminal
// documents keep their full trail.
package audit

import (
	"context"
	"time"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/lifecycle"
)

// Entry is one recorded transition of one document.
type Entry struct {
	ID           id.ID     `db:"id" json:"id"`
	DocumentType string    `db:"document_type" json:"documentType"`
	DocumentID   id.ID     `db:"document_id" json:"documentId"`
	FromStatus   string    `db:"from_status" json:"from"`
	ToStatus     string    `db:"to_status" json:"to"`
	Actor        string    `db:"actor" json:"actor"`
	Reason       string    `db:"reason" json:"reason,omitempty"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurredAt"`

	// Snapshot is the document state at transition time,
	// zstd-compressed JSON. Optional.
	Snapshot []byte `db:"snapshot" json:"-"`
}

// NewEntry builds an audit entry from a lifecycle record.
func NewEntry(docType lifecycle.DocType, docID id.ID, rec lifecycle.Record) Entry {
	return Entry{
		ID:           id.New(),
		DocumentType: string(docType),
		DocumentID:   docID,
		FromStatus:   string(rec.From),
		ToStatus:     string(rec.To),
		Actor:        rec.Actor,
		Reason:       rec.Reason,
		OccurredAt:   rec.At,
	}
}

// Store persists the transition trail.
type Store interface {
	// Append writes one entry. Participates in the caller's transaction.
	Append(ctx context.Context, entry Entry) error

	// ListByDocument returns the trail for one document, oldest first.
	ListByDocument(ctx context.Context, docID id.ID) ([]Entry, error)
}
