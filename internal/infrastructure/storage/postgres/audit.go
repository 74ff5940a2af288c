// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"retailcore/internal/core/id"
	"retailcore/internal/domain/audit"
)

const auditTable = "sys_audit_trail"

// CompressionAlgo specifies the compression algorithm used for snapshots.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditStore implements audit.Store. Document snapshots above the
// threshold are stored zstd-compressed.
type AuditStore struct {
	txManager         *TxManager
	builder           squirrel.StatementBuilderType
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditStore creates the audit trail store.
func NewAuditStore(txManager *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txManager:         txManager,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 4 * 1024,
	}, nil
}

// Append writes one trail entry inside the caller's transaction.
func (s *AuditStore) Append(ctx context.Context, entry audit.Entry) error {
	snapshot := entry.Snapshot
	algo := CompressionNone
	if len(snapshot) > s.compressThreshold {
		snapshot = s.encoder.EncodeAll(snapshot, nil)
		algo = CompressionZstd
	}

	q := s.builder.Insert(auditTable).SetMap(map[string]any{
		"id":               entry.ID,
		"document_type":    entry.DocumentType,
		"document_id":      entry.DocumentID,
		"from_status":      entry.FromStatus,
		"to_status":        entry.ToStatus,
		"actor":            entry.Actor,
		"reason":           entry.Reason,
		"occurred_at":      entry.OccurredAt,
		"snapshot":         snapshot,
		"compression_algo": algo,
	})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := s.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

type auditRow struct {
	audit.Entry
	CompressionAlgo CompressionAlgo `db:"compression_algo"`
}

// ListByDocument returns the trail for one document, oldest first.
func (s *AuditStore) ListByDocument(ctx context.Context, docID id.ID) ([]audit.Entry, error) {
	q := s.builder.Select(
		"id", "document_type", "document_id", "from_status", "to_status",
		"actor", "reason", "occurred_at", "snapshot", "compression_algo",
	).From(auditTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("occurred_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []auditRow
	querier := s.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if row.CompressionAlgo == CompressionZstd && len(entry.Snapshot) > 0 {
			decompressed, err := s.decoder.DecodeAll(entry.Snapshot, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshot: %w", err)
			}
			entry.Snapshot = decompressed
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var _ audit.Store = (*AuditStore)(nil)
