// Package tx defines the transaction contract document services depend
// on. The postgres implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a function inside a database transaction: commit when fn
// returns nil, rollback otherwise. Nested calls join the transaction
// already on the context.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for query paths. Writes
// inside ReadOnly fail at the database.
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
