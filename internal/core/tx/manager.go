// Package tx defines the transaction-management abstraction that keeps
// domain engines decoupled from the storage implementation.
//
// The completion and conversion engines require that all of their side
// effects happen inside one unit of work; they express that requirement
// against Manager and never see the underlying database handle.
package tx

import (
	"context"
)

// Manager runs functions inside a database transaction.
//
// Implementations handle BEGIN, COMMIT and ROLLBACK. Nested calls reuse
// the transaction already present in the context, so a service method
// that opens a transaction can freely call repositories that would open
// one themselves.
type Manager interface {
	// RunInTransaction executes fn within a transaction. A non-nil error
	// from fn rolls the transaction back; nil commits it.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that must see a consistent snapshot but never write.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
