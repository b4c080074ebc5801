package rolewatch

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// InTransaction runs fn against a store bound to a single database
// transaction. If fn returns an error, the transaction is rolled back.
// When the store is already bound to a transaction, a savepoint is used.
//
// Example:
//
//	err := store.InTransaction(ctx, func(ctx context.Context, tx rolewatch.Store) error {
//	    if err := tx.DetachAll(ctx, user, rolewatch.KindRole); err != nil {
//	        return err // This will cause a rollback
//	    }
//	    return tx.Attach(ctx, user, rolewatch.KindRole, ids)
//	})
func (s *DBStore) InTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.bind(tx))
		})
	}

	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.bind(tx))
		})
	}

	return NewError(ErrNoTransaction, "transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// TransactionWithOptions is InTransaction with custom options such as the
// isolation level. Options are ignored inside a savepoint.
//
// Example:
//
//	err := store.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), fn)
func (s *DBStore) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context, store Store) error) error {
	if tx, ok := s.db.(*dbkit.Tx); ok {
		return tx.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.bind(tx))
		})
	}

	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, s.bind(tx))
		})
	}

	return NewError(ErrNoTransaction, "transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}
