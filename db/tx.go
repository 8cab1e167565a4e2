package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx returns a context carrying tx. Services called with that context run
// their statements inside tx instead of opening their own transaction.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the transaction attached to ctx, if any.
func TxFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// Conn returns the ambient transaction of ctx or base bound to ctx.
func Conn(ctx context.Context, base *gorm.DB) *gorm.DB {
	if tx, ok := TxFrom(ctx); ok {
		return tx
	}
	return base.WithContext(ctx)
}

// RunInTx runs fn in a transaction. When ctx already carries one, fn runs in a
// savepoint of it; otherwise a new transaction is opened on base. Any error
// returned by fn rolls back everything fn did.
func RunInTx(ctx context.Context, base *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx, ok := TxFrom(ctx); ok {
		return tx.Transaction(fn)
	}
	return base.WithContext(ctx).Transaction(fn)
}
