package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor runs a function inside a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(q DBTX) error) error
}

type poolTransactor struct {
	pool Pool
}

// NewTransactor wraps a pool (or pgxmock) as a Transactor.
func NewTransactor(pool Pool) Transactor {
	return &poolTransactor{pool: pool}
}

func (t *poolTransactor) WithinTx(ctx context.Context, fn func(q DBTX) error) error {
	return pgx.BeginFunc(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}
