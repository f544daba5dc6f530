package testutil

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/dealflow/internal/db"
)

// FailingUoW wraps a UnitOfWork and fails a chosen write inside the
// transaction, so tests can check that earlier writes are rolled back.
//
// The write is picked by SQL text: the Nth (default first) ExecContext whose
// query contains Match returns Err. Reads are never failed.
type FailingUoW struct {
	db.UnitOfWork
	Match string
	Nth   int32
	Err   error

	hits atomic.Int32
}

// NewFailingUoW fails the first statement containing match on database.
func NewFailingUoW(database *sql.DB, match string, err error) *FailingUoW {
	return &FailingUoW{UnitOfWork: db.NewSQLiteUnitOfWork(database, db.WithBusyRetries(0)), Match: match, Err: err}
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return u.UnitOfWork.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingTx{DBTX: tx, uow: u})
	})
}

type failingTx struct {
	db.DBTX
	uow *FailingUoW
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Match) && f.uow.hits.Add(1) == max(f.uow.Nth, 1) {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
