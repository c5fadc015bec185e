/*
Package queries implements a Django-style query builder on top of sqlx.

Queries are built from string paths such as "section__status__code__in",
where every segment but the last is a relationship or a column of the
current model and the last segment may be a lookup:

	var sections, err = queries.Objects[Section](session).
		Filter("subsections__status__code", "published").
		Options("subsections").
		OrderBy("-id").
		Limit(10).
		All(ctx)

Every chaining method returns a new QuerySet, the receiver is never modified.
*/
package queries

import (
	"context"
	"database/sql"
)

// This interface is compatible with `*sql.DB`, `*sql.Tx`, `*sqlx.DB` and `*sqlx.Tx`.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// This interface is compatible with `*sql.Tx` and `*sqlx.Tx`.
//
// It is the open transaction of a session.
type Transaction interface {
	DB
	Commit() error
	Rollback() error
}
