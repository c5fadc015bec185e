// Package apptest opens in-memory databases holding the example domain.
package apptest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/Nigel2392/go-django-repositories/internal/app/fixtures"
	"github.com/Nigel2392/go-django-repositories/internal/app/models"
	queries "github.com/Nigel2392/go-django-repositories/src"
	"github.com/Nigel2392/go-django-repositories/src/migrator"
	_ "github.com/Nigel2392/go-django-repositories/src/migrator/sql/sqlite"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var counter atomic.Int64

// NewDB returns a database with the example tables and the fixtures committed.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()

	var dsn = fmt.Sprintf("file:apptest_%d?mode=memory&cache=shared", counter.Add(1))
	var db, err = sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	var ctx = context.Background()
	metas, err := models.All()
	if err != nil {
		t.Fatalf("failed to inspect models: %v", err)
	}
	if err := migrator.CreateTables(ctx, db, metas...); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}

	err = queries.Run(ctx, db, func(s *queries.Session) error {
		return fixtures.Load(ctx, s)
	})
	if err != nil {
		t.Fatalf("failed to load fixtures: %v", err)
	}
	return db
}

// NewSession returns a session on db which is closed when the test ends.
func NewSession(t testing.TB, db *sqlx.DB) *queries.Session {
	t.Helper()
	var s, err = queries.NewSession(db)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}
