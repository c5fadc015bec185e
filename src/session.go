package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/jmoiron/sqlx"
)

// Session is a unit of work on a database.
//
// A transaction is started by the first statement and stays open until
// Commit, Rollback or Close. Models added with Add are inserted on Flush
// or Commit.
//
// A session is meant to be used by one request at a time and is not
// safe for concurrent use.
type Session struct {
	db      *sqlx.DB
	dialect *drivers.Dialect
	tx      Transaction
	pending []pendingObject
	closed  bool
}

type pendingObject struct {
	meta *models.Meta
	obj  reflect.Value
}

// NewSession creates a session on an open database.
func NewSession(db *sqlx.DB) (*Session, error) {
	if db == nil {
		return nil, query_errors.ErrNoDatabase
	}
	var dialect, err = drivers.ForDB(db.DB)
	if err != nil {
		return nil, err
	}
	return &Session{db: db, dialect: dialect}, nil
}

// Dialect returns the SQL dialect statements are compiled for.
func (s *Session) Dialect() *drivers.Dialect {
	return s.dialect
}

// DatabaseName returns the driver name of the session's database.
func (s *Session) DatabaseName() string {
	return s.dialect.Name
}

// InTransaction reports whether a transaction is open.
func (s *Session) InTransaction() bool {
	return s.tx != nil
}

// conn returns the open transaction, starting one if needed.
func (s *Session) conn(ctx context.Context) (DB, error) {
	if s.closed {
		return nil, query_errors.ErrSessionClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	var tx, err = s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction for %s: %w", s.DatabaseName(), err)
	}
	s.tx = tx
	return tx, nil
}

func (s *Session) query(ctx context.Context, stmt *statement, model fmt.Stringer) (*sql.Rows, error) {
	var db, err = s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		logger.Errorf("Query (%s): %s: %s", model, stmt.sql, err.Error())
		return nil, err
	}
	logger.Debugf("Query (%s): %s", model, stmt.sql)
	return rows, nil
}

func (s *Session) exec(ctx context.Context, stmt *statement, model fmt.Stringer) (sql.Result, error) {
	var db, err = s.conn(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, stmt.sql, stmt.args...)
	if err != nil {
		logger.Errorf("Query (%s): %s: %s", model, stmt.sql, err.Error())
		return nil, err
	}
	logger.Debugf("Query (%s): %s", model, stmt.sql)
	return res, nil
}

// Add schedules a new model to be inserted on the next flush.
func (s *Session) Add(objs ...any) error {
	if s.closed {
		return query_errors.ErrSessionClosed
	}
	for _, obj := range objs {
		var meta, err = models.Of(obj)
		if err != nil {
			return err
		}
		var rV = reflect.ValueOf(obj)
		if rV.Kind() != reflect.Pointer || rV.IsNil() {
			return fmt.Errorf("Add expects a pointer to a model, got %T: %w", obj, query_errors.ErrInvalidModel)
		}
		s.pending = append(s.pending, pendingObject{meta: meta, obj: rV})
	}
	return nil
}

// Pending returns the number of models waiting to be inserted.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Flush inserts all pending models inside the open transaction.
func (s *Session) Flush(ctx context.Context) error {
	for len(s.pending) > 0 {
		var obj = s.pending[0]
		if err := s.insert(ctx, obj.meta, []reflect.Value{obj.obj}); err != nil {
			return err
		}
		s.pending = s.pending[1:]
	}
	s.pending = nil
	return nil
}

// Commit flushes pending models and commits the transaction.
func (s *Session) Commit(ctx context.Context) error {
	if s.closed {
		return query_errors.ErrSessionClosed
	}
	if err := s.Flush(ctx); err != nil {
		return err
	}
	if s.tx == nil {
		return nil
	}
	var tx = s.tx
	s.tx = nil
	var err = tx.Commit()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to commit transaction for %s: %w", s.DatabaseName(), err)
	}
	logger.Debugf("Committing transaction for %s", s.DatabaseName())
	return nil
}

// Rollback discards pending models and rolls back the transaction.
func (s *Session) Rollback() error {
	s.pending = nil
	if s.tx == nil {
		return nil
	}
	var tx = s.tx
	s.tx = nil
	var err = tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to rollback transaction for %s: %w", s.DatabaseName(), err)
	}
	logger.Warnf("Rolling back transaction for %s", s.DatabaseName())
	return nil
}

// Close rolls back anything uncommitted, the session cannot be used afterwards.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var err = s.Rollback()
	s.closed = true
	return err
}

// Run opens a session, commits it when fn succeeds, rolls it back
// when fn fails and always closes it.
func Run(ctx context.Context, db *sqlx.DB, fn func(s *Session) error) (err error) {
	var s *Session
	if s, err = NewSession(db); err != nil {
		return err
	}

	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("Run: panic recovered: %v", rec)
			err = fmt.Errorf("panic in session: %v", rec)
		}
		if closeErr := s.Close(); closeErr != nil {
			logger.Errorf("Run: failed to close session: %v", closeErr)
		}
	}()

	if err = fn(s); err != nil {
		return err
	}
	return s.Commit(ctx)
}
