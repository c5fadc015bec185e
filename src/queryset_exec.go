package queries

import (
	"context"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/pkg/errors"
)

// writeResult is the outcome of an update or delete.
type writeResult struct {
	rowsAffected int64
	objects      []reflect.Value
	values       [][]any
}

func (q *Query) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.hints.Timeout > 0 {
		return context.WithTimeout(ctx, q.hints.Timeout)
	}
	return ctx, func() {}
}

// selectObjects runs the select statement of q and its dependent
// fetches, it returns pointers to the root models.
func (s *Session) selectObjects(ctx context.Context, q *Query) ([]reflect.Value, error) {
	var stmt, layout, err = q.buildSelect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	roots, byKey, err := s.scanObjects(ctx, q.meta, stmt, layout)
	if err != nil {
		return nil, err
	}

	for _, fetch := range layout.fetches {
		var parents = roots
		if fetch.parentKey != "" {
			parents = byKey[fetch.parentKey]
		}
		if err := s.prefetch(ctx, fetch, parents); err != nil {
			return nil, err
		}
	}

	return roots, nil
}

func (s *Session) scanObjects(ctx context.Context, meta *models.Meta, stmt *statement, layout *selectLayout) ([]reflect.Value, map[string][]reflect.Value, error) {
	var sqlRows, err = s.query(ctx, stmt, meta)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to execute query")
	}
	defer sqlRows.Close()

	var (
		scanner = newRowScanner(meta, layout)
		result  = newRows()
	)
	for sqlRows.Next() {
		var chains, err = scanner.scan(sqlRows)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan row")
		}
		for _, chain := range chains {
			result.addObject(chain)
		}
	}

	if err := sqlRows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to iterate rows")
	}

	return result.compile()
}

func (s *Session) selectValues(ctx context.Context, q *Query) ([][]any, error) {
	var stmt, err = q.buildValues()
	if err != nil {
		return nil, err
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	return s.scanValues(ctx, q.meta, stmt, q.values)
}

func (s *Session) scanValues(ctx context.Context, meta *models.Meta, stmt *statement, fields []*models.Field) ([][]any, error) {
	var rows, err = s.query(ctx, stmt, meta)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var list = make([][]any, 0)
	for rows.Next() {
		var targets = make([]any, len(fields))
		for i, f := range fields {
			targets[i] = f.ScanTarget()
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		var row = make([]any, len(fields))
		for i, f := range fields {
			row[i] = f.Scanned(targets[i])
		}
		list = append(list, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate rows")
	}
	return list, nil
}

func (s *Session) count(ctx context.Context, q *Query) (int64, error) {
	var stmt, err = q.buildCount()
	if err != nil {
		return 0, err
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	rows, err := s.query(ctx, stmt, q.meta)
	if err != nil {
		return 0, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, errors.Wrap(err, "failed to scan row")
		}
	}
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, "failed to iterate rows")
	}
	return count, nil
}

func (s *Session) update(ctx context.Context, q *Query, values map[string]any) (*writeResult, error) {
	var stmt, returning, err = q.buildUpdate(values)
	if err != nil {
		return nil, err
	}
	return s.write(ctx, q, stmt, returning)
}

func (s *Session) delete(ctx context.Context, q *Query) (*writeResult, error) {
	var stmt, returning, err = q.buildDelete()
	if err != nil {
		return nil, err
	}
	return s.write(ctx, q, stmt, returning)
}

func (s *Session) write(ctx context.Context, q *Query, stmt *statement, returning []*models.Field) (*writeResult, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if len(returning) == 0 {
		var res, err = s.exec(ctx, stmt, q.meta)
		if err != nil {
			return nil, errors.Wrap(err, "failed to execute query")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get rows affected")
		}
		return &writeResult{rowsAffected: affected}, nil
	}

	var values, err = s.scanValues(ctx, q.meta, stmt, returning)
	if err != nil {
		return nil, err
	}

	var result = &writeResult{rowsAffected: int64(len(values))}
	if !q.retModel {
		result.values = values
		return result, nil
	}

	result.objects = make([]reflect.Value, len(values))
	for i, row := range values {
		var obj = q.meta.New()
		for j, f := range returning {
			if err := q.meta.Set(obj, f.Name, row[j]); err != nil {
				return nil, err
			}
		}
		result.objects[i] = obj
	}
	return result, nil
}
