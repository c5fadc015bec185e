package queries

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/pkg/errors"
)

// insert writes objs with a single statement and reads the
// generated columns back into them.
//
// Objects without a primary key value let the database generate it,
// objects with one are inserted with it. Both kinds are not mixed in
// one statement.
func (s *Session) insert(ctx context.Context, meta *models.Meta, objs []reflect.Value) error {
	if len(objs) == 0 {
		return nil
	}

	var withPK, withoutPK = splitByPrimaryKey(meta, objs)
	if len(withPK) > 0 && len(withoutPK) > 0 {
		if err := s.insert(ctx, meta, withPK); err != nil {
			return err
		}
		return s.insert(ctx, meta, withoutPK)
	}

	for _, obj := range objs {
		if err := sendSignal(SignalPreModelCreate, s, meta, obj.Interface()); err != nil {
			return err
		}
	}

	var columns = make([]*models.Field, 0, len(meta.Fields()))
	for _, f := range meta.Fields() {
		if f.Primary && len(withPK) == 0 {
			continue
		}
		columns = append(columns, f)
	}

	var rows = make([][]any, len(objs))
	for i, obj := range objs {
		var row = make([]any, len(columns))
		for j, f := range columns {
			row[j] = meta.FieldValue(obj, f).Interface()
		}
		rows[i] = row
	}

	var stmt = buildInsert(s.dialect, meta, columns, rows)
	switch s.dialect.SupportsReturning {
	case drivers.SupportsReturningColumns:
		if err := s.insertReturning(ctx, meta, stmt, objs); err != nil {
			return err
		}
	default:
		if err := s.insertLastInsertId(ctx, meta, stmt, objs, len(withPK) == 0); err != nil {
			return err
		}
	}

	for _, obj := range objs {
		if err := sendSignal(SignalPostModelCreate, s, meta, obj.Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) insertReturning(ctx context.Context, meta *models.Meta, stmt *statement, objs []reflect.Value) error {
	var rows, err = s.query(ctx, stmt, meta)
	if err != nil {
		return errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var fields = meta.Fields()
	var idx = 0
	for rows.Next() {
		if idx >= len(objs) {
			return fmt.Errorf("insert into %s returned more rows than inserted", meta.Table)
		}
		var targets = make([]any, len(fields))
		for i, f := range fields {
			targets[i] = f.ScanTarget()
		}
		if err := rows.Scan(targets...); err != nil {
			return errors.Wrap(err, "failed to scan row")
		}
		for i, f := range fields {
			meta.SetScanned(objs[idx], f, targets[i])
		}
		idx++
	}

	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "failed to iterate rows")
	}
	return nil
}

// insertLastInsertId assigns generated keys from the driver's last insert id.
// Multi row inserts get consecutive ids starting at the reported one.
func (s *Session) insertLastInsertId(ctx context.Context, meta *models.Meta, stmt *statement, objs []reflect.Value, generated bool) error {
	var res, err = s.exec(ctx, stmt, meta)
	if err != nil {
		return errors.Wrap(err, "failed to execute query")
	}

	if !generated {
		return nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "failed to get last insert id")
	}
	if id == 0 {
		return query_errors.ErrLastInsertId
	}

	for i, obj := range objs {
		if err := meta.Set(obj, meta.Primary().Name, id+int64(i)); err != nil {
			return err
		}
	}
	return nil
}

func splitByPrimaryKey(meta *models.Meta, objs []reflect.Value) (withPK, withoutPK []reflect.Value) {
	var pk = meta.Primary()
	for _, obj := range objs {
		if reflect.Indirect(obj).FieldByIndex(pk.Index).IsZero() {
			withoutPK = append(withoutPK, obj)
		} else {
			withPK = append(withPK, obj)
		}
	}
	return withPK, withoutPK
}
