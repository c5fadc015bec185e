package queries

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/Nigel2392/go-django/src/core/logger"
)

// Result is returned by Update and Delete.
//
// Objects is filled when the QuerySet returns the model,
// Values when it returns a list of columns.
type Result[T any] struct {
	RowsAffected int64
	Objects      []*T
	Values       [][]any
}

type execOptions struct {
	flush  bool
	commit bool
}

// ExecOption makes a write persist its changes.
type ExecOption func(*execOptions)

// Flush flushes the session after the write.
func Flush() ExecOption {
	return func(o *execOptions) {
		o.flush = true
	}
}

// Commit commits the session after the write.
func Commit() ExecOption {
	return func(o *execOptions) {
		o.commit = true
	}
}

func (qs *QuerySet[T]) persist(ctx context.Context, opts []ExecOption) error {
	var o execOptions
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.commit:
		return qs.session.Commit(ctx)
	case o.flush:
		return qs.session.Flush(ctx)
	}
	return nil
}

func toModels[T any](values []reflect.Value) []*T {
	var list = make([]*T, len(values))
	for i, v := range values {
		list[i] = v.Interface().(*T)
	}
	return list
}

// All executes the query and returns every matching model.
func (qs *QuerySet[T]) All(ctx context.Context) ([]*T, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	var objects, err = qs.session.selectObjects(ctx, qs.query)
	if err != nil {
		return nil, err
	}
	return toModels[T](objects), nil
}

// First returns the first matching model or nil if there is none.
func (qs *QuerySet[T]) First(ctx context.Context) (*T, error) {
	var list, err = qs.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// Count returns the number of distinct matching models,
// limit and offset are ignored.
func (qs *QuerySet[T]) Count(ctx context.Context) (int64, error) {
	if qs.err != nil {
		return 0, qs.err
	}
	return qs.session.count(ctx, qs.query)
}

func (qs *QuerySet[T]) Exists(ctx context.Context) (bool, error) {
	var count, err = qs.Count(ctx)
	return count > 0, err
}

// GetOneOrNone returns the single matching model, nil if nothing matches
// and ErrMultipleObjectsReturned if more than one does.
func (qs *QuerySet[T]) GetOneOrNone(ctx context.Context) (*T, error) {
	var list, err = qs.Limit(2).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(list) {
	case 0:
		return nil, nil
	case 1:
		return list[0], nil
	}
	return nil, fmt.Errorf(
		"%s: %w", qs.query.meta, query_errors.ErrMultipleObjectsReturned,
	)
}

// GetOneOrRaise is like GetOneOrNone but returns ErrObjectNotFound
// when nothing matches.
func (qs *QuerySet[T]) GetOneOrRaise(ctx context.Context) (*T, error) {
	var obj, err = qs.GetOneOrNone(ctx)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf(
			"%s: %w", qs.query.meta, query_errors.ErrObjectNotFound,
		)
	}
	return obj, nil
}

// Values executes a ValuesList query, one slice per row.
func (qs *QuerySet[T]) Values(ctx context.Context) ([][]any, error) {
	if qs.err != nil {
		return nil, qs.err
	}
	if len(qs.query.values) == 0 {
		return nil, fmt.Errorf("Values called without ValuesList columns: %w", query_errors.ErrColumnNotFound)
	}
	return qs.session.selectValues(ctx, qs.query)
}

// GetOrCreate returns the model matching lookup.
//
// If there is none a new model is created from lookup and defaults and
// flushed to the database. Lookup keys with a lookup or a relationship,
// "name__icontains", are not copied into the new model.
func (qs *QuerySet[T]) GetOrCreate(ctx context.Context, lookup, defaults map[string]any) (*T, bool, error) {
	var obj, err = qs.FilterMap(lookup).GetOneOrNone(ctx)
	if err != nil {
		return nil, false, err
	}
	if obj != nil {
		return obj, false, nil
	}

	obj = new(T)
	var values = make(map[string]any, len(lookup)+len(defaults))
	for k, v := range lookup {
		if strings.Contains(k, PathSeparator) {
			continue
		}
		values[k] = v
	}
	for k, v := range defaults {
		values[k] = v
	}

	if err := models.Assign(obj, values); err != nil {
		return nil, false, err
	}
	if err := qs.session.Add(obj); err != nil {
		return nil, false, err
	}
	if err := qs.session.Flush(ctx); err != nil {
		return nil, false, err
	}
	return obj, true, nil
}

// UpdateOrCreate updates the model matching lookup with updateDefaults,
// or creates it with createDefaults.
//
// When createDefaults is nil updateDefaults are used for creation.
func (qs *QuerySet[T]) UpdateOrCreate(ctx context.Context, lookup, updateDefaults, createDefaults map[string]any) (*T, bool, error) {
	if createDefaults == nil {
		createDefaults = updateDefaults
	}

	var obj, created, err = qs.GetOrCreate(ctx, lookup, createDefaults)
	if err != nil || created || len(updateDefaults) == 0 {
		return obj, created, err
	}

	if err := models.Assign(obj, updateDefaults); err != nil {
		return nil, false, err
	}

	var meta = qs.query.meta
	pk, err := meta.PrimaryKey(obj)
	if err != nil {
		return nil, false, err
	}

	var q = newQuery(meta, qs.session.dialect)
	if err := q.filter(meta.Primary().Name, pk); err != nil {
		return nil, false, err
	}
	if _, err := qs.session.update(ctx, q, updateDefaults); err != nil {
		return nil, false, err
	}
	return obj, false, nil
}

// InBulk returns the matching models keyed by the value of fieldName,
// the primary key if it is empty.
//
// A nil ids slice returns all rows, an empty one returns an empty map
// without querying the database.
func (qs *QuerySet[T]) InBulk(ctx context.Context, ids []any, fieldName string) (map[any]*T, error) {
	if qs.err != nil {
		return nil, qs.err
	}

	var meta = qs.query.meta
	if fieldName == "" {
		fieldName = meta.Primary().Name
	}

	if _, ok := meta.Field(fieldName); !ok {
		return nil, &query_errors.FieldError{
			Mode:  query_errors.ModeFilter,
			Model: meta.String(),
			Path:  fieldName,
			Err:   &query_errors.ColumnNotFoundError{Model: meta.String(), Path: fieldName},
		}
	}

	if !meta.IsUnique(fieldName) {
		logger.Warnf(
			"InBulk on %s uses non-unique field %q, rows with the same value overwrite each other",
			meta, fieldName,
		)
	}

	if ids != nil && len(ids) == 0 {
		return map[any]*T{}, nil
	}

	var filtered = qs
	if ids != nil {
		filtered = qs.Filter(fieldName+PathSeparator+"in", ids)
	}

	var list, err = filtered.All(ctx)
	if err != nil {
		return nil, err
	}

	var result = make(map[any]*T, len(list))
	for _, obj := range list {
		var value, err = meta.Get(obj, fieldName)
		if err != nil {
			return nil, err
		}
		result[models.KeyOf(value)] = obj
	}
	return result, nil
}

// Update sets values on every matching row.
//
// Nothing is flushed or committed unless an ExecOption asks for it.
func (qs *QuerySet[T]) Update(ctx context.Context, values map[string]any, opts ...ExecOption) (*Result[T], error) {
	if qs.err != nil {
		return nil, qs.err
	}
	var res, err = qs.session.update(ctx, qs.query, values)
	if err != nil {
		return nil, err
	}
	if err := qs.persist(ctx, opts); err != nil {
		return nil, err
	}
	return newResult[T](res), nil
}

// Delete deletes every matching row.
func (qs *QuerySet[T]) Delete(ctx context.Context, opts ...ExecOption) (*Result[T], error) {
	if qs.err != nil {
		return nil, qs.err
	}
	var res, err = qs.session.delete(ctx, qs.query)
	if err != nil {
		return nil, err
	}
	if err := qs.persist(ctx, opts); err != nil {
		return nil, err
	}
	return newResult[T](res), nil
}

func newResult[T any](res *writeResult) *Result[T] {
	var r = &Result[T]{
		RowsAffected: res.rowsAffected,
		Values:       res.values,
	}
	if res.objects != nil {
		r.Objects = toModels[T](res.objects)
	}
	return r
}
