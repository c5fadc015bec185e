package queries

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

// Repository creates and queries models of type T on a session.
//
// Named scopes are added by embedding it:
//
//	type UsersRepository struct {
//		*queries.Repository[User]
//	}
//
//	func (r *UsersRepository) Active() *queries.QuerySet[User] {
//		return r.Objects().Filter("is_active", true)
//	}
type Repository[T any] struct {
	session *Session
	meta    *models.Meta
}

// NewRepository returns a repository for T, it fails if T is not a valid model.
func NewRepository[T any](s *Session) (*Repository[T], error) {
	if s == nil {
		return nil, query_errors.ErrNoDatabase
	}
	var meta, err = models.For[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{session: s, meta: meta}, nil
}

func (r *Repository[T]) Session() *Session {
	return r.session
}

func (r *Repository[T]) Meta() *models.Meta {
	return r.meta
}

// Objects returns a new QuerySet over all rows of T.
func (r *Repository[T]) Objects() *QuerySet[T] {
	return Objects[T](r.session)
}

// Create builds a model from values and adds it to the session.
//
// The model is inserted on the next flush, or immediately
// when an ExecOption is given.
func (r *Repository[T]) Create(ctx context.Context, values map[string]any, opts ...ExecOption) (*T, error) {
	var obj = new(T)
	if err := models.Assign(obj, values); err != nil {
		return nil, err
	}
	if err := r.session.Add(obj); err != nil {
		return nil, err
	}
	if err := r.Objects().persist(ctx, opts); err != nil {
		return nil, err
	}
	return obj, nil
}

// BulkCreate inserts a model for every map in values.
//
// Rows are inserted batchSize at a time, all at once if batchSize is 0.
// The generated primary keys are set on the returned models.
func (r *Repository[T]) BulkCreate(ctx context.Context, values []map[string]any, batchSize int) ([]*T, error) {
	if batchSize < 0 {
		return nil, fmt.Errorf("batch size %d: %w", batchSize, query_errors.ErrInvalidBatchSize)
	}

	var (
		list    = make([]*T, len(values))
		objects = make([]reflect.Value, len(values))
	)
	for i, v := range values {
		var obj = new(T)
		if err := models.Assign(obj, v); err != nil {
			return nil, err
		}
		list[i] = obj
		objects[i] = reflect.ValueOf(obj)
	}

	if batchSize == 0 {
		batchSize = len(objects)
	}

	for start := 0; start < len(objects); start += batchSize {
		var end = min(start+batchSize, len(objects))
		if err := r.session.insert(ctx, r.meta, objects[start:end]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetByPK returns the model with the given primary key or nil.
func (r *Repository[T]) GetByPK(ctx context.Context, pk any) (*T, error) {
	return r.Objects().Filter(r.meta.Primary().Name, pk).GetOneOrNone(ctx)
}

// All returns every row of T.
func (r *Repository[T]) All(ctx context.Context) ([]*T, error) {
	return r.Objects().All(ctx)
}
