package queries

import (
	"fmt"

	"github.com/Nigel2392/go-django-repositories/src/models"
)

// QuerySet is an immutable query on the model T.
//
// Every chaining method returns a new QuerySet. Errors of chaining
// methods are kept on the returned QuerySet, they are returned by
// Err and by every method which executes the query.
type QuerySet[T any] struct {
	session *Session
	query   *Query
	err     error
}

// Objects returns a QuerySet for all rows of the model T.
func Objects[T any](s *Session) *QuerySet[T] {
	var qs = &QuerySet[T]{session: s}
	var meta, err = models.For[T]()
	if err != nil {
		qs.err = err
		return qs
	}
	if s == nil {
		qs.err = fmt.Errorf("no session for %s QuerySet", meta)
		return qs
	}
	qs.query = newQuery(meta, s.dialect)
	return qs
}

func (qs *QuerySet[T]) clone() *QuerySet[T] {
	var c = &QuerySet[T]{session: qs.session, err: qs.err}
	if qs.query != nil {
		c.query = qs.query.clone()
	}
	return c
}

// chain clones the QuerySet and applies fn to the query of the clone.
func (qs *QuerySet[T]) chain(fn func(q *Query) error) *QuerySet[T] {
	var c = qs.clone()
	if c.err != nil {
		return c
	}
	c.err = fn(c.query)
	return c
}

// Err returns the first error of the chain which built the QuerySet.
func (qs *QuerySet[T]) Err() error {
	return qs.err
}

// Meta returns the metadata of T.
func (qs *QuerySet[T]) Meta() *models.Meta {
	if qs.query == nil {
		return nil
	}
	return qs.query.meta
}

// Clone returns an independent copy of the QuerySet.
func (qs *QuerySet[T]) Clone() *QuerySet[T] {
	return qs.clone()
}

// Filter adds a condition on a field path, "status__code__in".
//
// Filtering on the same path twice keeps the last value.
func (qs *QuerySet[T]) Filter(key string, value any) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.filter(key, value)
	})
}

// FilterMap adds a condition for every key of the map.
func (qs *QuerySet[T]) FilterMap(filters map[string]any) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.filterMap(filters)
	})
}

// OrderBy orders the rows by field paths, a leading '-' orders descending.
func (qs *QuerySet[T]) OrderBy(tokens ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.orderBy(tokens...)
	})
}

// Options eager loads relationship paths, "subsections__status".
//
// Relationships which are joined anyway are read from the joined rows,
// others are loaded with one extra query per relationship.
func (qs *QuerySet[T]) Options(paths ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.eagerLoad(paths...)
	})
}

// Join forces an inner join of relationship paths.
func (qs *QuerySet[T]) Join(paths ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.join(false, paths...)
	})
}

// OuterJoin forces a left outer join of the last relationship of each path.
func (qs *QuerySet[T]) OuterJoin(paths ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.join(true, paths...)
	})
}

func (qs *QuerySet[T]) Limit(n int) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.setLimit(n)
	})
}

func (qs *QuerySet[T]) Offset(n int) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.setOffset(n)
	})
}

// ValuesList selects plain columns of T, see ValuesList.
func (qs *QuerySet[T]) ValuesList(columns ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.valuesList(columns...)
	})
}

// Returning sets what Update and Delete return: the listed columns,
// or the whole model when returnModel is set. Both cannot be combined.
func (qs *QuerySet[T]) Returning(returnModel bool, columns ...string) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		return q.returning(returnModel, columns...)
	})
}

// WithHints sets the execution hints of the query.
func (qs *QuerySet[T]) WithHints(hints Hints) *QuerySet[T] {
	return qs.chain(func(q *Query) error {
		q.hints = hints
		return nil
	})
}

// SQL compiles the select statement of the QuerySet.
func (qs *QuerySet[T]) SQL() (string, []any, error) {
	if qs.err != nil {
		return "", nil, qs.err
	}
	if len(qs.query.values) > 0 {
		var stmt, err = qs.query.buildValues()
		if err != nil {
			return "", nil, err
		}
		return stmt.sql, stmt.args, nil
	}
	var stmt, _, err = qs.query.buildSelect()
	if err != nil {
		return "", nil, err
	}
	return stmt.sql, stmt.args, nil
}

// CountSQL compiles the count statement of the QuerySet.
func (qs *QuerySet[T]) CountSQL() (string, []any, error) {
	if qs.err != nil {
		return "", nil, qs.err
	}
	var stmt, err = qs.query.buildCount()
	if err != nil {
		return "", nil, err
	}
	return stmt.sql, stmt.args, nil
}

// UpdateSQL compiles the update statement of the QuerySet.
func (qs *QuerySet[T]) UpdateSQL(values map[string]any) (string, []any, error) {
	if qs.err != nil {
		return "", nil, qs.err
	}
	var stmt, _, err = qs.query.buildUpdate(values)
	if err != nil {
		return "", nil, err
	}
	return stmt.sql, stmt.args, nil
}

// DeleteSQL compiles the delete statement of the QuerySet.
func (qs *QuerySet[T]) DeleteSQL() (string, []any, error) {
	if qs.err != nil {
		return "", nil, qs.err
	}
	var stmt, _, err = qs.query.buildDelete()
	if err != nil {
		return "", nil, err
	}
	return stmt.sql, stmt.args, nil
}
