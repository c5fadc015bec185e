package queries

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/expr"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/Nigel2392/go-django/src/core/logger"
	"github.com/elliotchance/orderedmap/v2"
)

// Hints change how a statement is executed without changing its result set.
type Hints struct {
	// ForUpdate locks the selected rows on databases which support it.
	ForUpdate bool

	// Timeout cancels the statement after the given duration.
	Timeout time.Duration
}

// condition is a compiled predicate bound to the alias of its column.
type condition struct {
	path string
	sql  string
	args []any
}

// ordering is a single ORDER BY term.
type ordering struct {
	token string
	alias string
	field *models.Field
	desc  bool
}

// Query holds the state of a query under construction.
//
// It does not know the Go type of its rows, QuerySet adds that.
// All methods modify the receiver, QuerySet clones before calling them.
type Query struct {
	meta    *models.Meta
	dialect *drivers.Dialect

	joins    *joinTree
	where    *orderedmap.OrderedMap[string, *condition]
	order    *orderedmap.OrderedMap[string, *ordering]
	options  *optionTree
	limit    int
	offset   int
	values   []*models.Field
	hints    Hints
	retCols  []*models.Field
	retModel bool
}

func newQuery(meta *models.Meta, dialect *drivers.Dialect) *Query {
	return &Query{
		meta:    meta,
		dialect: dialect,
		joins:   newJoinTree(meta),
		where:   orderedmap.NewOrderedMap[string, *condition](),
		order:   orderedmap.NewOrderedMap[string, *ordering](),
		options: newOptionTree(),
	}
}

func (q *Query) clone() *Query {
	var c = *q
	c.joins = q.joins.clone()
	c.where = q.where.Copy()
	c.order = q.order.Copy()
	c.options = q.options.clone()
	c.values = slices.Clone(q.values)
	c.retCols = slices.Clone(q.retCols)
	return &c
}

func (q *Query) aliasOf(p *resolvedPath) (string, error) {
	if len(p.relations) == 0 {
		return q.joins.rootAlias, nil
	}
	var node, err = q.joins.ensurePath(p.relations)
	if err != nil {
		return "", err
	}
	return node.alias, nil
}

// filter adds a condition. A key which was filtered on before
// keeps its position but takes the new value.
func (q *Query) filter(key string, value any) error {
	var path, err = resolvePath(q.meta, key, query_errors.ModeFilter)
	if err != nil {
		return err
	}

	alias, err := q.aliasOf(path)
	if err != nil {
		return err
	}

	var column = q.dialect.Column(alias, path.field.Name)
	sql, args, err := expr.Resolve(q.dialect.Driver, path.lookup, column, value)
	if err != nil {
		return &query_errors.FieldError{
			Mode:  query_errors.ModeFilter,
			Model: q.meta.String(),
			Path:  key,
			Err:   err,
		}
	}

	if _, exists := q.where.Get(key); exists {
		logger.Warnf("Filter %q on %s was already set, overwriting the previous value", key, q.meta)
	}

	q.where.Set(key, &condition{path: key, sql: sql, args: args})
	return nil
}

// filterMap applies the filters of a map in sorted key order.
func (q *Query) filterMap(filters map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		if err := q.filter(key, filters[key]); err != nil {
			return err
		}
	}
	return nil
}

// orderBy adds ORDER BY terms. A token which was added before
// keeps its position.
func (q *Query) orderBy(tokens ...string) error {
	for _, token := range tokens {
		var name, desc = token, false
		switch {
		case strings.HasPrefix(token, "-"):
			name, desc = token[1:], true
		case strings.HasPrefix(token, "+"):
			name = token[1:]
		}

		var path, err = resolvePath(q.meta, name, query_errors.ModeOrder)
		if err != nil {
			return err
		}

		alias, err := q.aliasOf(path)
		if err != nil {
			return err
		}

		if _, exists := q.order.Get(token); exists {
			logger.Warnf("Ordering %q on %s was already set", token, q.meta)
		}

		q.order.Set(token, &ordering{
			token: token,
			alias: alias,
			field: path.field,
			desc:  desc,
		})
	}
	return nil
}

// eagerLoad marks relationship chains to be loaded with the rows.
func (q *Query) eagerLoad(paths ...string) error {
	for _, p := range paths {
		var path, err = resolvePath(q.meta, p, query_errors.ModeOption)
		if err != nil {
			return err
		}
		q.options.add(path.relations)
	}
	return nil
}

// join forces a join for every chain, the deepest relationship of
// each chain gets the requested join type.
func (q *Query) join(outer bool, paths ...string) error {
	for _, p := range paths {
		var path, err = resolvePath(q.meta, p, query_errors.ModeJoin)
		if err != nil {
			return err
		}
		if err := q.joins.markOuter(path.relations, outer); err != nil {
			return err
		}
	}
	return nil
}

func (q *Query) setLimit(n int) error {
	if n < 1 {
		return fmt.Errorf("limit %d: %w", n, query_errors.ErrInvalidLimit)
	}
	q.limit = n
	return nil
}

func (q *Query) setOffset(n int) error {
	if n < 0 {
		return fmt.Errorf("offset %d: %w", n, query_errors.ErrInvalidOffset)
	}
	q.offset = n
	return nil
}

// rootFields resolves column names of the root model.
func (q *Query) rootFields(mode query_errors.FieldMode, names ...string) ([]*models.Field, error) {
	var fields = make([]*models.Field, 0, len(names))
	for _, name := range names {
		var f, ok = q.meta.Field(name)
		if !ok {
			return nil, &query_errors.FieldError{
				Mode:  mode,
				Model: q.meta.String(),
				Path:  name,
				Err:   query_errors.ErrColumnNotFound,
			}
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func (q *Query) valuesList(names ...string) error {
	var fields, err = q.rootFields(query_errors.ModeFilter, names...)
	if err != nil {
		return err
	}
	q.values = fields
	return nil
}

func (q *Query) returning(returnModel bool, names ...string) error {
	if returnModel && len(names) > 0 {
		return query_errors.ErrConflictingReturning
	}
	var fields, err = q.rootFields(query_errors.ModeFilter, names...)
	if err != nil {
		return err
	}
	q.retCols = fields
	q.retModel = returnModel
	return nil
}

func (q *Query) hasReturning() bool {
	return q.retModel || len(q.retCols) > 0
}
