package queries

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Nigel2392/go-django-repositories/src/drivers"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

// statement is a compiled SQL statement with its arguments,
// rebound for the driver it will be executed on.
type statement struct {
	sql  string
	args []any
}

func (s *statement) String() string {
	return s.sql
}

// selectLayout describes the column layout of the rows of a select statement.
type selectLayout struct {
	// root model columns, always first
	root []*models.Field

	// projected relationships, columns follow the root columns in this order
	projected []*joinNode

	// relationships loaded by dependent queries
	fetches []*dependentFetch
}

func (l *selectLayout) width() int {
	var n = len(l.root)
	for _, node := range l.projected {
		n += len(node.meta().Fields())
	}
	return n
}

func (q *Query) writeColumns(sb *strings.Builder, alias string, fields []*models.Field) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(q.dialect.Column(alias, f.Name))
	}
}

func (q *Query) writeJoins(sb *strings.Builder) {
	for parentAlias, node := range q.joins.walk() {
		if node.outer {
			sb.WriteString(" LEFT OUTER JOIN ")
		} else {
			sb.WriteString(" INNER JOIN ")
		}
		sb.WriteString(q.dialect.Quote(node.meta().Table))
		sb.WriteString(" AS ")
		sb.WriteString(q.dialect.Quote(node.alias))
		sb.WriteString(" ON ")
		sb.WriteString(q.dialect.Column(node.alias, node.relation.RemoteColumn))
		sb.WriteString(" = ")
		sb.WriteString(q.dialect.Column(parentAlias, node.relation.LocalColumn))
	}
}

func (q *Query) writeWhere(sb *strings.Builder, args []any) []any {
	if q.where.Len() == 0 {
		return args
	}
	sb.WriteString(" WHERE ")
	var i = 0
	for el := q.where.Front(); el != nil; el = el.Next() {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(el.Value.sql)
		args = append(args, el.Value.args...)
		i++
	}
	return args
}

// writeOrder writes the ORDER BY clause. When the root rows are
// grouped, terms on joined models order by the smallest value of
// the group, or the largest one for descending terms.
func (q *Query) writeOrder(sb *strings.Builder, grouped bool) {
	if q.order.Len() == 0 {
		return
	}
	sb.WriteString(" ORDER BY ")
	var i = 0
	for el := q.order.Front(); el != nil; el = el.Next() {
		if i > 0 {
			sb.WriteString(", ")
		}
		var term = el.Value
		var column = q.dialect.Column(term.alias, term.field.Name)
		switch {
		case grouped && term.alias != q.joins.rootAlias && term.desc:
			fmt.Fprintf(sb, "MAX(%s)", column)
		case grouped && term.alias != q.joins.rootAlias:
			fmt.Fprintf(sb, "MIN(%s)", column)
		default:
			sb.WriteString(column)
		}
		if term.desc {
			sb.WriteString(" DESC")
		} else {
			sb.WriteString(" ASC")
		}
		i++
	}
}

func (q *Query) writeLimit(sb *strings.Builder, args []any) []any {
	switch {
	case q.limit > 0:
		sb.WriteString(" LIMIT ?")
		args = append(args, q.limit)
	case q.offset > 0 && q.dialect.LimitAll != "":
		sb.WriteString(" LIMIT ")
		sb.WriteString(q.dialect.LimitAll)
	}
	if q.offset > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, q.offset)
	}
	return args
}

func (q *Query) writeHints(sb *strings.Builder) {
	if q.hints.ForUpdate && q.dialect.RowLocking {
		sb.WriteString(" FOR UPDATE")
	}
}

// orderedByJoin reports whether any ordering term is on a joined model.
func (q *Query) orderedByJoin() bool {
	for el := q.order.Front(); el != nil; el = el.Next() {
		if el.Value.alias != q.joins.rootAlias {
			return true
		}
	}
	return false
}

// writeRootSelect writes a select of the root columns which lists
// every root model once, even when a one-to-many join repeats it.
//
// DISTINCT is used unless the rows are ordered by a joined model,
// then the root columns are grouped so the ordering can aggregate.
func (q *Query) writeRootSelect(sb *strings.Builder, fields []*models.Field, args []any) []any {
	var grouped = q.orderedByJoin()
	if grouped {
		sb.WriteString("SELECT ")
	} else {
		sb.WriteString("SELECT DISTINCT ")
	}
	q.writeColumns(sb, q.joins.rootAlias, fields)
	sb.WriteString(" FROM ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	q.writeJoins(sb)
	args = q.writeWhere(sb, args)
	if grouped {
		sb.WriteString(" GROUP BY ")
		q.writeColumns(sb, q.joins.rootAlias, fields)
	}
	q.writeOrder(sb, grouped)
	return q.writeLimit(sb, args)
}

func (q *Query) finish(sb *strings.Builder, args []any) *statement {
	return &statement{sql: q.dialect.Rebind(sb.String()), args: args}
}

// buildSelect compiles the statement loading the root models
// and the relationships projected from its joins.
//
// Without joined eager loads a single statement is used which lists
// every root model once.
// With joined eager loads the rows are deduplicated while mapping,
// but a limit or offset would then count joined rows instead of root
// models. In that case the root rows are paginated in a subquery which
// takes the place of the root table, the outer statement joins the
// eager loaded relationships to it.
func (q *Query) buildSelect() (*statement, *selectLayout, error) {
	var plan = planEagerLoads(q.options, q.joins)
	var layout = &selectLayout{
		root:      q.meta.Fields(),
		projected: plan.projected,
		fetches:   plan.fetches,
	}

	var (
		paginated = q.limit > 0 || q.offset > 0
		fanOut    = q.joins.hasMany()
		sb        strings.Builder
		args      []any
	)

	if fanOut && len(plan.projected) == 0 {
		args = q.writeRootSelect(&sb, layout.root, args)
		q.writeHints(&sb)
		return q.finish(&sb, args), layout, nil
	}

	sb.WriteString("SELECT ")
	q.writeColumns(&sb, q.joins.rootAlias, layout.root)
	for _, node := range plan.projected {
		sb.WriteString(", ")
		q.writeColumns(&sb, node.alias, node.meta().Fields())
	}
	sb.WriteString(" FROM ")

	if fanOut && paginated {
		sb.WriteString("(")
		args = q.writeRootSelect(&sb, layout.root, args)
		sb.WriteString(") AS ")
		sb.WriteString(q.dialect.Quote(q.joins.rootAlias))
	} else {
		sb.WriteString(q.dialect.Quote(q.meta.Table))
	}

	q.writeJoins(&sb)
	args = q.writeWhere(&sb, args)
	q.writeOrder(&sb, false)
	if !fanOut {
		args = q.writeLimit(&sb, args)
	}
	q.writeHints(&sb)
	return q.finish(&sb, args), layout, nil
}

// buildValues compiles a select of plain root columns.
func (q *Query) buildValues() (*statement, error) {
	if len(q.values) == 0 {
		return nil, fmt.Errorf("no columns selected for values list: %w", query_errors.ErrColumnNotFound)
	}
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT ")
	q.writeColumns(&sb, q.joins.rootAlias, q.values)
	sb.WriteString(" FROM ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	q.writeJoins(&sb)
	args = q.writeWhere(&sb, args)
	q.writeOrder(&sb, false)
	args = q.writeLimit(&sb, args)
	q.writeHints(&sb)
	return q.finish(&sb, args), nil
}

// buildCount compiles a count of the distinct root models matching the filters.
// Ordering, limit and offset are ignored.
func (q *Query) buildCount() (*statement, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT COUNT(DISTINCT ")
	sb.WriteString(q.dialect.Column(q.joins.rootAlias, q.meta.Primary().Name))
	sb.WriteString(") FROM ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	q.writeJoins(&sb)
	args = q.writeWhere(&sb, args)
	return q.finish(&sb, args), nil
}

// writeCandidates writes the subquery selecting the primary keys
// of the root models matching the filters.
func (q *Query) writeCandidates(sb *strings.Builder, args []any) []any {
	var pk = q.meta.Primary().Name
	if q.dialect.MaterializeSubqueries {
		sb.WriteString("SELECT ")
		sb.WriteString(q.dialect.Quote(pk))
		sb.WriteString(" FROM (")
	}
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(q.dialect.Column(q.joins.rootAlias, pk))
	sb.WriteString(" FROM ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	q.writeJoins(sb)
	args = q.writeWhere(sb, args)
	if q.dialect.MaterializeSubqueries {
		sb.WriteString(") AS ")
		sb.WriteString(q.dialect.Quote("candidates"))
	}
	return args
}

// returningFields returns the columns to return from a write, or nil.
func (q *Query) returningFields() ([]*models.Field, error) {
	if !q.hasReturning() {
		return nil, nil
	}
	if q.dialect.SupportsReturning != drivers.SupportsReturningColumns {
		return nil, fmt.Errorf("%s: %w", q.dialect.Name, query_errors.ErrReturningDriver)
	}
	if q.retModel {
		return q.meta.Fields(), nil
	}
	return q.retCols, nil
}

func (q *Query) writeReturning(sb *strings.Builder, fields []*models.Field) {
	if len(fields) == 0 {
		return
	}
	sb.WriteString(" RETURNING ")
	q.writeColumns(sb, "", fields)
}

// buildUpdate compiles an update of every root model matching the filters.
func (q *Query) buildUpdate(values map[string]any) (*statement, []*models.Field, error) {
	if len(values) == 0 {
		return nil, nil, query_errors.ErrNoChanges
	}

	var keys = slices.Sorted(maps.Keys(values))
	var fields, err = q.rootFields(query_errors.ModeFilter, keys...)
	if err != nil {
		return nil, nil, err
	}

	returning, err := q.returningFields()
	if err != nil {
		return nil, nil, err
	}

	var sb strings.Builder
	var args = make([]any, 0, len(values))
	sb.WriteString("UPDATE ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	sb.WriteString(" SET ")
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(q.dialect.Quote(f.Name))
		sb.WriteString(" = ?")
		args = append(args, values[f.Name])
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(q.dialect.Quote(q.meta.Primary().Name))
	sb.WriteString(" IN (")
	args = q.writeCandidates(&sb, args)
	sb.WriteString(")")
	q.writeReturning(&sb, returning)
	return q.finish(&sb, args), returning, nil
}

// buildDelete compiles a delete of every root model matching the filters.
func (q *Query) buildDelete() (*statement, []*models.Field, error) {
	var returning, err = q.returningFields()
	if err != nil {
		return nil, nil, err
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("DELETE FROM ")
	sb.WriteString(q.dialect.Quote(q.meta.Table))
	sb.WriteString(" WHERE ")
	sb.WriteString(q.dialect.Quote(q.meta.Primary().Name))
	sb.WriteString(" IN (")
	args = q.writeCandidates(&sb, args)
	sb.WriteString(")")
	q.writeReturning(&sb, returning)
	return q.finish(&sb, args), returning, nil
}

// buildInsert compiles a multi row insert. Every row must
// hold a value for every column.
func buildInsert(d *drivers.Dialect, meta *models.Meta, columns []*models.Field, rows [][]any) *statement {
	var sb strings.Builder
	var args = make([]any, 0, len(columns)*len(rows))
	sb.WriteString("INSERT INTO ")
	sb.WriteString(d.Quote(meta.Table))
	sb.WriteString(" (")
	for i, f := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.Quote(f.Name))
	}
	sb.WriteString(") VALUES ")
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		sb.WriteString(drivers.Placeholders(len(row)))
		sb.WriteString(")")
		args = append(args, row...)
	}
	if d.SupportsReturning == drivers.SupportsReturningColumns {
		sb.WriteString(" RETURNING ")
		for i, f := range meta.Fields() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Quote(f.Name))
		}
	}
	return &statement{sql: d.Rebind(sb.String()), args: args}
}
