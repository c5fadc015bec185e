package queries

import (
	"fmt"
	"strings"

	"github.com/Nigel2392/go-django-repositories/src/expr"
	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

const (
	PathSeparator = "__"
	DefaultLookup = "exact"
)

// resolvedPath is the outcome of resolving a field path against a model.
type resolvedPath struct {
	// the original path, as passed by the caller
	path string

	// the relationships to traverse, in order
	relations []*models.Relation

	// the model the last relationship points to,
	// or the root model if there are no relationships
	meta *models.Meta

	// the column at the end of the path, nil for option and join paths
	field *models.Field

	// the lookup to apply, only set for filter paths
	lookup string
}

// joinKey returns the join tree key of the relationships in the path.
func (p *resolvedPath) joinKey() string {
	return relationKey(p.relations)
}

func relationKey(relations []*models.Relation) string {
	var names = make([]string, len(relations))
	for i, rel := range relations {
		names[i] = rel.Name
	}
	return strings.Join(names, ".")
}

// resolvePath walks a "__" separated path from the root model.
//
// Each segment is classified against the model reached so far:
// a relationship moves to its target, a column ends the walk and a
// registered lookup is only accepted as the last segment of a filter.
// When the last two segments are equal and name a lookup the last one
// is used as that lookup, so "year__year" filters the year column by year.
func resolvePath(root *models.Meta, path string, mode query_errors.FieldMode) (*resolvedPath, error) {
	var newErr = func(segment string, err error) error {
		return &query_errors.FieldError{
			Mode:    mode,
			Model:   root.String(),
			Path:    path,
			Segment: segment,
			Err:     err,
		}
	}

	if path == "" {
		return nil, newErr("", nil)
	}

	var (
		segments = strings.Split(path, PathSeparator)
		resolved = &resolvedPath{path: path, meta: root}
		current  = root
	)

	for i, segment := range segments {
		var last = i == len(segments)-1
		if segment == "" {
			return nil, newErr(segment, nil)
		}

		if rel, ok := current.Relation(segment); ok {
			if resolved.field != nil {
				return nil, newErr(segment, query_errors.ErrAmbiguousPath)
			}
			resolved.relations = append(resolved.relations, rel)
			current = rel.Target()
			resolved.meta = current
			continue
		}

		if field, ok := current.Field(segment); ok {
			if last && resolved.field != nil && resolved.field.Name == segment && mode == query_errors.ModeFilter && expr.IsLookup(segment) {
				resolved.lookup = segment
				break
			}

			if resolved.field != nil {
				return nil, newErr(segment, query_errors.ErrAmbiguousPath)
			}

			if mode == query_errors.ModeOption || mode == query_errors.ModeJoin {
				return nil, newErr(segment, &query_errors.RelationshipNotFoundError{
					Model: current.String(),
					Name:  segment,
				})
			}

			resolved.field = field
			continue
		}

		if last && mode == query_errors.ModeFilter && resolved.field != nil && expr.IsLookup(segment) {
			resolved.lookup = segment
			break
		}

		if last && mode == query_errors.ModeFilter && resolved.field == nil && expr.IsLookup(segment) {
			// a lookup directly on a relationship, e.g. "status__isnull"
			return nil, &query_errors.ColumnNotFoundError{Model: current.String(), Path: path}
		}

		switch {
		case mode == query_errors.ModeOption || mode == query_errors.ModeJoin:
			return nil, newErr(segment, &query_errors.RelationshipNotFoundError{
				Model: current.String(),
				Name:  segment,
			})
		case last && mode == query_errors.ModeFilter && resolved.field != nil:
			return nil, newErr(segment, fmt.Errorf(
				"%q is not one of %s: %w",
				segment, strings.Join(expr.Lookups(), ", "), query_errors.ErrLookupNotFound,
			))
		}
		return nil, newErr(segment, nil)
	}

	switch mode {
	case query_errors.ModeOption, query_errors.ModeJoin:
		if len(resolved.relations) == 0 {
			return nil, newErr(path, nil)
		}
	default:
		if resolved.field == nil {
			return nil, &query_errors.ColumnNotFoundError{Model: current.String(), Path: path}
		}
		if mode == query_errors.ModeFilter && resolved.lookup == "" {
			resolved.lookup = DefaultLookup
		}
	}

	return resolved, nil
}
