package queries

import (
	"context"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/elliotchance/orderedmap/v2"
)

// prefetch loads a relationship of parents with a separate query
// filtered on the join column values of the parents.
//
// Relationships below it which were also requested are loaded by
// that query in turn.
func (s *Session) prefetch(ctx context.Context, fetch *dependentFetch, parents []reflect.Value) error {
	if len(parents) == 0 {
		return nil
	}

	var (
		rel    = fetch.relation
		target = rel.Target()
		keys   = orderedmap.NewOrderedMap[any, struct{}]()
	)

	for _, parent := range parents {
		var key = models.KeyOf(rel.LocalValue(parent))
		if key == nil {
			continue
		}
		keys.Set(key, struct{}{})
	}

	var groups = make(map[any][]reflect.Value)
	if keys.Len() > 0 {
		var values = keys.Keys()

		var q = newQuery(target, s.dialect)
		if err := q.filter(rel.RemoteColumn+PathSeparator+"in", values); err != nil {
			return err
		}
		if err := q.orderBy(target.Primary().Name); err != nil {
			return err
		}
		if err := q.eagerLoad(fetch.subpaths...); err != nil {
			return err
		}

		var related, err = s.selectObjects(ctx, q)
		if err != nil {
			return err
		}

		for _, obj := range related {
			var key = models.KeyOf(rel.RemoteValue(obj))
			groups[key] = append(groups[key], obj)
		}
	}

	for _, parent := range parents {
		var group = groups[models.KeyOf(rel.LocalValue(parent))]
		switch rel.Type {
		case models.RelManyToOne:
			var relatedObject, err = singleRelated(rel, group)
			if err != nil {
				return err
			}
			rel.SetOne(parent, relatedObject)
		case models.RelOneToMany:
			rel.SetMany(parent, group)
		}
	}
	return nil
}
