package queries

import (
	"fmt"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/elliotchance/orderedmap/v2"
)

type objectRelation struct {
	relation *models.Relation
	objects  *orderedmap.OrderedMap[any, *object]
}

type object struct {
	// the normalized primary key of the object
	pk any

	// the join key the object was loaded through, empty for root objects
	key string

	// pointer to the model
	value reflect.Value

	// the direct relations of the object, by relation name
	relations *orderedmap.OrderedMap[string, *objectRelation]
}

func newObject(pk any, key string, value reflect.Value) *object {
	return &object{
		pk:        pk,
		key:       key,
		value:     value,
		relations: orderedmap.NewOrderedMap[string, *objectRelation](),
	}
}

// rows collects root objects from joined rows.
//
// Every root object is kept once, in the order it first appeared.
// Related objects are kept once per parent.
type rows struct {
	objects *orderedmap.OrderedMap[any, *object]
}

func newRows() *rows {
	return &rows{objects: orderedmap.NewOrderedMap[any, *object]()}
}

// chainPart is one object of a row, on the path from the root to a joined model.
type chainPart struct {
	// nil for the root
	relation *models.Relation

	key   string
	pk    any
	value reflect.Value
}

// addObject merges a chain into the collected objects.
//
// A part without primary key marks the relation as loaded
// without adding an object to it, it must be the last part.
func (r *rows) addObject(chain []chainPart) {
	var root = chain[0]
	var current, ok = r.objects.Get(root.pk)
	if !ok {
		current = newObject(root.pk, root.key, root.value)
		r.objects.Set(root.pk, current)
	}

	for idx := 1; idx < len(chain); idx++ {
		var part = chain[idx]
		var next, ok = current.relations.Get(part.relation.Name)
		if !ok {
			next = &objectRelation{
				relation: part.relation,
				objects:  orderedmap.NewOrderedMap[any, *object](),
			}
			current.relations.Set(part.relation.Name, next)
		}

		if part.pk == nil {
			if idx != len(chain)-1 {
				panic(fmt.Sprintf("empty relation %s must end the chain", part.relation))
			}
			return
		}

		child, ok := next.objects.Get(part.pk)
		if !ok {
			child = newObject(part.pk, part.key, part.value)
			next.objects.Set(part.pk, child)
		}
		current = child
	}
}

// compile assigns the collected relations to their parents.
//
// It returns the root objects and every related object by the
// join key it was loaded through.
func (r *rows) compile() ([]reflect.Value, map[string][]reflect.Value, error) {
	var byKey = make(map[string][]reflect.Value)
	var addRelations func(*object) error
	addRelations = func(obj *object) error {
		for el := obj.relations.Front(); el != nil; el = el.Next() {
			var rel = el.Value
			var related = make([]reflect.Value, 0, rel.objects.Len())
			for head := rel.objects.Front(); head != nil; head = head.Next() {
				if err := addRelations(head.Value); err != nil {
					return err
				}
				related = append(related, head.Value.value)
				byKey[head.Value.key] = append(byKey[head.Value.key], head.Value.value)
			}

			switch rel.relation.Type {
			case models.RelManyToOne:
				var relatedObject, err = singleRelated(rel.relation, related)
				if err != nil {
					return err
				}
				rel.relation.SetOne(obj.value, relatedObject)
			case models.RelOneToMany:
				rel.relation.SetMany(obj.value, related)
			}
		}
		return nil
	}

	var roots = make([]reflect.Value, 0, r.objects.Len())
	for head := r.objects.Front(); head != nil; head = head.Next() {
		if err := addRelations(head.Value); err != nil {
			return nil, nil, err
		}
		roots = append(roots, head.Value.value)
	}
	return roots, byKey, nil
}

// singleRelated returns the object of a many-to-one relation, the
// zero value when there is none.
func singleRelated(rel *models.Relation, related []reflect.Value) (reflect.Value, error) {
	switch len(related) {
	case 0:
		return reflect.Value{}, nil
	case 1:
		return related[0], nil
	}
	return reflect.Value{}, fmt.Errorf(
		"%s matched %d rows on %q: %w",
		rel, len(related), rel.RemoteColumn, query_errors.ErrMultipleObjectsReturned,
	)
}
