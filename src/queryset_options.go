package queries

import (
	"strings"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/elliotchance/orderedmap/v2"
)

// optionTree keeps the relationships to eager load.
//
// Every prefix of an added chain is stored, parents are always
// inserted before their children.
type optionTree struct {
	paths *orderedmap.OrderedMap[string, []*models.Relation]
}

func newOptionTree() *optionTree {
	return &optionTree{paths: orderedmap.NewOrderedMap[string, []*models.Relation]()}
}

func (o *optionTree) add(relations []*models.Relation) {
	for i := range relations {
		var key = relationKey(relations[:i+1])
		if _, ok := o.paths.Get(key); !ok {
			o.paths.Set(key, relations[:i+1:i+1])
		}
	}
}

func (o *optionTree) len() int {
	return o.paths.Len()
}

func (o *optionTree) clone() *optionTree {
	return &optionTree{paths: o.paths.Copy()}
}

// dependentFetch loads a relationship with a separate query
// after the rows of its parents have been mapped.
type dependentFetch struct {
	// join key of the parent, empty for the root model
	parentKey string

	relation *models.Relation

	// option paths relative to the target model
	subpaths []string
}

func (f *dependentFetch) key() string {
	if f.parentKey == "" {
		return f.relation.Name
	}
	return f.parentKey + "." + f.relation.Name
}

// eagerPlan splits the eager loads of a query into relationships
// projected from the joins of the main statement and relationships
// loaded by dependent queries.
type eagerPlan struct {
	projected []*joinNode
	fetches   []*dependentFetch
}

func (p *eagerPlan) isProjected(key string) bool {
	for _, n := range p.projected {
		if n.key == key {
			return true
		}
	}
	return false
}

func planEagerLoads(options *optionTree, joins *joinTree) *eagerPlan {
	var plan = &eagerPlan{}
	var projectedKeys = make(map[string]struct{})

	// projected nodes are collected in join tree order so the
	// row layout matches the order the joins are written in
	for _, node := range joins.walk() {
		if _, ok := options.paths.Get(node.key); !ok {
			continue
		}
		var parentKey = parentKeyOf(node.key)
		if _, ok := projectedKeys[parentKey]; parentKey != "" && !ok {
			continue
		}
		projectedKeys[node.key] = struct{}{}
		plan.projected = append(plan.projected, node)
	}

	for el := options.paths.Front(); el != nil; el = el.Next() {
		var key = el.Key
		if _, ok := projectedKeys[key]; ok {
			continue
		}

		var relations = el.Value
		var parentKey = parentKeyOf(key)
		if _, ok := projectedKeys[parentKey]; parentKey == "" || ok {
			plan.fetches = append(plan.fetches, &dependentFetch{
				parentKey: parentKey,
				relation:  relations[len(relations)-1],
			})
			continue
		}

		for _, fetch := range plan.fetches {
			var prefix = fetch.key() + "."
			if strings.HasPrefix(key, prefix) {
				var rest = strings.TrimPrefix(key, prefix)
				fetch.subpaths = append(fetch.subpaths, strings.ReplaceAll(rest, ".", PathSeparator))
				break
			}
		}
	}

	return plan
}

func parentKeyOf(key string) string {
	var idx = strings.LastIndexByte(key, '.')
	if idx < 0 {
		return ""
	}
	return key[:idx]
}
