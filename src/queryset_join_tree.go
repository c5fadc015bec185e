package queries

import (
	"fmt"
	"iter"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/elliotchance/orderedmap/v2"
)

// joinNode is a single joined relationship.
//
// Nodes are stored in the arena of their tree and refer to each
// other by index, so a tree can be copied without walking it.
type joinNode struct {
	// key is the dotted relationship path, "subsections.status"
	key string

	// index of the parent node in the arena, -1 for nodes under the root
	parent int

	relation *models.Relation
	alias    string
	outer    bool

	// child relationship name to arena index
	children *orderedmap.OrderedMap[string, int]
}

func (n *joinNode) meta() *models.Meta {
	return n.relation.Target()
}

// joinTree holds one node per distinct relationship path of a query.
type joinTree struct {
	root      *models.Meta
	rootAlias string
	nodes     []*joinNode
	byKey     map[string]int
	top       *orderedmap.OrderedMap[string, int]
	seq       int
}

func newJoinTree(root *models.Meta) *joinTree {
	return &joinTree{
		root:      root,
		rootAlias: root.Table,
		byKey:     make(map[string]int),
		top:       orderedmap.NewOrderedMap[string, int](),
	}
}

// ensurePath makes sure a node exists for every prefix of the
// relationship chain and returns the deepest one.
//
// Calling it again with the same chain returns the same node.
func (t *joinTree) ensurePath(relations []*models.Relation) (*joinNode, error) {
	if len(relations) == 0 {
		return nil, nil
	}

	var (
		parent   = -1
		children = t.top
		node     *joinNode
	)
	for i, rel := range relations {
		if i > 0 && relations[i-1].Target() != rel.Owner() {
			return nil, fmt.Errorf("relationship %s does not follow %s", rel, relations[i-1])
		}

		var idx, ok = children.Get(rel.Name)
		if !ok {
			t.seq++
			idx = len(t.nodes)
			t.nodes = append(t.nodes, &joinNode{
				key:      relationKey(relations[:i+1]),
				parent:   parent,
				relation: rel,
				alias:    fmt.Sprintf("%s_%d", rel.Target().Table, t.seq),
				children: orderedmap.NewOrderedMap[string, int](),
			})
			t.byKey[t.nodes[idx].key] = idx
			children.Set(rel.Name, idx)
		}

		node = t.nodes[idx]
		parent = idx
		children = node.children
	}
	return node, nil
}

// markOuter sets the join type of the deepest node of the chain,
// creating the chain when needed. Ancestors keep their join type.
func (t *joinTree) markOuter(relations []*models.Relation, outer bool) error {
	var node, err = t.ensurePath(relations)
	if err != nil {
		return err
	}
	if node != nil {
		node.outer = outer
	}
	return nil
}

// node returns the node for a dotted relationship path.
func (t *joinTree) node(key string) (*joinNode, bool) {
	var idx, ok = t.byKey[key]
	if !ok {
		return nil, false
	}
	return t.nodes[idx], true
}

// parentAlias returns the alias of the parent of a node.
func (t *joinTree) parentAlias(n *joinNode) string {
	if n.parent < 0 {
		return t.rootAlias
	}
	return t.nodes[n.parent].alias
}

// walk yields every node with the alias of its parent, depth first,
// parents before children and siblings in insertion order.
func (t *joinTree) walk() iter.Seq2[string, *joinNode] {
	return func(yield func(string, *joinNode) bool) {
		var visit func(children *orderedmap.OrderedMap[string, int]) bool
		visit = func(children *orderedmap.OrderedMap[string, int]) bool {
			for el := children.Front(); el != nil; el = el.Next() {
				var node = t.nodes[el.Value]
				if !yield(t.parentAlias(node), node) {
					return false
				}
				if !visit(node.children) {
					return false
				}
			}
			return true
		}
		visit(t.top)
	}
}

// len returns the number of joined relationships.
func (t *joinTree) len() int {
	return len(t.nodes)
}

// hasMany reports whether any joined relationship can multiply root rows.
func (t *joinTree) hasMany() bool {
	for _, n := range t.nodes {
		if n.relation.Many() {
			return true
		}
	}
	return false
}

func (t *joinTree) clone() *joinTree {
	var c = &joinTree{
		root:      t.root,
		rootAlias: t.rootAlias,
		nodes:     make([]*joinNode, len(t.nodes)),
		byKey:     make(map[string]int, len(t.byKey)),
		top:       t.top.Copy(),
		seq:       t.seq,
	}
	for i, n := range t.nodes {
		var cp = *n
		cp.children = n.children.Copy()
		c.nodes[i] = &cp
	}
	for k, v := range t.byKey {
		c.byKey[k] = v
	}
	return c
}
