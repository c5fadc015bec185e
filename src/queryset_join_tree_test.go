package queries

import (
	"slices"
	"testing"

	"github.com/Nigel2392/go-django-repositories/src/models"
	"github.com/Nigel2392/go-django-repositories/src/query_errors"
)

func relationsOf(t *testing.T, meta *models.Meta, path string) []*models.Relation {
	t.Helper()
	var p, err = resolvePath(meta, path, query_errors.ModeJoin)
	if err != nil {
		t.Fatalf("resolvePath(%q): %v", path, err)
	}
	return p.relations
}

func TestJoinTreeEnsurePath(t *testing.T) {
	var section = mustMeta[Section](t)
	var tree = newJoinTree(section)

	var first, err = tree.ensurePath(relationsOf(t, section, "subsections__status"))
	if err != nil {
		t.Fatalf("ensurePath: %v", err)
	}
	second, err := tree.ensurePath(relationsOf(t, section, "subsections__status"))
	if err != nil {
		t.Fatalf("ensurePath: %v", err)
	}

	if first != second {
		t.Fatalf("expected the same node for the same path")
	}
	if tree.len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", tree.len())
	}
	if first.key != "subsections.status" {
		t.Fatalf("expected key subsections.status, got %s", first.key)
	}
	if first.alias != "statuses_2" {
		t.Fatalf("expected alias statuses_2, got %s", first.alias)
	}

	var sub, ok = tree.node("subsections")
	if !ok {
		t.Fatalf("expected a node for subsections")
	}
	if tree.parentAlias(sub) != "sections" {
		t.Fatalf("expected subsections to be joined to the root, got %s", tree.parentAlias(sub))
	}
	if tree.parentAlias(first) != sub.alias {
		t.Fatalf("expected status to be joined to %s, got %s", sub.alias, tree.parentAlias(first))
	}
}

func TestJoinTreeAliasesDoNotCollide(t *testing.T) {
	var section = mustMeta[Section](t)
	var tree = newJoinTree(section)

	var direct, _ = tree.ensurePath(relationsOf(t, section, "status"))
	var nested, _ = tree.ensurePath(relationsOf(t, section, "subsections__status"))

	if direct.meta() != nested.meta() {
		t.Fatalf("expected both nodes to target statuses")
	}
	if direct.alias == nested.alias {
		t.Fatalf("expected different aliases, both are %s", direct.alias)
	}
}

func TestJoinTreeMarkOuter(t *testing.T) {
	var section = mustMeta[Section](t)
	var tree = newJoinTree(section)

	if err := tree.markOuter(relationsOf(t, section, "subsections__status"), true); err != nil {
		t.Fatalf("markOuter: %v", err)
	}

	var sub, _ = tree.node("subsections")
	var status, _ = tree.node("subsections.status")
	if sub.outer {
		t.Fatalf("expected the parent node to stay an inner join")
	}
	if !status.outer {
		t.Fatalf("expected the deepest node to be an outer join")
	}
}

func TestJoinTreeWalk(t *testing.T) {
	var section = mustMeta[Section](t)
	var tree = newJoinTree(section)

	tree.ensurePath(relationsOf(t, section, "subsections"))
	tree.ensurePath(relationsOf(t, section, "status"))
	tree.ensurePath(relationsOf(t, section, "subsections__status"))
	tree.ensurePath(relationsOf(t, section, "subsections__section"))

	var walk = func() []string {
		var keys []string
		for _, node := range tree.walk() {
			keys = append(keys, node.key)
		}
		return keys
	}

	var expected = []string{
		"subsections",
		"subsections.status",
		"subsections.section",
		"status",
	}
	if keys := walk(); !slices.Equal(keys, expected) {
		t.Fatalf("expected %v, got %v", expected, keys)
	}

	// the sequence can be walked again
	if keys := walk(); !slices.Equal(keys, expected) {
		t.Fatalf("expected %v on the second walk, got %v", expected, keys)
	}

	var n = 0
	for range tree.walk() {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("expected walk to stop early")
	}
}

func TestJoinTreeClone(t *testing.T) {
	var section = mustMeta[Section](t)
	var tree = newJoinTree(section)
	tree.ensurePath(relationsOf(t, section, "subsections"))

	var clone = tree.clone()
	clone.markOuter(relationsOf(t, section, "subsections"), true)
	clone.ensurePath(relationsOf(t, section, "subsections__status"))

	var sub, _ = tree.node("subsections")
	if sub.outer {
		t.Fatalf("expected the original node to be unchanged")
	}
	if tree.len() != 1 {
		t.Fatalf("expected the original tree to keep 1 node, got %d", tree.len())
	}
	if _, ok := tree.node("subsections.status"); ok {
		t.Fatalf("expected the original tree not to know the cloned node")
	}
	if clone.len() != 2 {
		t.Fatalf("expected the clone to have 2 nodes, got %d", clone.len())
	}
}
