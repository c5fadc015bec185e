package queries

import (
	"database/sql"
	"fmt"

	"github.com/Nigel2392/go-django-repositories/src/models"
)

// rowScanner scans rows of a select statement into chains of objects.
type rowScanner struct {
	meta    *models.Meta
	layout  *selectLayout
	targets []any
}

func newRowScanner(meta *models.Meta, layout *selectLayout) *rowScanner {
	var targets = make([]any, 0, layout.width())
	for _, f := range layout.root {
		targets = append(targets, f.ScanTarget())
	}
	for _, node := range layout.projected {
		for _, f := range node.meta().Fields() {
			targets = append(targets, f.ScanTarget())
		}
	}
	return &rowScanner{meta: meta, layout: layout, targets: targets}
}

// scan reads the current row and returns one chain per object in it,
// the root chain first.
func (s *rowScanner) scan(rows *sql.Rows) ([][]chainPart, error) {
	if err := rows.Scan(s.targets...); err != nil {
		return nil, err
	}

	var rootValue = s.meta.New()
	var pos = 0
	for _, f := range s.layout.root {
		s.meta.SetScanned(rootValue, f, s.targets[pos])
		pos++
	}

	var rootPK = models.KeyOf(s.meta.Primary().Scanned(s.targets[primaryIndex(s.meta)]))
	if rootPK == nil {
		return nil, fmt.Errorf("row of %s has no primary key", s.meta)
	}

	var root = []chainPart{{key: "", pk: rootPK, value: rootValue}}
	var chains = make([][]chainPart, 0, len(s.layout.projected)+1)
	chains = append(chains, root)

	var byKey = make(map[string][]chainPart, len(s.layout.projected))
	for _, node := range s.layout.projected {
		var meta = node.meta()
		var fields = meta.Fields()
		var start = pos
		pos += len(fields)

		var parent = root
		if parentKey := parentKeyOf(node.key); parentKey != "" {
			var ok bool
			if parent, ok = byKey[parentKey]; !ok {
				// the parent was NULL in this row
				continue
			}
		}

		var pk = models.KeyOf(meta.Primary().Scanned(s.targets[start+primaryIndex(meta)]))
		var part = chainPart{relation: node.relation, key: node.key, pk: pk}
		if pk == nil {
			chains = append(chains, appendChain(parent, part))
			continue
		}

		part.value = meta.New()
		for i, f := range fields {
			meta.SetScanned(part.value, f, s.targets[start+i])
		}

		var chain = appendChain(parent, part)
		byKey[node.key] = chain
		chains = append(chains, chain)
	}

	return chains, nil
}

func appendChain(parent []chainPart, part chainPart) []chainPart {
	var chain = make([]chainPart, len(parent), len(parent)+1)
	copy(chain, parent)
	return append(chain, part)
}

func primaryIndex(meta *models.Meta) int {
	for i, f := range meta.Fields() {
		if f.Primary {
			return i
		}
	}
	return -1
}
