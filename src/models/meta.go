/*
Package models inspects plain Go structs and exposes them as database
entities. Columns are read from `db` struct tags, the primary key carries
the `pk` option:

	type User struct {
		ID        int64  `db:"id,pk"`
		FirstName string `db:"first_name"`
		TypeID    int64  `db:"type_id"`
		Type      *UserType   `db:"-" rel:"type,fk=type_id"`
		Documents []*Document `db:"-" rel:"documents,reverse=user_id"`
	}

Relationships are declared with the `rel` tag. A pointer field with the
`fk` option is a many-to-one relationship through a column of the struct
itself, a slice field with the `reverse` option is a one-to-many
relationship through a column of the target.
*/
package models

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/jmoiron/sqlx/reflectx"
)

const (
	TagColumn   = "db"
	TagRelation = "rel"
)

// TableNamer can be implemented by a model to override the table name.
type TableNamer interface {
	TableName() string
}

type Field struct {
	// Name is the column name, it is used in field paths.
	Name string

	// Attr is the name of the struct field.
	Attr string

	Primary bool
	Unique  bool
	Index   []int
	Type    reflect.Type
	Tag     reflect.StructTag
}

type Meta struct {
	Type  reflect.Type
	Table string

	primary   *Field
	fields    []*Field
	fieldMap  map[string]*Field
	relations []*Relation
	relMap    map[string]*Relation
}

type metaRegistry struct {
	mu     sync.RWMutex
	mapper *reflectx.Mapper
	metas  map[reflect.Type]*Meta
}

var registry = &metaRegistry{
	mapper: reflectx.NewMapperFunc(TagColumn, toSnakeCase),
	metas:  make(map[reflect.Type]*Meta),
}

// For returns the metadata of the model type T.
func For[T any]() (*Meta, error) {
	return MetaOf(reflect.TypeOf((*T)(nil)).Elem())
}

// Of returns the metadata of the model of obj.
func Of(obj any) (*Meta, error) {
	if obj == nil {
		return nil, query_errors.ErrInvalidModel
	}
	return MetaOf(reflect.TypeOf(obj))
}

// MetaOf returns the metadata of the struct type t, inspecting
// it (and every model it is related to) on first use.
func MetaOf(t reflect.Type) (*Meta, error) {
	t = reflectx.Deref(t)

	registry.mu.RLock()
	var meta, ok = registry.metas[t]
	registry.mu.RUnlock()
	if ok {
		return meta, nil
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	var added = make([]reflect.Type, 0, 1)
	meta, err := registry.inspect(t, &added)
	if err != nil {
		for _, typ := range added {
			delete(registry.metas, typ)
		}
		return nil, err
	}
	return meta, nil
}

// inspect must be called with the registry lock held.
func (r *metaRegistry) inspect(t reflect.Type, added *[]reflect.Type) (*Meta, error) {
	if meta, ok := r.metas[t]; ok {
		return meta, nil
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s: %w", t, query_errors.ErrInvalidModel)
	}

	var meta = &Meta{
		Type:     t,
		Table:    tableName(t),
		fieldMap: make(map[string]*Field),
		relMap:   make(map[string]*Relation),
	}

	var structMap = r.mapper.TypeMap(t)
	for _, fi := range structMap.Index {
		if fi.Embedded || fi.Name == "" || strings.Contains(fi.Path, ".") {
			continue
		}
		if _, ok := fi.Field.Tag.Lookup(TagRelation); ok {
			continue
		}
		if _, exists := meta.fieldMap[fi.Name]; exists {
			continue
		}

		var _, isPrimary = fi.Options["pk"]
		var _, isUnique = fi.Options["unique"]
		var field = &Field{
			Name:    fi.Name,
			Attr:    fi.Field.Name,
			Primary: isPrimary,
			Unique:  isUnique || isPrimary,
			Index:   fi.Index,
			Type:    fi.Field.Type,
			Tag:     fi.Field.Tag,
		}

		if field.Primary {
			if meta.primary != nil {
				return nil, fmt.Errorf(
					"%s has primary keys %q and %q: %w",
					t.Name(), meta.primary.Name, field.Name,
					query_errors.ErrCompositePrimaryKey,
				)
			}
			meta.primary = field
		}

		meta.fields = append(meta.fields, field)
		meta.fieldMap[field.Name] = field
	}

	if meta.primary == nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), query_errors.ErrNoPrimaryKey)
	}

	// register before resolving relations, models may refer to each other
	r.metas[t] = meta
	*added = append(*added, t)

	for _, sf := range reflect.VisibleFields(t) {
		var tag, ok = sf.Tag.Lookup(TagRelation)
		if !ok || !sf.IsExported() {
			continue
		}

		var rel, err = r.relation(meta, sf, tag, added)
		if err != nil {
			return nil, err
		}

		if _, exists := meta.fieldMap[rel.Name]; exists {
			return nil, fmt.Errorf(
				"%s: relationship %q clashes with a column of the same name",
				t.Name(), rel.Name,
			)
		}

		meta.relations = append(meta.relations, rel)
		meta.relMap[rel.Name] = rel
	}

	return meta, nil
}

func (m *Meta) String() string {
	return m.Type.Name()
}

// Primary returns the primary key field.
func (m *Meta) Primary() *Field {
	return m.primary
}

// Field returns the column field with the given name.
func (m *Meta) Field(name string) (*Field, bool) {
	var f, ok = m.fieldMap[name]
	return f, ok
}

// Relation returns the relationship with the given name.
func (m *Meta) Relation(name string) (*Relation, bool) {
	var r, ok = m.relMap[name]
	return r, ok
}

// MustRelation is like Relation but returns a typed error.
func (m *Meta) MustRelation(name string) (*Relation, error) {
	if r, ok := m.relMap[name]; ok {
		return r, nil
	}
	return nil, &query_errors.RelationshipNotFoundError{Model: m.String(), Name: name}
}

// Fields returns the column fields in declaration order.
func (m *Meta) Fields() []*Field {
	return m.fields
}

// Relations returns the relationships in declaration order.
func (m *Meta) Relations() []*Relation {
	return m.relations
}

// Columns returns the column names in declaration order.
func (m *Meta) Columns() []string {
	var cols = make([]string, len(m.fields))
	for i, f := range m.fields {
		cols[i] = f.Name
	}
	return cols
}

// IsUnique reports whether the column is the primary key or declared unique.
func (m *Meta) IsUnique(name string) bool {
	var f, ok = m.fieldMap[name]
	return ok && f.Unique
}

func tableName(t reflect.Type) string {
	if reflect.PointerTo(t).Implements(reflect.TypeOf((*TableNamer)(nil)).Elem()) {
		var namer = reflect.New(t).Interface().(TableNamer)
		if name := namer.TableName(); name != "" {
			return name
		}
	}
	return toSnakeCase(t.Name()) + "s"
}
