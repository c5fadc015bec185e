package models

import (
	"fmt"
	"reflect"
	"strings"
)

type RelationType string

const (
	RelManyToOne RelationType = "many_to_one"
	RelOneToMany RelationType = "one_to_many"
)

type Relation struct {
	Name  string
	Attr  string
	Type  RelationType
	Index []int

	// LocalColumn is the column of the owning model taking part in the join.
	LocalColumn string

	// RemoteColumn is the column of the target model taking part in the join.
	RemoteColumn string

	owner  *Meta
	target *Meta
}

// Owner returns the model declaring the relationship.
func (r *Relation) Owner() *Meta {
	return r.owner
}

// Target returns the related model.
func (r *Relation) Target() *Meta {
	return r.target
}

// Many reports whether the relationship holds a collection.
func (r *Relation) Many() bool {
	return r.Type == RelOneToMany
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s.%s", r.owner, r.Name)
}

// parseRelationTag parses `name,fk=column,to=column` or
// `name,reverse=column,to=column`.
func parseRelationTag(tag string) (name string, options map[string]string) {
	var parts = strings.Split(tag, ",")
	options = make(map[string]string, len(parts))
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		var key, value, _ = strings.Cut(strings.TrimSpace(opt), "=")
		options[key] = value
	}
	return name, options
}

func (r *metaRegistry) relation(owner *Meta, sf reflect.StructField, tag string, added *[]reflect.Type) (*Relation, error) {
	var name, options = parseRelationTag(tag)
	if name == "" {
		name = toSnakeCase(sf.Name)
	}

	var rel = &Relation{
		Name:  name,
		Attr:  sf.Name,
		Index: sf.Index,
		owner: owner,
	}

	var fk, isFK = options["fk"]
	var reverse, isReverse = options["reverse"]
	var targetType reflect.Type
	switch {
	case isFK && !isReverse:
		if sf.Type.Kind() != reflect.Pointer || sf.Type.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf(
				"%s.%s: many-to-one relationship must be a pointer to a struct, got %s",
				owner, sf.Name, sf.Type,
			)
		}
		rel.Type = RelManyToOne
		rel.LocalColumn = fk
		targetType = sf.Type.Elem()
	case isReverse && !isFK:
		if sf.Type.Kind() != reflect.Slice ||
			sf.Type.Elem().Kind() != reflect.Pointer ||
			sf.Type.Elem().Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf(
				"%s.%s: one-to-many relationship must be a slice of struct pointers, got %s",
				owner, sf.Name, sf.Type,
			)
		}
		rel.Type = RelOneToMany
		rel.RemoteColumn = reverse
		targetType = sf.Type.Elem().Elem()
	default:
		return nil, fmt.Errorf(
			"%s.%s: relationship needs exactly one of the fk or reverse options",
			owner, sf.Name,
		)
	}

	var target, err = r.inspect(targetType, added)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", owner, sf.Name, err)
	}
	rel.target = target

	var to = options["to"]
	switch rel.Type {
	case RelManyToOne:
		if to == "" {
			to = target.primary.Name
		}
		rel.RemoteColumn = to
	case RelOneToMany:
		if to == "" {
			to = owner.primary.Name
		}
		rel.LocalColumn = to
	}

	if _, ok := owner.fieldMap[rel.LocalColumn]; !ok {
		return nil, fmt.Errorf("%s.%s: column %q does not exist on %s", owner, sf.Name, rel.LocalColumn, owner)
	}
	if _, ok := target.fieldMap[rel.RemoteColumn]; !ok {
		return nil, fmt.Errorf("%s.%s: column %q does not exist on %s", owner, sf.Name, rel.RemoteColumn, target)
	}

	return rel, nil
}
