package migrator

import (
	"database/sql/driver"
	"reflect"

	"github.com/Nigel2392/go-django-repositories/src/models"
)

const (
	// TagDBType overrides the column type of a field, e.g. `dbtype:"VARCHAR(64)"`.
	TagDBType = "dbtype"
)

var (
	drivers_to_kinds = make(map[reflect.Type]map[reflect.Kind]func(f *models.Field) string)
	drivers_to_types = make(map[reflect.Type]map[reflect.Type]func(f *models.Field) string)
	drivers_to_auto  = make(map[reflect.Type]func(typ string) string)
)

func RegisterColumnKind(driver driver.Driver, typ []reflect.Kind, fn func(f *models.Field) string) {
	t := reflect.TypeOf(driver)
	m, ok := drivers_to_kinds[t]
	if !ok || m == nil {
		m = make(map[reflect.Kind]func(f *models.Field) string)
		drivers_to_kinds[t] = m
	}

	for _, k := range typ {
		m[k] = fn
	}
}

func RegisterColumnType(driver driver.Driver, typ interface{}, fn func(f *models.Field) string) {
	t := reflect.TypeOf(driver)
	m, ok := drivers_to_types[t]
	if !ok || m == nil {
		m = make(map[reflect.Type]func(f *models.Field) string)
		drivers_to_types[t] = m
	}

	var typType = reflect.TypeOf(typ)
	m[typType] = fn
}

// RegisterAutoIncrement registers how a generated integer primary key
// is declared, fn receives the column type and returns the full definition.
func RegisterAutoIncrement(driver driver.Driver, fn func(typ string) string) {
	drivers_to_auto[reflect.TypeOf(driver)] = fn
}

func GetFieldType(driver driver.Driver, f *models.Field) string {
	var typ = f.Type
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	var fn = getType(driver, typ)
	if fn == nil {
		return "TEXT"
	}

	return fn(f)
}

func getAutoIncrement(driver driver.Driver) func(typ string) string {
	return drivers_to_auto[reflect.TypeOf(driver)]
}

func getType(driver driver.Driver, typ reflect.Type) func(f *models.Field) string {
	t := reflect.TypeOf(driver)

	// First: absolute type match
	if v, ok := drivers_to_types[t]; ok && v != nil {
		if fn, ok := v[typ]; ok {
			return checkDBType(fn)
		}
	}

	// Fallback: kind-based match
	if m, ok := drivers_to_kinds[t]; ok && m != nil {
		if fn, ok := m[typ.Kind()]; ok {
			return checkDBType(fn)
		}
	}

	return nil
}

func checkDBType(fn func(f *models.Field) string) func(f *models.Field) string {
	if fn == nil {
		return nil
	}

	return func(f *models.Field) string {
		if dbType, ok := f.Tag.Lookup(TagDBType); ok && dbType != "" {
			return dbType
		}

		return fn(f)
	}
}
