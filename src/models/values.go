package models

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/Nigel2392/go-django-repositories/src/query_errors"
	"github.com/jmoiron/sqlx/reflectx"
)

// New allocates a new zero model and returns a pointer to it.
func (m *Meta) New() reflect.Value {
	return reflect.New(m.Type)
}

// value returns the addressable struct behind obj.
func (m *Meta) value(obj any) (reflect.Value, error) {
	var rV, ok = obj.(reflect.Value)
	if !ok {
		rV = reflect.ValueOf(obj)
	}
	if !rV.IsValid() {
		return reflect.Value{}, query_errors.ErrInvalidModel
	}
	if rV.Kind() != reflect.Pointer || rV.IsNil() || rV.Elem().Type() != m.Type {
		return reflect.Value{}, fmt.Errorf(
			"expected a non-nil *%s, got %s: %w",
			m.Type.Name(), rV.Type(), query_errors.ErrInvalidModel,
		)
	}
	return rV.Elem(), nil
}

// FieldValue returns the struct field of a column.
func (m *Meta) FieldValue(obj reflect.Value, f *Field) reflect.Value {
	return reflectx.FieldByIndexes(reflect.Indirect(obj), f.Index)
}

// Get returns the value of the named column of obj.
func (m *Meta) Get(obj any, column string) (any, error) {
	var rV, err = m.value(obj)
	if err != nil {
		return nil, err
	}
	var f, ok = m.fieldMap[column]
	if !ok {
		return nil, &query_errors.ColumnNotFoundError{Model: m.String(), Path: column}
	}
	return reflectx.FieldByIndexesReadOnly(rV, f.Index).Interface(), nil
}

// PrimaryKey returns the primary key value of obj.
func (m *Meta) PrimaryKey(obj any) (any, error) {
	return m.Get(obj, m.primary.Name)
}

// Set assigns a value to the named column of obj,
// converting between compatible kinds.
func (m *Meta) Set(obj any, column string, value any) error {
	var rV, err = m.value(obj)
	if err != nil {
		return err
	}
	var f, ok = m.fieldMap[column]
	if !ok {
		return &query_errors.ColumnNotFoundError{Model: m.String(), Path: column}
	}
	if err := assign(reflectx.FieldByIndexes(rV, f.Index), value); err != nil {
		return fmt.Errorf("%s.%s: %w", m, f.Attr, err)
	}
	return nil
}

// Assign sets every column of the map on obj.
//
// Keys are applied in sorted order so a failing key is reported
// deterministically.
func Assign(obj any, values map[string]any) error {
	var meta, err = Of(obj)
	if err != nil {
		return err
	}
	var keys = make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := meta.Set(obj, k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// ScanTarget returns a NULL-safe destination for rows.Scan.
func (f *Field) ScanTarget() any {
	return reflect.New(reflect.PointerTo(f.Type)).Interface()
}

// Scanned dereferences a value produced through ScanTarget down to
// a plain value, it returns nil for NULL.
func (f *Field) Scanned(target any) any {
	var v = reflect.ValueOf(target).Elem()
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// SetScanned copies a value produced through ScanTarget into obj.
func (m *Meta) SetScanned(obj reflect.Value, f *Field, target any) {
	var ptr = reflect.ValueOf(target).Elem()
	var dst = m.FieldValue(obj, f)
	if ptr.IsNil() {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	dst.Set(ptr.Elem())
}

func assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	var src = reflect.ValueOf(value)
	if src.Kind() == reflect.Pointer && dst.Kind() != reflect.Pointer {
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		src = src.Elem()
	}

	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}

	if dst.Kind() == reflect.Pointer {
		var elem = reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src.Interface()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if kindClass(src.Kind()) == classNumber && kindClass(dst.Kind()) == classNumber {
		if !convertsExactly(src, dst.Type()) {
			return fmt.Errorf("cannot assign %v to %s without losing precision: %w", src.Interface(), dst.Type(), query_errors.ErrTypeMismatch)
		}
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	if kindClass(src.Kind()) != 0 && kindClass(src.Kind()) == kindClass(dst.Kind()) && src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %s to %s: %w", src.Type(), dst.Type(), query_errors.ErrTypeMismatch)
}

// convertsExactly reports whether the number src keeps its value
// when converted to typ.
func convertsExactly(src reflect.Value, typ reflect.Type) bool {
	var zero = reflect.Zero(typ)
	switch {
	case isInt(typ.Kind()):
		switch {
		case isInt(src.Kind()):
			return !zero.OverflowInt(src.Int())
		case isUint(src.Kind()):
			return src.Uint() <= math.MaxInt64 && !zero.OverflowInt(int64(src.Uint()))
		}
		var f = src.Float()
		return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !zero.OverflowInt(int64(f))
	case isUint(typ.Kind()):
		switch {
		case isInt(src.Kind()):
			return src.Int() >= 0 && !zero.OverflowUint(uint64(src.Int()))
		case isUint(src.Kind()):
			return !zero.OverflowUint(src.Uint())
		}
		var f = src.Float()
		return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !zero.OverflowUint(uint64(f))
	}
	switch {
	case isInt(src.Kind()):
		return !zero.OverflowFloat(float64(src.Int()))
	case isUint(src.Kind()):
		return !zero.OverflowFloat(float64(src.Uint()))
	}
	return !zero.OverflowFloat(src.Float())
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

const (
	classNumber = iota + 1
	classString
	classBool
)

func kindClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return classNumber
	case reflect.String:
		return classString
	case reflect.Bool:
		return classBool
	}
	return 0
}

// KeyOf normalizes a column value so values of different integer
// or string types can be compared as map keys.
func KeyOf(v any) any {
	var rV = reflect.ValueOf(v)
	for rV.IsValid() && rV.Kind() == reflect.Pointer {
		if rV.IsNil() {
			return nil
		}
		rV = rV.Elem()
	}
	if !rV.IsValid() {
		return nil
	}
	switch rV.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rV.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rV.Uint())
	case reflect.Float32, reflect.Float64:
		return rV.Float()
	case reflect.String:
		return rV.String()
	case reflect.Slice:
		if rV.Type().Elem().Kind() == reflect.Uint8 {
			return string(rV.Bytes())
		}
	}
	if rV.Type().Comparable() {
		return rV.Interface()
	}
	return fmt.Sprint(rV.Interface())
}
