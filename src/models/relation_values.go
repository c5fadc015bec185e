package models

import (
	"reflect"

	"github.com/jmoiron/sqlx/reflectx"
)

// Get returns the related value held by obj: a pointer for
// many-to-one relationships, a slice for one-to-many ones.
func (r *Relation) Get(obj reflect.Value) reflect.Value {
	return reflectx.FieldByIndexesReadOnly(reflect.Indirect(obj), r.Index)
}

func (r *Relation) settable(obj reflect.Value) reflect.Value {
	return reflectx.FieldByIndexes(reflect.Indirect(obj), r.Index)
}

// SetOne sets the related object of a many-to-one relationship.
// An invalid value clears it.
func (r *Relation) SetOne(obj reflect.Value, related reflect.Value) {
	var dst = r.settable(obj)
	if !related.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	dst.Set(related)
}

// SetMany replaces the collection of a one-to-many relationship.
//
// The result is never nil so a loaded, empty collection can be
// told apart from one that was never loaded.
func (r *Relation) SetMany(obj reflect.Value, related []reflect.Value) {
	var dst = r.settable(obj)
	var slice = reflect.MakeSlice(dst.Type(), 0, len(related))
	for _, v := range related {
		slice = reflect.Append(slice, v)
	}
	dst.Set(slice)
}

// LocalValue returns the value of the local join column of obj.
func (r *Relation) LocalValue(obj reflect.Value) any {
	var f = r.owner.fieldMap[r.LocalColumn]
	return reflectx.FieldByIndexesReadOnly(reflect.Indirect(obj), f.Index).Interface()
}

// RemoteValue returns the value of the remote join column of a target object.
func (r *Relation) RemoteValue(target reflect.Value) any {
	var f = r.target.fieldMap[r.RemoteColumn]
	return reflectx.FieldByIndexesReadOnly(reflect.Indirect(target), f.Index).Interface()
}
