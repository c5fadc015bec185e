package query_errors

import (
	"errors"
	"fmt"
)

// FieldMode describes in which part of a query a field path was used.
type FieldMode string

const (
	ModeFilter FieldMode = "filtering"
	ModeOrder  FieldMode = "ordering"
	ModeOption FieldMode = "option"
	ModeJoin   FieldMode = "join"
)

// Sentinel returns the error constant matching the mode.
func (m FieldMode) Sentinel() error {
	switch m {
	case ModeOrder:
		return ErrInvalidOrderingField
	case ModeOption:
		return ErrInvalidOptionField
	case ModeJoin:
		return ErrInvalidJoinField
	}
	return ErrInvalidFilteringField
}

// FieldError is returned when a dotted path cannot be resolved.
//
// It matches both the sentinel of its mode and the
// optional cause with errors.Is.
type FieldError struct {
	Mode    FieldMode
	Model   string
	Path    string
	Segment string
	Err     error
}

func (e *FieldError) Error() string {
	var msg = fmt.Sprintf("invalid %s field %q on %s", e.Mode, e.Path, e.Model)
	if e.Segment != "" && e.Segment != e.Path {
		msg = fmt.Sprintf("%s (at %q)", msg, e.Segment)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FieldError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Mode.Sentinel()}
	}
	return []error{e.Mode.Sentinel(), e.Err}
}

// ColumnNotFoundError is returned when a path which must end
// in a column ends in a relationship instead.
type ColumnNotFoundError struct {
	Model string
	Path  string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column not found for path %q on %s", e.Path, e.Model)
}

func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// RelationshipNotFoundError is returned when a relationship name
// is not declared on a model.
type RelationshipNotFoundError struct {
	Model string
	Name  string
}

func (e *RelationshipNotFoundError) Error() string {
	return fmt.Sprintf("relationship %q not found on %s", e.Name, e.Model)
}

func (e *RelationshipNotFoundError) Is(target error) bool {
	return target == ErrRelationshipNotFound
}

// IsFieldError reports whether err was caused by an unresolvable path,
// regardless of the mode it was used in.
func IsFieldError(err error) bool {
	var fieldErr *FieldError
	var colErr *ColumnNotFoundError
	return errors.As(err, &fieldErr) || errors.As(err, &colErr)
}
