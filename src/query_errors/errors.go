package query_errors

import "github.com/Nigel2392/go-django/src/core/errs"

const (
	ErrNoDatabase      errs.Error = "No database connection"
	ErrUnknownDriver   errs.Error = "Unknown driver"
	ErrSessionClosed   errs.Error = "Session is closed"
	ErrLastInsertId    errs.Error = "Last insert id is not valid"
	ErrNoChanges       errs.Error = "No values provided to write"
	ErrInvalidModel    errs.Error = "Type is not a struct model"
	ErrNoPrimaryKey    errs.Error = "Model has no primary key"
	ErrTypeMismatch    errs.Error = "Value cannot be assigned to field"
	ErrReturningDriver errs.Error = "Driver does not support RETURNING"

	ErrCompositePrimaryKey errs.Error = "Composite primary keys are not supported"

	ErrInvalidFilteringField errs.Error = "Invalid filtering field"
	ErrInvalidOrderingField  errs.Error = "Invalid ordering field"
	ErrInvalidOptionField    errs.Error = "Invalid option field"
	ErrInvalidJoinField      errs.Error = "Invalid join field"
	ErrColumnNotFound        errs.Error = "Column not found"
	ErrRelationshipNotFound  errs.Error = "Relationship not found"
	ErrAmbiguousPath         errs.Error = "Path refers to more than one column"
	ErrLookupNotFound        errs.Error = "Lookup not found"
	ErrLookupArgs            errs.Error = "Invalid arguments for lookup"

	ErrInvalidLimit         errs.Error = "Limit must be greater than zero"
	ErrInvalidOffset        errs.Error = "Offset must not be negative"
	ErrInvalidBatchSize     errs.Error = "Batch size must not be negative"
	ErrConflictingReturning errs.Error = "Either returning columns or the returning model can be set, not both"

	ErrObjectNotFound          errs.Error = "No rows in result set"
	ErrMultipleObjectsReturned errs.Error = "Multiple rows in result set"
)
