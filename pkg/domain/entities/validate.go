package entities

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for entity construction.
// Entities are validated once, when built, never at use time.
var validate = validator.New(validator.WithRequiredStructEnabled())

// DataError reports a missing or invalid entity field. It is raised at
// construction time, before any model is built.
type DataError struct {
	Entity string
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invalid %s: field %s: %s", e.Entity, e.Field, e.Reason)
}

// NewDataError creates a DataError for the given entity and field.
func NewDataError(entity, field, reason string) *DataError {
	return &DataError{Entity: entity, Field: field, Reason: reason}
}

// checkStruct runs tag-level validation and converts the first failure
// into a DataError naming the offending field.
func checkStruct(entity string, v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return NewDataError(entity, verrs[0].Field(), fmt.Sprintf("failed %q validation", verrs[0].Tag()))
	}
	return NewDataError(entity, "", err.Error())
}
