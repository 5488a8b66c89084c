// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bind

import (
	"fmt"
	"reflect"
)

// ConversionError occurs when a config value cannot be converted to
// the type of the field it is bound to.
type ConversionError struct {
	// Path is the flat key of the failing field.
	Path string

	// Type is the target type the raw value was converted to.
	Type string

	// Raw is the config value that failed to convert.
	Raw string

	Cause error
}

// Error implements the error interface.
func (e ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s for key '%s': %s", e.Raw, e.Type, e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConversionError) Unwrap() error {
	return e.Cause
}

// ListIndexError occurs when a key under a list typed field carries
// something other than a list index where the index was expected.
type ListIndexError struct {
	// Path is the flat key of the list field.
	Path string

	// Segment is the offending key segment.
	Segment string
}

// Error implements the error interface.
func (e ListIndexError) Error() string {
	return fmt.Sprintf("expected list index under '%s' but found '%s'", e.Path, e.Segment)
}

// ConstraintError occurs when a declarative constraint attached to a
// field rejects a structurally bound value.
type ConstraintError struct {
	// Path is the flat key of the failing field.
	Path string

	// Constraint names the failing rule, e.g. "required" or "max=10".
	Constraint string
}

// Error implements the error interface.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("field '%s' failed the '%s' constraint", e.Path, e.Constraint)
}

// ConstructError occurs when a record constructor rejects its
// fully resolved arguments.
type ConstructError struct {
	// Path is the flat key of the record.
	Path string

	Cause error
}

// Error implements the error interface.
func (e ConstructError) Error() string {
	return fmt.Sprintf("failed to construct record at '%s': %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConstructError) Unwrap() error {
	return e.Cause
}

// UnsupportedTypeError occurs when the binder cannot classify a
// target type. No partial value can be produced, so this error is
// fatal for the whole bind call rather than accumulated.
type UnsupportedTypeError struct {
	Type reflect.Type
}

// Error implements the error interface.
func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("cannot bind unsupported type %s", e.Type)
}
