// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import "fmt"

// LoadError occurs when a source fails to load its values.
type LoadError struct {
	// Source is the diagnostic name of the failing source.
	Source string

	Cause error
}

// Error implements the error interface.
func (e LoadError) Error() string {
	return fmt.Sprintf("failed to load config source %q: %s", e.Source, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e LoadError) Unwrap() error {
	return e.Cause
}

// MissingKeyError occurs when a key registered as required is absent
// from the merged map.
type MissingKeyError struct {
	Key string
}

// Error implements the error interface.
func (e MissingKeyError) Error() string {
	return fmt.Sprintf("Required key '%s' was not found", e.Key)
}

// TransformError occurs when a registered transformation fails. Index
// is the zero-based registration order of the failing transformation.
type TransformError struct {
	Index int
	Cause error
}

// Error implements the error interface.
func (e TransformError) Error() string {
	return fmt.Sprintf("config transformation %d failed: %s", e.Index, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TransformError) Unwrap() error {
	return e.Cause
}

// ValidateError occurs when a registered whole-map validator rejects
// the final merged map.
type ValidateError struct {
	Cause error
}

// Error implements the error interface.
func (e ValidateError) Error() string {
	return fmt.Sprintf("config validation failed: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ValidateError) Unwrap() error {
	return e.Cause
}
