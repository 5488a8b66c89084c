// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package result provides immutable success-or-errors and
// present-or-absent value wrappers.
//
// [Result] is used for computations whose failure must be reported,
// potentially with more than one error at once. [Option] is used for
// lookups which tolerate absence. Neither type is ever mutated after
// construction.
package result

import (
	"errors"
	"fmt"
	"slices"
)

// Result represents either a value or a non-empty list of errors.
//
// The zero value of Result is a success holding the zero value of T.
type Result[T any] struct {
	value T
	errs  []error
}

// Ok returns a successful Result holding v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err returns a failed Result holding the given errors.
//
// A failure always carries at least one error. Err panics if called
// with none, or with only nil errors, since that is a programming
// error at the construction site rather than a runtime condition.
func Err[T any](errs ...error) Result[T] {
	errs = slices.DeleteFunc(slices.Clone(errs), func(err error) bool {
		return err == nil
	})
	if len(errs) == 0 {
		panic("result: Err called with no errors")
	}
	return Result[T]{errs: errs}
}

// Errf returns a failed Result holding a single formatted error.
func Errf[T any](format string, args ...any) Result[T] {
	return Err[T](fmt.Errorf(format, args...))
}

// IsOk reports whether r is a success.
func (r Result[T]) IsOk() bool {
	return len(r.errs) == 0
}

// Value returns the contained value along with whether r is a success.
func (r Result[T]) Value() (T, bool) {
	return r.value, len(r.errs) == 0
}

// Errors returns a copy of the contained errors. It returns nil
// for a success.
func (r Result[T]) Errors() []error {
	return slices.Clone(r.errs)
}

// Err returns the contained errors joined into a single error via
// [errors.Join], or nil for a success. It exists for interop with
// plain (T, error) call sites.
func (r Result[T]) Err() error {
	return errors.Join(r.errs...)
}

// MustValue returns the contained value or panics if r is a failure.
//
// It is meant for tests and interop code which has already proven
// success; mainline code should use [Match] or [Result.Value].
func (r Result[T]) MustValue() T {
	if len(r.errs) > 0 {
		panic(fmt.Sprintf("result: MustValue called on failure: %s", errors.Join(r.errs...)))
	}
	return r.value
}

// Map applies f to the value of r if it is a success. The errors of a
// failure propagate untouched.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if len(r.errs) > 0 {
		return Result[U]{errs: r.errs}
	}
	return Ok(f(r.value))
}

// Bind chains a dependent computation onto r. The errors of a failure
// propagate untouched and f is never called.
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if len(r.errs) > 0 {
		return Result[U]{errs: r.errs}
	}
	return f(r.value)
}

// Match extracts the outcome of r by calling exactly one of onOk or
// onErrs. It is the sanctioned way to consume a Result.
func Match[T, U any](r Result[T], onOk func(T) U, onErrs func([]error) U) U {
	if len(r.errs) > 0 {
		return onErrs(r.Errors())
	}
	return onOk(r.value)
}

// Combine merges independent Results. If every Result succeeded it
// returns their values in order. Otherwise it returns the union of
// every error list, in order, never just the first.
func Combine[T any](rs []Result[T]) Result[[]T] {
	var errs []error
	vs := make([]T, 0, len(rs))
	for _, r := range rs {
		if len(r.errs) > 0 {
			errs = append(errs, r.errs...)
			continue
		}
		vs = append(vs, r.value)
	}
	if len(errs) > 0 {
		return Result[[]T]{errs: errs}
	}
	return Ok(vs)
}
