// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package result

import "fmt"

// Option represents a value which may be absent.
//
// The zero value of Option is None.
type Option[T any] struct {
	value T
	set   bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, set: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// IsSome reports whether o holds a value.
func (o Option[T]) IsSome() bool {
	return o.set
}

// Get returns the contained value along with whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the contained value, or def if o is None.
func (o Option[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// MustGet returns the contained value or panics if o is None.
//
// It is meant for tests and interop code which has already proven
// presence; mainline code should use [MatchOption] or [Option.Get].
func (o Option[T]) MustGet() T {
	if !o.set {
		panic(fmt.Sprintf("result: MustGet called on None[%T]", o.value))
	}
	return o.value
}

// MapOption applies f to the value of o if it is present. None
// propagates untouched.
func MapOption[T, U any](o Option[T], f func(T) U) Option[U] {
	if !o.set {
		return None[U]()
	}
	return Some(f(o.value))
}

// BindOption chains a dependent lookup onto o. None propagates
// untouched and f is never called.
func BindOption[T, U any](o Option[T], f func(T) Option[U]) Option[U] {
	if !o.set {
		return None[U]()
	}
	return f(o.value)
}

// MatchOption extracts the outcome of o by calling exactly one of
// onSome or onNone.
func MatchOption[T, U any](o Option[T], onSome func(T) U, onNone func() U) U {
	if !o.set {
		return onNone()
	}
	return onSome(o.value)
}
