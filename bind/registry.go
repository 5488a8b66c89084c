// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bind

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Registries are written during package initialization and read by
// concurrent bind calls, hence the RWMutex rather than plain maps.
var (
	registryMu sync.RWMutex
	enums      = make(map[reflect.Type]map[string]any)
	records    = make(map[reflect.Type]recordDesc)
)

// RegisterEnum registers the named values of an enum-like type.
// Binding matches names case-insensitively. Registering the same type
// twice replaces the previous values.
func RegisterEnum[T any](values map[string]T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	m := make(map[string]any, len(values))
	for name, v := range values {
		m[strings.ToLower(name)] = v
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	enums[t] = m
}

func lookupEnum(t reflect.Type) (map[string]any, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	m, ok := enums[t]
	return m, ok
}

type recordArg struct {
	name string
	typ  reflect.Type
}

type recordDesc struct {
	args   []recordArg
	fn     reflect.Value
	hasErr bool
}

var errType = reflect.TypeOf((*error)(nil)).Elem()

// RegisterRecord registers an immutable record type by its
// constructor. Records cannot be populated field by field; the binder
// resolves every constructor argument first and only then invokes
// ctor, in a single call.
//
// ctor must be a non-variadic function returning the record type,
// optionally with a trailing error. names supplies the config name of
// each constructor argument, in order. RegisterRecord panics on a
// malformed registration since that is a programming error.
func RegisterRecord(ctor any, names ...string) {
	fn := reflect.ValueOf(ctor)
	if fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("bind: RegisterRecord requires a constructor function, got %T", ctor))
	}

	ft := fn.Type()
	if ft.IsVariadic() {
		panic("bind: record constructors must not be variadic")
	}
	if ft.NumIn() != len(names) {
		panic(fmt.Sprintf("bind: record constructor takes %d arguments but %d names were given", ft.NumIn(), len(names)))
	}
	if ft.NumOut() < 1 || ft.NumOut() > 2 {
		panic("bind: record constructors must return the record, optionally with an error")
	}
	hasErr := ft.NumOut() == 2
	if hasErr && !ft.Out(1).Implements(errType) {
		panic("bind: the second return value of a record constructor must be an error")
	}

	args := make([]recordArg, len(names))
	for i, name := range names {
		args[i] = recordArg{name: name, typ: ft.In(i)}
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	records[ft.Out(0)] = recordDesc{
		args:   args,
		fn:     fn,
		hasErr: hasErr,
	}
}

func lookupRecord(t reflect.Type) (recordDesc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	desc, ok := records[t]
	return desc, ok
}
