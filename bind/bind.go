// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package bind projects a flat config map onto typed object graphs.
//
// [Bind] walks the shape of the target type and populates it from the
// flat map using the key codec of the
// [github.com/z5labs/strata/key] package: scalars by exact key
// lookup, structs member by member, slices by numerically ordered
// index, maps by key, pointers as nullables and registered records
// via their constructors. Sibling failures accumulate so a single
// failed bind reports every offending field at once.
//
// After the structural walk, declarative constraints declared with
// validator struct tags are evaluated and reported with the failing
// field's flat key. Constraint violations on fields which already
// failed structurally are suppressed; everything else is reported
// alongside the structural errors.
package bind

import (
	"reflect"
	"slices"
	"strings"

	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/result"

	"github.com/go-viper/mapstructure/v2"
)

type options struct {
	validate      bool
	caseSensitive bool
	tag           string
	hooks         []mapstructure.DecodeHookFunc
}

// Option configures a [Bind] call.
type Option func(*options)

// WithoutValidation skips the declarative constraint stage. Binding
// is validated by default.
func WithoutValidation() Option {
	return func(o *options) {
		o.validate = false
	}
}

// CaseSensitiveKeys makes key matching case-sensitive. By default
// "api:baseurl" and "Api:BaseUrl" address the same field.
func CaseSensitiveKeys() Option {
	return func(o *options) {
		o.caseSensitive = true
	}
}

// Tag changes the struct tag consulted for field names.
//
// Default: config
func Tag(name string) Option {
	return func(o *options) {
		o.tag = name
	}
}

// DecodeHook registers additional scalar decode hooks, consulted
// before the built-in ones.
func DecodeHook(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// Bind populates a value of type T from the given flat map. It
// returns either the fully bound, validated value or every error
// encountered, except that an unclassifiable target type fails the
// call immediately with a single [UnsupportedTypeError].
//
// Each call operates on its own decomposition of m; concurrent Bind
// calls share no mutable state.
func Bind[T any](m map[string]string, opts ...Option) result.Result[T] {
	o := options{
		validate: true,
		tag:      "config",
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := newBinder(m, o)

	var v T
	errs, fatal := b.bindValue(nil, reflect.ValueOf(&v).Elem())
	if fatal != nil {
		return result.Err[T](fatal)
	}

	// Constraints are still evaluated when some fields failed
	// structurally, so a missing required field and an unparsable
	// sibling are reported together.
	if o.validate {
		errs = append(errs, unmaskedConstraints(validateValue(&v), errs)...)
	}
	if len(errs) > 0 {
		return result.Err[T](errs...)
	}
	return result.Ok(v)
}

type entry struct {
	raw   string
	chain key.Chain
	value string
}

type binder struct {
	opts    options
	entries []entry
}

func newBinder(m map[string]string, o options) *binder {
	entries := make([]entry, 0, len(m))
	for k, v := range m {
		entries = append(entries, entry{
			raw:   k,
			chain: key.Parse(k),
			value: v,
		})
	}
	// Deterministic error and enumeration order.
	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.raw, b.raw)
	})
	return &binder{
		opts:    o,
		entries: entries,
	}
}

// bindValue populates v from the entries under path. Accumulable
// failures are returned in errs; fatal is non-nil only for an
// unsupported target shape, which aborts the whole bind call.
func (b *binder) bindValue(path key.Chain, v reflect.Value) (errs []error, fatal error) {
	t := v.Type()

	if desc, ok := lookupRecord(t); ok {
		return b.bindRecord(path, v, desc)
	}
	if isScalarType(t) {
		err := b.bindScalar(path, v)
		if err != nil {
			return []error{err}, nil
		}
		return nil, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		return b.bindPointer(path, v)
	case reflect.Struct:
		return b.bindStruct(path, v)
	case reflect.Slice:
		return b.bindSlice(path, v)
	case reflect.Map:
		return b.bindMap(path, v)
	default:
		return nil, UnsupportedTypeError{Type: t}
	}
}

func (b *binder) bindScalar(path key.Chain, v reflect.Value) error {
	raw, ok := b.lookup(path)
	if !ok {
		// Structural absence is not an error; the validation
		// layer owns "required".
		return nil
	}

	t := v.Type()
	out, err := b.convertScalar(raw, t)
	if err == nil {
		err = assignScalar(v, out)
	}
	if err != nil {
		return ConversionError{
			Path:  path.Key(),
			Type:  t.String(),
			Raw:   raw,
			Cause: err,
		}
	}
	return nil
}

func (b *binder) bindPointer(path key.Chain, v reflect.Value) ([]error, error) {
	if !b.subtreePresent(path) {
		return nil, nil
	}

	elem := reflect.New(v.Type().Elem())
	errs, fatal := b.bindValue(path, elem.Elem())
	if fatal != nil {
		return errs, fatal
	}
	if len(errs) > 0 {
		return errs, nil
	}
	v.Set(elem)
	return nil, nil
}

func (b *binder) bindStruct(path key.Chain, v reflect.Value) ([]error, error) {
	t := v.Type()

	var errs []error
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(field, b.opts.tag)
		if name == "" {
			continue
		}

		ferrs, fatal := b.bindValue(path.Name(name), v.Field(i))
		errs = append(errs, ferrs...)
		if fatal != nil {
			return errs, fatal
		}
	}
	return errs, nil
}

func (b *binder) bindSlice(path key.Chain, v reflect.Value) ([]error, error) {
	indices, errs := b.childIndices(path)
	if len(indices) == 0 {
		return errs, nil
	}

	// Dense list ordered by numeric index value; gaps are not filled
	// with placeholder elements.
	slice := reflect.MakeSlice(v.Type(), len(indices), len(indices))
	for i, idx := range indices {
		eerrs, fatal := b.bindValue(path.Index(idx), slice.Index(i))
		errs = append(errs, eerrs...)
		if fatal != nil {
			return errs, fatal
		}
	}
	if len(errs) == 0 {
		v.Set(slice)
	}
	return errs, nil
}

func (b *binder) bindMap(path key.Chain, v reflect.Value) ([]error, error) {
	t := v.Type()
	if t.Key().Kind() != reflect.String {
		return nil, UnsupportedTypeError{Type: t}
	}

	keys := b.childKeys(path)
	if len(keys) == 0 {
		return nil, nil
	}

	var errs []error
	m := reflect.MakeMapWithSize(t, len(keys))
	for _, k := range keys {
		elem := reflect.New(t.Elem()).Elem()
		eerrs, fatal := b.bindValue(path.MapKey(k), elem)
		errs = append(errs, eerrs...)
		if fatal != nil {
			return errs, fatal
		}
		if len(eerrs) > 0 {
			continue
		}
		m.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), elem)
	}
	if len(errs) == 0 {
		v.Set(m)
	}
	return errs, nil
}

// bindRecord gathers every constructor argument before invoking the
// constructor once. If any argument fails to resolve, construction is
// aborted but the errors for all failing arguments are still
// reported together.
func (b *binder) bindRecord(path key.Chain, v reflect.Value, desc recordDesc) ([]error, error) {
	var errs []error
	args := make([]reflect.Value, len(desc.args))
	for i, arg := range desc.args {
		av := reflect.New(arg.typ).Elem()
		aerrs, fatal := b.bindValue(path.Name(arg.name), av)
		errs = append(errs, aerrs...)
		if fatal != nil {
			return errs, fatal
		}
		args[i] = av
	}
	if len(errs) > 0 {
		return errs, nil
	}

	outs := desc.fn.Call(args)
	if desc.hasErr && !outs[1].IsNil() {
		return []error{ConstructError{
			Path:  path.Key(),
			Cause: outs[1].Interface().(error),
		}}, nil
	}
	v.Set(outs[0])
	return nil, nil
}

func isScalarType(t reflect.Type) bool {
	if _, ok := lookupEnum(t); ok {
		return true
	}
	if t == urlType {
		return true
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func fieldName(field reflect.StructField, tag string) string {
	v, ok := field.Tag.Lookup(tag)
	if !ok {
		return field.Name
	}
	name, _, _ := strings.Cut(v, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func (b *binder) fold(s string) string {
	if b.opts.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (b *binder) segmentMatch(want, got key.Segment) bool {
	if wi, ok := want.(key.Index); ok {
		gi, ok := got.(key.Index)
		return ok && wi == gi
	}
	return b.fold(want.Key()) == b.fold(got.Key())
}

func (b *binder) prefixMatch(path, chain key.Chain) bool {
	if len(chain) < len(path) {
		return false
	}
	for i, seg := range path {
		if !b.segmentMatch(seg, chain[i]) {
			return false
		}
	}
	return true
}

// lookup returns the value stored at exactly path.
func (b *binder) lookup(path key.Chain) (string, bool) {
	for _, e := range b.entries {
		if len(e.chain) != len(path) {
			continue
		}
		if b.prefixMatch(path, e.chain) {
			return e.value, true
		}
	}
	return "", false
}

// subtreePresent reports whether any key lives at or under path.
func (b *binder) subtreePresent(path key.Chain) bool {
	for _, e := range b.entries {
		if b.prefixMatch(path, e.chain) {
			return true
		}
	}
	return false
}

// childIndices returns the distinct list indices directly under path
// in ascending numeric order, along with an error per non-index
// segment found where an index was expected.
func (b *binder) childIndices(path key.Chain) ([]int, []error) {
	var errs []error
	seen := make(map[int]struct{})
	var indices []int
	for _, e := range b.entries {
		if len(e.chain) <= len(path) || !b.prefixMatch(path, e.chain) {
			continue
		}
		seg := e.chain[len(path)]
		idx, ok := seg.(key.Index)
		if !ok {
			errs = append(errs, ListIndexError{
				Path:    path.Key(),
				Segment: seg.Key(),
			})
			continue
		}
		if _, dup := seen[int(idx)]; dup {
			continue
		}
		seen[int(idx)] = struct{}{}
		indices = append(indices, int(idx))
	}
	slices.Sort(indices)
	return indices, errs
}

// childKeys returns the distinct dictionary keys directly under path.
// The first spelling seen wins when keys differ only by case.
func (b *binder) childKeys(path key.Chain) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, e := range b.entries {
		if len(e.chain) <= len(path) || !b.prefixMatch(path, e.chain) {
			continue
		}
		k := e.chain[len(path)].Key()
		folded := b.fold(k)
		if _, dup := seen[folded]; dup {
			continue
		}
		seen[folded] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
