// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bind

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/z5labs/strata/key"

	"github.com/go-playground/validator/v10"
)

// A single Validate instance caches struct metadata and is safe for
// concurrent use.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := fieldName(field, "config")
		if name == "" {
			// Skipped fields keep their Go name in constraint paths.
			return field.Name
		}
		return name
	})
	return v
}

// validateValue evaluates the declarative constraints attached to the
// fields of a structurally bound value. Every violation is reported;
// a value without constraints passes trivially.
func validateValue(v any) []error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := structValidator.Struct(rv.Interface())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{err}
	}

	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ConstraintError{
			Path:       namespaceToPath(fe.Namespace()),
			Constraint: constraintName(fe),
		})
	}
	return out
}

// unmaskedConstraints drops constraint violations for fields which
// already failed structurally; reporting "required" against a field
// whose value could not even convert would be noise. Violations on
// other fields pass through.
func unmaskedConstraints(verrs, structural []error) []error {
	if len(verrs) == 0 || len(structural) == 0 {
		return verrs
	}

	failed := make(map[string]struct{}, len(structural))
	for _, err := range structural {
		var convErr ConversionError
		if errors.As(err, &convErr) {
			failed[strings.ToLower(convErr.Path)] = struct{}{}
			continue
		}
		var consErr ConstructError
		if errors.As(err, &consErr) {
			failed[strings.ToLower(consErr.Path)] = struct{}{}
		}
	}

	out := make([]error, 0, len(verrs))
	for _, err := range verrs {
		var cerr ConstraintError
		if errors.As(err, &cerr) {
			if _, masked := failed[strings.ToLower(cerr.Path)]; masked {
				continue
			}
		}
		out = append(out, err)
	}
	return out
}

func constraintName(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// namespaceToPath rewrites a validator namespace like
// "Config.Items[2].Name" into the flat key form "Items__2__Name".
// The leading element is the root type name and is dropped.
func namespaceToPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	var chain key.Chain
	for _, part := range parts {
		for part != "" {
			if part[0] == '[' {
				end := strings.IndexByte(part, ']')
				if end < 0 {
					chain = chain.Name(part)
					break
				}
				elem := part[1:end]
				if n, err := strconv.Atoi(elem); err == nil && n >= 0 {
					chain = chain.Index(n)
				} else {
					chain = chain.MapKey(elem)
				}
				part = part[end+1:]
				continue
			}

			open := strings.IndexByte(part, '[')
			if open < 0 {
				chain = chain.Name(part)
				break
			}
			chain = chain.Name(part[:open])
			part = part[open:]
		}
	}
	return chain.Key()
}
