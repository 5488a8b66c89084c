// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bind

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	urlType             = reflect.TypeOf(url.URL{})
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// convertScalar converts a raw string value to the target type by
// running it through the decode hook chain. Hooks follow the
// mapstructure convention: a hook which does not apply passes the
// value through untouched, so user supplied hooks, consulted first,
// compose with the built-in ones and with the stock hooks shipped by
// mapstructure itself.
func (b *binder) convertScalar(raw string, t reflect.Type) (any, error) {
	hooks := make([]mapstructure.DecodeHookFunc, 0, len(b.opts.hooks)+4)
	hooks = append(hooks, b.opts.hooks...)
	hooks = append(hooks,
		enumHookFunc(),
		timeDurationHookFunc(),
		urlHookFunc(),
		textUnmarshalerHookFunc(),
		primitiveHookFunc(),
	)

	return mapstructure.DecodeHookExec(
		mapstructure.ComposeDecodeHookFunc(hooks...),
		reflect.ValueOf(raw),
		reflect.New(t).Elem(),
	)
}

// assignScalar stores a converted value into v, dereferencing results
// produced via pointer receivers and converting across named types.
func assignScalar(v reflect.Value, out any) error {
	ov := reflect.ValueOf(out)
	t := v.Type()
	if ov.Type() == reflect.PointerTo(t) {
		ov = ov.Elem()
	}
	if ov.Type().AssignableTo(t) {
		v.Set(ov)
		return nil
	}
	if ov.Type().ConvertibleTo(t) {
		// Guard against Go's rune conversion; turning a number into
		// a string type is never what a config caller wants.
		if t.Kind() == reflect.String && ov.Kind() != reflect.String {
			return fmt.Errorf("cannot assign %s to %s", ov.Type(), t)
		}
		v.Set(ov.Convert(t))
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", ov.Type(), t)
}

func enumHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		values, ok := lookupEnum(t)
		if !ok {
			return data, nil
		}

		raw := data.(string)
		v, ok := values[strings.ToLower(raw)]
		if !ok {
			return nil, fmt.Errorf("unknown %s value %q", t, raw)
		}
		return v, nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != durationType {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}

func urlHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != urlType {
			return data, nil
		}
		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, err
		}
		return *u, nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func primitiveHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		s := data.(string)

		switch t.Kind() {
		case reflect.Bool:
			return parseStrictBool(s)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v.Interface(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(s, 10, t.Bits())
			if err != nil {
				return nil, err
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v.Interface(), nil
		case reflect.Float32, reflect.Float64:
			n, err := strconv.ParseFloat(s, t.Bits())
			if err != nil {
				return nil, err
			}
			v := reflect.New(t).Elem()
			v.SetFloat(n)
			return v.Interface(), nil
		default:
			return data, nil
		}
	}
}

// parseStrictBool accepts only "true" and "false", case-insensitively.
// The laxer forms accepted by [strconv.ParseBool], like "1" and "t",
// are rejected so typos cannot silently flip flags.
func parseStrictBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool %q (expected true or false)", s)
	}
}
