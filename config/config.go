// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config resolves configuration from prioritized sources into
// a single flat key value map.
//
// A [Source] produces a flat [Map] whose keys follow the grammar of
// the [github.com/z5labs/strata/key] package. The [Builder] merges any
// number of sources by priority, enforces required and default key
// contracts, then runs transformation and validation stages. Every
// stage that can produce independent errors accumulates all of them
// instead of stopping at the first.
//
// Sources which support live updates additionally implement
// [Reloader] and [Watchable]; the pipeline itself never watches
// anything.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strconv"

	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/key"
	"github.com/z5labs/strata/result"
)

// Map is the flat string-to-string representation of merged
// configuration. Keys follow the flat key grammar of the key package.
type Map map[string]string

func (m Map) clone() Map {
	return maps.Clone(m)
}

// Flatten converts a nested document of objects, arrays and scalars
// into a flat Map. Object members join with the nesting delimiter,
// array elements with the element delimiter. Nil values are dropped.
func Flatten(values map[string]any) Map {
	out := make(Map)
	flattenInto(out, nil, values)
	return out
}

func flattenInto(out Map, chain key.Chain, v any) {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			flattenInto(out, chain.Name(k), e)
		}
	case []any:
		for i, e := range x {
			flattenInto(out, chain.Index(i), e)
		}
	case nil:
	default:
		out[chain.Key()] = formatScalar(x)
	}
}

func formatScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Source is a named, prioritized provider of a flat config map.
type Source interface {
	// Name is a diagnostic label used in logs and error messages.
	Name() string

	// Priority ranks this source against others. On key collision
	// the value from the source with the higher priority wins.
	Priority() int

	// Load produces a snapshot of the source's values. It must be
	// idempotent and side effect free with respect to other sources.
	Load(context.Context) result.Result[Map]
}

// Reloader is implemented by sources whose values can be re-read
// after the initial load.
type Reloader interface {
	Reload(context.Context) result.Result[Map]
}

// ChangeFunc is invoked with the previous and new flat maps when a
// watched source observes a change.
type ChangeFunc func(old, new Map)

// Watchable is implemented by sources which can notify about live
// changes to their values. Watch returns once watching has started;
// callbacks are invoked from a background goroutine until ctx is done.
type Watchable interface {
	Watch(ctx context.Context, f ChangeFunc) error
}

// safeNotify invokes f and contains any panic to this notification
// boundary. A failing callback must never take down the watcher.
func safeNotify(ctx context.Context, log *slog.Logger, f ChangeFunc, old, new Map) {
	var err error
	func() {
		defer try.Recover(&err)
		f(old, new)
	}()
	if err == nil {
		return
	}
	log.LogAttrs(ctx, slog.LevelError, "config change callback panicked", slog.Any("error", err))
}
