// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"

	"github.com/z5labs/strata/result"
)

// StaticSource is an in-memory [Source]. It is primarily useful for
// hardcoded fallbacks and for tests.
type StaticSource struct {
	name     string
	priority int
	values   map[string]any
}

// Static returns a [Source] backed by the given values. The values
// may be nested documents or already-flat keys; both flatten to the
// same Map.
func Static(name string, priority int, values map[string]any) StaticSource {
	return StaticSource{
		name:     name,
		priority: priority,
		values:   values,
	}
}

// Name implements the [Source] interface.
func (s StaticSource) Name() string {
	return s.name
}

// Priority implements the [Source] interface.
func (s StaticSource) Priority() int {
	return s.priority
}

// Load implements the [Source] interface. It never fails.
func (s StaticSource) Load(_ context.Context) result.Result[Map] {
	return result.Ok(Flatten(s.values))
}
