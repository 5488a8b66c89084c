// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package strata resolves layered configuration into typed values.
//
// The config package merges prioritized sources into a flat key value
// map and the bind package projects that map onto typed object
// graphs. [Build] composes the two: it runs the whole pipeline and
// reports every pipeline and binder error together, so one failed
// build names every missing key, failed conversion and violated
// constraint at once.
package strata

import (
	"context"

	"github.com/z5labs/strata/bind"
	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/result"
)

// Build runs the builder's pipeline and binds the merged flat map to
// a value of type T.
//
// If one or more sources fail to load, no map exists to bind and only
// the source errors are returned. Any later pipeline failure, such as
// a missing required key, still leaves a merged map behind; Build
// binds it anyway and returns the union of pipeline and binder
// errors, so callers see every problem in a single report.
func Build[T any](ctx context.Context, b *config.Builder, opts ...bind.Option) result.Result[T] {
	m, errs := b.Evaluate(ctx)
	if m == nil {
		return result.Err[T](errs...)
	}

	r := bind.Bind[T](m, opts...)
	if len(errs) == 0 {
		return r
	}
	return result.Err[T](append(errs, r.Errors()...)...)
}
