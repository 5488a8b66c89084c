// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/z5labs/strata/result"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/z5labs/strata/config"

// Transform rewrites the whole merged map. Transforms run in
// registration order, each consuming the output of the previous one.
type Transform func(Map) result.Result[Map]

// Validator inspects the final merged map. A nil return means the map
// passed. Every registered validator runs regardless of earlier
// validator failures.
type Validator func(Map) error

// BuilderOption configures a [Builder].
type BuilderOption func(*Builder)

// LogHandler configures the underlying slog.Handler used by the
// pipeline. Defaults to the handler of [slog.Default].
func LogHandler(h slog.Handler) BuilderOption {
	return func(b *Builder) {
		b.log = slog.New(h)
	}
}

// ParallelLoad loads all sources concurrently. Which source's value
// wins is governed by priority alone, never by load completion order,
// so the merged result is identical to a sequential load.
func ParallelLoad() BuilderOption {
	return func(b *Builder) {
		b.parallel = true
	}
}

// LoadTimeout bounds each individual source load. A timed-out source
// behaves as a failed source for error accumulation purposes.
func LoadTimeout(d time.Duration) BuilderOption {
	return func(b *Builder) {
		b.loadTimeout = d
	}
}

type defaultValue struct {
	key   string
	value string
}

// Builder merges prioritized sources into a single flat [Map] and
// runs the required-key, transformation and validation stages over
// the merged result.
type Builder struct {
	srcs       []Source
	required   []string
	defaults   []defaultValue
	transforms []Transform
	validators []Validator

	log         *slog.Logger
	parallel    bool
	loadTimeout time.Duration
}

// New returns a [Builder].
func New(opts ...BuilderOption) *Builder {
	b := &Builder{
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Source registers one or more sources with the pipeline. Sources
// with equal priority keep their registration order; the earlier
// registered source wins contested keys among them.
func (b *Builder) Source(srcs ...Source) *Builder {
	b.srcs = append(b.srcs, srcs...)
	return b
}

// Require registers keys which must be present in the merged map.
// Every absent required key is reported, not just the first.
func (b *Builder) Require(keys ...string) *Builder {
	b.required = append(b.required, keys...)
	return b
}

// Default registers a fallback value for an optional key. The default
// is materialized into the merged map only if the key is absent after
// merging every source.
func (b *Builder) Default(key, value string) *Builder {
	b.defaults = append(b.defaults, defaultValue{key: key, value: value})
	return b
}

// Transform registers transformations to run, in order, over the
// merged map. The first failing transformation short-circuits those
// remaining.
func (b *Builder) Transform(fns ...Transform) *Builder {
	b.transforms = append(b.transforms, fns...)
	return b
}

// Validate registers whole-map validators to run after all
// transformations.
func (b *Builder) Validate(fns ...Validator) *Builder {
	b.validators = append(b.validators, fns...)
	return b
}

// Build runs the pipeline: load and merge every source, materialize
// defaults, check required keys, apply transformations, then run
// validators. It succeeds only if every stage passed; otherwise it
// fails with the union of every error encountered.
func (b *Builder) Build(ctx context.Context) result.Result[Map] {
	m, errs := b.Evaluate(ctx)
	if len(errs) > 0 {
		return result.Err[Map](errs...)
	}
	return result.Ok(m)
}

// Evaluate runs the same pipeline as [Builder.Build] but returns the
// merged map alongside the accumulated errors. The map is nil only
// when one or more sources failed to load; in that case no later
// stage ran. Callers which compose building with binding use Evaluate
// so binder errors can be reported together with pipeline errors.
func (b *Builder) Evaluate(ctx context.Context) (Map, []error) {
	tracer := otel.Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "Builder.Evaluate")
	defer span.End()

	srcs := slices.Clone(b.srcs)
	slices.SortStableFunc(srcs, func(a, b Source) int {
		return cmp.Compare(b.Priority(), a.Priority())
	})

	results := b.loadAll(ctx, tracer, srcs)

	// Descending priority iteration plus set-if-absent implements
	// "higher priority overrides lower priority" in a single pass.
	merged := make(Map)
	var loadErrs []error
	for i := range srcs {
		m, ok := results[i].Value()
		if !ok {
			loadErrs = append(loadErrs, results[i].Errors()...)
			continue
		}
		for k, v := range m {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}

	// Any source failure fails the build after every source has been
	// attempted and before required keys are checked. This ordering
	// is a documented policy choice; tests pin it.
	if len(loadErrs) > 0 {
		return nil, loadErrs
	}

	for _, d := range b.defaults {
		if _, exists := merged[d.key]; !exists {
			merged[d.key] = d.value
		}
	}

	var errs []error
	for _, k := range b.required {
		if _, exists := merged[k]; !exists {
			errs = append(errs, MissingKeyError{Key: k})
		}
	}

	cur := merged
	for i, transform := range b.transforms {
		r := transform(cur)
		next, ok := r.Value()
		if !ok {
			for _, err := range r.Errors() {
				errs = append(errs, TransformError{Index: i, Cause: err})
			}
			break
		}
		cur = next
	}

	for _, validate := range b.validators {
		err := validate(cur)
		if err != nil {
			errs = append(errs, ValidateError{Cause: err})
		}
	}

	return cur, errs
}

func (b *Builder) loadAll(ctx context.Context, tracer trace.Tracer, srcs []Source) []result.Result[Map] {
	results := make([]result.Result[Map], len(srcs))

	load := func(i int, src Source) {
		lctx := ctx
		if b.loadTimeout > 0 {
			var cancel context.CancelFunc
			lctx, cancel = context.WithTimeout(lctx, b.loadTimeout)
			defer cancel()
		}

		lctx, span := tracer.Start(lctx, "Builder.load", trace.WithAttributes(
			attribute.String("config.source.name", src.Name()),
			attribute.Int("config.source.priority", src.Priority()),
		))
		defer span.End()

		r := src.Load(lctx)
		if r.IsOk() {
			results[i] = r
			return
		}

		errs := make([]error, 0, len(r.Errors()))
		for _, err := range r.Errors() {
			b.log.LogAttrs(ctx, slog.LevelError, "failed to load config source",
				slog.String("source", src.Name()),
				slog.Any("error", err),
			)
			errs = append(errs, LoadError{Source: src.Name(), Cause: err})
		}
		results[i] = result.Err[Map](errs...)
	}

	if !b.parallel {
		for i, src := range srcs {
			load(i, src)
		}
		return results
	}

	var eg errgroup.Group
	for i, src := range srcs {
		eg.Go(func() error {
			load(i, src)
			return nil
		})
	}
	eg.Wait()
	return results
}

// Watch starts change notification on every registered source which
// supports it. Callbacks run on the sources' watcher goroutines until
// ctx is done; a panicking callback is contained and logged, never
// propagated to the watcher.
func (b *Builder) Watch(ctx context.Context, f ChangeFunc) error {
	for _, src := range b.srcs {
		w, ok := src.(Watchable)
		if !ok {
			continue
		}
		err := w.Watch(ctx, f)
		if err != nil {
			return err
		}
	}
	return nil
}
