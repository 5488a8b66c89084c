// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"os"
	"strings"

	"github.com/z5labs/strata/result"
)

// EnvOption configures an [EnvSource].
type EnvOption func(*EnvSource)

// EnvPrefix restricts the source to environment variables carrying
// the given prefix. The prefix is stripped from the resulting keys.
func EnvPrefix(prefix string) EnvOption {
	return func(src *EnvSource) {
		src.prefix = prefix
	}
}

// EnvKeyReplacer rewrites environment variable names into flat config
// keys. Environment variable names cannot contain the nesting
// delimiter, so a replacer is how nested keys are expressed, for
// example:
//
//	config.EnvKeyReplacer(strings.NewReplacer("_", ":"))
func EnvKeyReplacer(r *strings.Replacer) EnvOption {
	return func(src *EnvSource) {
		src.replacer = r
	}
}

// EnvSource represents a [Source] whose underlying values are
// extracted from environment variables. The process environment is
// snapshotted once per Load; the pipeline never touches process
// global state directly.
type EnvSource struct {
	priority int
	prefix   string
	replacer *strings.Replacer
	environ  func() []string
}

// Env returns a [Source] which applies its config from the
// environment variables available to the current process.
func Env(priority int, opts ...EnvOption) *EnvSource {
	src := &EnvSource{
		priority: priority,
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// Name implements the [Source] interface.
func (src *EnvSource) Name() string {
	return "env"
}

// Priority implements the [Source] interface.
func (src *EnvSource) Priority() int {
	return src.priority
}

// Load implements the [Source] interface. It never fails.
func (src *EnvSource) Load(_ context.Context) result.Result[Map] {
	m := make(Map)
	for _, pair := range src.environ() {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if src.prefix != "" {
			if !strings.HasPrefix(k, src.prefix) {
				continue
			}
			k = strings.TrimPrefix(k, src.prefix)
		}
		if src.replacer != nil {
			k = src.replacer.Replace(k)
		}
		m[k] = v
	}
	return result.Ok(m)
}
