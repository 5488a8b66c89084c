// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/z5labs/strata/result"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FileOption configures a [FileSource].
type FileOption func(*FileSource)

// FileFS reads the file from the given [fs.FS] instead of the OS
// filesystem. Watching is not supported with a custom filesystem.
func FileFS(fsys fs.FS) FileOption {
	return func(src *FileSource) {
		src.fsys = fsys
	}
}

// Optional makes a missing file load as an empty map instead of
// failing the pipeline.
func Optional() FileOption {
	return func(src *FileSource) {
		src.optional = true
	}
}

// RenderTextTemplate renders the file contents as a text/template
// before parsing. The "env" function is always available and expands
// an environment variable; additional functions may be supplied.
func RenderTextTemplate(funcs template.FuncMap) FileOption {
	return func(src *FileSource) {
		src.render = true
		maps.Copy(src.tmplFuncs, funcs)
	}
}

// FileLogHandler configures the slog.Handler used by the watch
// goroutine. Defaults to the handler of [slog.Default].
func FileLogHandler(h slog.Handler) FileOption {
	return func(src *FileSource) {
		src.log = slog.New(h)
	}
}

// FileSource represents a [Source] backed by a JSON or YAML file.
// Files ending in ".yaml" or ".yml" parse as YAML, everything else
// as JSON. It implements [Reloader], and [Watchable] when reading
// from the OS filesystem.
type FileSource struct {
	path      string
	priority  int
	fsys      fs.FS
	optional  bool
	render    bool
	tmplFuncs template.FuncMap
	log       *slog.Logger

	mu   sync.Mutex
	last Map
}

// File returns a [Source] which applies its config from the file at
// the given path.
func File(path string, priority int, opts ...FileOption) *FileSource {
	src := &FileSource{
		path:     path,
		priority: priority,
		tmplFuncs: template.FuncMap{
			"env": os.Getenv,
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(src)
	}
	return src
}

// Name implements the [Source] interface.
func (src *FileSource) Name() string {
	return fmt.Sprintf("file(%s)", src.path)
}

// Priority implements the [Source] interface.
func (src *FileSource) Priority() int {
	return src.priority
}

// InvalidJsonError occurs if the file contains invalid JSON.
type InvalidJsonError struct {
	cause error
}

// Error implements the error interface.
func (e InvalidJsonError) Error() string {
	return fmt.Sprintf("invalid json: %s", e.cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidJsonError) Unwrap() error {
	return e.cause
}

// InvalidYamlError occurs if the file contains invalid YAML.
type InvalidYamlError struct {
	cause error
}

// Error implements the error interface.
func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidYamlError) Unwrap() error {
	return e.cause
}

// Load implements the [Source] interface.
func (src *FileSource) Load(_ context.Context) result.Result[Map] {
	b, err := src.read()
	if err != nil {
		if src.optional && errors.Is(err, fs.ErrNotExist) {
			return result.Ok(make(Map))
		}
		return result.Err[Map](err)
	}

	if src.render {
		b, err = src.renderTemplate(b)
		if err != nil {
			return result.Err[Map](err)
		}
	}

	m, err := src.parse(b)
	if err != nil {
		return result.Err[Map](err)
	}
	return result.Ok(Flatten(m))
}

// Reload implements the [Reloader] interface.
func (src *FileSource) Reload(ctx context.Context) result.Result[Map] {
	return src.Load(ctx)
}

func (src *FileSource) read() ([]byte, error) {
	if src.fsys != nil {
		return fs.ReadFile(src.fsys, src.path)
	}
	return os.ReadFile(src.path)
}

func (src *FileSource) renderTemplate(b []byte) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(src.path)).Funcs(src.tmplFuncs).Parse(string(b))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, nil)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (src *FileSource) parse(b []byte) (map[string]any, error) {
	m := make(map[string]any)
	switch filepath.Ext(src.path) {
	case ".yaml", ".yml":
		err := yaml.Unmarshal(b, &m)
		if err != nil {
			return nil, InvalidYamlError{cause: err}
		}
	default:
		err := json.Unmarshal(b, &m)
		if err != nil {
			return nil, InvalidJsonError{cause: err}
		}
	}
	return m, nil
}

// Watch implements the [Watchable] interface. It watches the file for
// writes and invokes f with the previous and new flat maps whenever
// the parsed contents change. Watch returns once the watcher has
// started; it fails if the source reads from a custom [fs.FS].
func (src *FileSource) Watch(ctx context.Context, f ChangeFunc) error {
	if src.fsys != nil {
		return errors.New("config: watching requires the OS filesystem")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory rather than the file itself so renames
	// performed by atomic writers do not drop the watch.
	err = w.Add(filepath.Dir(src.path))
	if err != nil {
		w.Close()
		return err
	}

	if m, ok := src.Load(ctx).Value(); ok {
		src.mu.Lock()
		src.last = m
		src.mu.Unlock()
	}

	go src.watch(ctx, w, f)
	return nil
}

func (src *FileSource) watch(ctx context.Context, w *fsnotify.Watcher, f ChangeFunc) {
	defer w.Close()

	target := filepath.Clean(src.path)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			src.log.LogAttrs(ctx, slog.LevelError, "config file watcher error",
				slog.String("path", src.path),
				slog.Any("error", err),
			)
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			src.notifyIfChanged(ctx, f)
		}
	}
}

func (src *FileSource) notifyIfChanged(ctx context.Context, f ChangeFunc) {
	r := src.Reload(ctx)
	m, ok := r.Value()
	if !ok {
		for _, err := range r.Errors() {
			src.log.LogAttrs(ctx, slog.LevelError, "failed to reload config file",
				slog.String("path", src.path),
				slog.Any("error", err),
			)
		}
		return
	}

	src.mu.Lock()
	old := src.last
	changed := !maps.Equal(old, m)
	if changed {
		src.last = m.clone()
	}
	src.mu.Unlock()

	if !changed {
		return
	}
	safeNotify(ctx, src.log, f, old, m)
}
