// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package remote provides a config source backed by a remote secret
// store reachable over HTTP.
//
// The source is a thin I/O adapter: it fetches a JSON document,
// flattens it and hands it to the pipeline. Transient failures are
// retried and repeated failures trip a circuit breaker so a flapping
// secret store cannot stall every build.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/internal/try"
	"github.com/z5labs/strata/result"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
)

// Option configures an [HTTPSource].
type Option func(*HTTPSource)

// RetryMax sets the maximum number of retries per fetch.
//
// Default: 3
func RetryMax(n int) Option {
	return func(src *HTTPSource) {
		src.client.RetryMax = n
	}
}

// RetryWait bounds the backoff between retries.
func RetryWait(min, max time.Duration) Option {
	return func(src *HTTPSource) {
		src.client.RetryWaitMin = min
		src.client.RetryWaitMax = max
	}
}

// RequestTimeout bounds each fetch, including retries, independently
// of any deadline already carried by the Load context.
//
// Default: 10s
func RequestTimeout(d time.Duration) Option {
	return func(src *HTTPSource) {
		src.timeout = d
	}
}

// Header adds a header to every request, e.g. an authorization token.
func Header(name, value string) Option {
	return func(src *HTTPSource) {
		src.headers.Add(name, value)
	}
}

// HTTPClient swaps the underlying [http.Client] used for fetches.
func HTTPClient(c *http.Client) Option {
	return func(src *HTTPSource) {
		src.client.HTTPClient = c
	}
}

// CircuitTripCount determines the number of consecutive failures
// required to trip the circuit.
//
// Default: 5
func CircuitTripCount(n uint32) Option {
	return func(src *HTTPSource) {
		src.tripCount = n
	}
}

// CircuitInterval is the cyclic period of the closed state after
// which the breaker clears its internal counts. Zero means the counts
// are never cleared while closed.
func CircuitInterval(d time.Duration) Option {
	return func(src *HTTPSource) {
		src.interval = d
	}
}

// CircuitTimeout is the period of the open state, after which the
// breaker becomes half-open.
//
// Default: 60s
func CircuitTimeout(d time.Duration) Option {
	return func(src *HTTPSource) {
		src.breakTimeout = d
	}
}

// LogHandler configures the underlying slog.Handler. Defaults to the
// handler of [slog.Default].
func LogHandler(h slog.Handler) Option {
	return func(src *HTTPSource) {
		src.log = slog.New(h)
	}
}

// HTTPSource represents a [config.Source] whose values are fetched
// from a remote secret store over HTTP. The response body must be a
// JSON document; nested objects and arrays flatten per the flat key
// grammar.
type HTTPSource struct {
	name     string
	url      string
	priority int
	timeout  time.Duration
	headers  http.Header
	log      *slog.Logger

	client *retryablehttp.Client

	tripCount    uint32
	interval     time.Duration
	breakTimeout time.Duration
	breaker      *gobreaker.CircuitBreaker
}

// HTTP returns a [config.Source] which fetches its values from the
// given URL.
func HTTP(name, url string, priority int, opts ...Option) *HTTPSource {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil

	src := &HTTPSource{
		name:         name,
		url:          url,
		priority:     priority,
		timeout:      10 * time.Second,
		headers:      make(http.Header),
		log:          slog.Default(),
		client:       client,
		tripCount:    5,
		breakTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(src)
	}

	src.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    src.interval,
		Timeout:     src.breakTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= src.tripCount
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			src.log.LogAttrs(context.Background(), slog.LevelWarn, "secret store circuit changed state",
				slog.String("source", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return src
}

// Name implements the [config.Source] interface.
func (src *HTTPSource) Name() string {
	return src.name
}

// Priority implements the [config.Source] interface.
func (src *HTTPSource) Priority() int {
	return src.priority
}

// StatusCodeError occurs when the secret store responds with a non-2xx
// status code.
type StatusCodeError struct {
	Code int
}

// Error implements the error interface.
func (e StatusCodeError) Error() string {
	return fmt.Sprintf("secret store responded with status code: %d", e.Code)
}

// Load implements the [config.Source] interface.
func (src *HTTPSource) Load(ctx context.Context) result.Result[config.Map] {
	ctx, cancel := context.WithTimeout(ctx, src.timeout)
	defer cancel()

	b, err := src.breaker.Execute(func() (any, error) {
		return src.fetch(ctx)
	})
	if err != nil {
		return result.Err[config.Map](err)
	}

	m := make(map[string]any)
	err = json.Unmarshal(b.([]byte), &m)
	if err != nil {
		return result.Errf[config.Map]("invalid secret store response: %s", err)
	}
	return result.Ok(config.Flatten(m))
}

// Reload implements the [config.Reloader] interface.
func (src *HTTPSource) Reload(ctx context.Context) result.Result[config.Map] {
	return src.Load(ctx)
}

func (src *HTTPSource) fetch(ctx context.Context) (_ []byte, err error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src.url, nil)
	if err != nil {
		return nil, err
	}
	for name, values := range src.headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := src.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer try.Close(&err, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, StatusCodeError{Code: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
