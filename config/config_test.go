// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlatten(t *testing.T) {
	t.Run("will join nested object members with the nesting delimiter", func(t *testing.T) {
		t.Run("if the document contains nested objects", func(t *testing.T) {
			m := Flatten(map[string]any{
				"Database": map[string]any{
					"Host": "localhost",
					"Pool": map[string]any{
						"Max": 10,
					},
				},
			})

			require.Equal(t, Map{
				"Database:Host":     "localhost",
				"Database:Pool:Max": "10",
			}, m)
		})
	})

	t.Run("will join array elements with the element delimiter", func(t *testing.T) {
		t.Run("if the document contains arrays", func(t *testing.T) {
			m := Flatten(map[string]any{
				"Endpoints": []any{
					map[string]any{"Url": "https://a"},
					map[string]any{"Url": "https://b"},
				},
				"Ports": []any{8080, 9090},
			})

			require.Equal(t, Map{
				"Endpoints__0__Url": "https://a",
				"Endpoints__1__Url": "https://b",
				"Ports__0":          "8080",
				"Ports__1":          "9090",
			}, m)
		})
	})

	t.Run("will render scalars as strings", func(t *testing.T) {
		t.Run("if the document contains mixed scalar types", func(t *testing.T) {
			m := Flatten(map[string]any{
				"Name":    "api",
				"Debug":   true,
				"Retries": 3,
				"Ratio":   0.25,
				"Big":     int64(1 << 40),
			})

			require.Equal(t, Map{
				"Name":    "api",
				"Debug":   "true",
				"Retries": "3",
				"Ratio":   "0.25",
				"Big":     "1099511627776",
			}, m)
		})
	})

	t.Run("will drop the key", func(t *testing.T) {
		t.Run("if the value is nil", func(t *testing.T) {
			m := Flatten(map[string]any{
				"Present": "yes",
				"Absent":  nil,
			})

			require.Equal(t, Map{"Present": "yes"}, m)
		})
	})
}

func TestSafeNotify(t *testing.T) {
	t.Run("will contain the panic", func(t *testing.T) {
		t.Run("if the change callback panics", func(t *testing.T) {
			log := slog.New(slog.NewTextHandler(io.Discard, nil))

			require.NotPanics(t, func() {
				safeNotify(context.Background(), log, func(old, new Map) {
					panic("callback blew up")
				}, Map{}, Map{"K": "v"})
			})
		})
	})

	t.Run("will deliver old and new maps", func(t *testing.T) {
		t.Run("if the change callback succeeds", func(t *testing.T) {
			log := slog.New(slog.NewTextHandler(io.Discard, nil))

			var gotOld, gotNew Map
			safeNotify(context.Background(), log, func(old, new Map) {
				gotOld = old
				gotNew = new
			}, Map{"K": "1"}, Map{"K": "2"})

			require.Equal(t, Map{"K": "1"}, gotOld)
			require.Equal(t, Map{"K": "2"}, gotNew)
		})
	})
}
