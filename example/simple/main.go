// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/config"
)

type Config struct {
	Http struct {
		Port    uint   `config:"port"`
		BaseUrl string `config:"base_url" validate:"required,url"`
	} `config:"http"`

	Log struct {
		Level string `config:"level" validate:"oneof=debug info warn error"`
	} `config:"log"`

	ShutdownTimeout time.Duration `config:"shutdown_timeout"`
}

func main() {
	b := config.New().
		Source(
			config.Static("defaults", 0, map[string]any{
				"http": map[string]any{
					"port": 8080,
				},
				"log": map[string]any{
					"level": "info",
				},
				"shutdown_timeout": "30s",
			}),
			config.File("config.yaml", 50, config.Optional()),
			config.Env(
				100,
				config.EnvPrefix("SIMPLE_"),
				config.EnvKeyReplacer(strings.NewReplacer("__", ":")),
			),
		).
		Require("http:base_url")

	r := strata.Build[Config](context.Background(), b)
	cfg, ok := r.Value()
	if !ok {
		log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		for _, err := range r.Errors() {
			log.Error("invalid configuration", slog.Any("error", err))
		}
		os.Exit(1)
	}

	fmt.Printf("listening on :%d for %s\n", cfg.Http.Port, cfg.Http.BaseUrl)
}
