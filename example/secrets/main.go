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
	"time"

	"github.com/z5labs/strata"
	"github.com/z5labs/strata/bind"
	"github.com/z5labs/strata/config"
	"github.com/z5labs/strata/config/remote"
)

// Credentials is constructed atomically: either both values resolve
// or the record is never built.
type Credentials struct {
	user     string
	password string
}

func NewCredentials(user, password string) Credentials {
	return Credentials{user: user, password: password}
}

func (c Credentials) String() string {
	return c.user + ":****"
}

type Config struct {
	Database struct {
		Host        string `validate:"required"`
		Credentials Credentials
	}
}

func main() {
	bind.RegisterRecord(NewCredentials, "User", "Password")

	vault := remote.HTTP(
		"vault",
		os.Getenv("VAULT_ADDR")+"/v1/secret/data/app",
		100,
		remote.Header("X-Vault-Token", os.Getenv("VAULT_TOKEN")),
		remote.RequestTimeout(5*time.Second),
		remote.CircuitTripCount(3),
	)

	b := config.New(config.ParallelLoad()).
		Source(
			config.File("database.json", 10, config.Optional()),
			vault,
		).
		Require("Database:Host")

	r := strata.Build[Config](context.Background(), b)
	cfg, ok := r.Value()
	if !ok {
		log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		for _, err := range r.Errors() {
			log.Error("invalid configuration", slog.Any("error", err))
		}
		os.Exit(1)
	}

	fmt.Printf("connecting to %s as %s\n", cfg.Database.Host, cfg.Database.Credentials)
}
