//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// envPostgresDSN names the database the Postgres-backed tests run against.
const envPostgresDSN = "PHONEBOOK_PG_DSN"

// postgresPackages hold the tests that skip without PHONEBOOK_PG_DSN.
var postgresPackages = []string{"./internal/postgres/...", "./internal/gormstore/..."}

// Test groups test targets (all, unit, postgres).
type Test mg.Namespace

// All runs all tests. Postgres tests skip unless PHONEBOOK_PG_DSN is set.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "./...")
}

// Unit runs all tests with PHONEBOOK_PG_DSN cleared, so only the embedded
// SQLite stores are exercised.
func (Test) Unit() error {
	return sh.RunWithV(map[string]string{envPostgresDSN: ""}, binGo, "test", "./...")
}

// Postgres runs the store tests against PHONEBOOK_PG_DSN, defaulting to the
// container started by postgres:up.
func (Test) Postgres() error {
	dsn := os.Getenv(envPostgresDSN)
	if dsn == "" {
		dsn = containerDSN()
		fmt.Fprintf(os.Stderr, "%s not set, using %s\n", envPostgresDSN, dsn)
	}
	args := append([]string{"test", "-v", "-count=1"}, postgresPackages...)
	return sh.RunWithV(map[string]string{envPostgresDSN: dsn}, binGo, args...)
}
