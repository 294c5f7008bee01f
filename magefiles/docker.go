//go:build mage

package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Postgres container constants.
const (
	pgContainerName = "phonebook-postgres"
	pgImage         = "postgres:17-alpine"
	pgPort          = "55432"
	pgUser          = "phonebook"
	pgPassword      = "phonebook"
	pgDatabase      = "phonebook"
)

// Postgres groups targets for the disposable test database.
type Postgres mg.Namespace

// containerRuntime returns "podman" or "docker" if a working runtime
// is available, or "" if neither is usable. It checks both that the
// binary exists on PATH and that it can connect to its daemon/machine.
func containerRuntime() string {
	for _, name := range []string{"podman", "docker"} {
		if _, err := exec.LookPath(name); err != nil {
			continue
		}
		if exec.Command(name, "info").Run() != nil {
			fmt.Fprintf(os.Stderr, "WARNING: %s found on PATH but not usable (is the daemon/machine running?)\n", name)
			continue
		}
		return name
	}
	return ""
}

func containerDSN() string {
	return fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable", pgUser, pgPassword, pgPort, pgDatabase)
}

// Up starts a throwaway Postgres container and prints its DSN.
func (Postgres) Up() error {
	rt := containerRuntime()
	if rt == "" {
		return errors.New("no usable container runtime (podman or docker)")
	}
	err := sh.RunV(rt, "run", "-d", "--rm",
		"--name", pgContainerName,
		"-p", pgPort+":5432",
		"-e", "POSTGRES_USER="+pgUser,
		"-e", "POSTGRES_PASSWORD="+pgPassword,
		"-e", "POSTGRES_DB="+pgDatabase,
		pgImage,
	)
	if err != nil {
		return err
	}
	fmt.Printf("export %s='%s'\n", envPostgresDSN, containerDSN())
	return nil
}

// Down stops and removes the Postgres container. Errors are ignored
// because the container may not exist.
func (Postgres) Down() {
	if rt := containerRuntime(); rt != "" {
		_ = exec.Command(rt, "rm", "-f", pgContainerName).Run()
	}
}
