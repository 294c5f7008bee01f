// Package cli implements the phonebook command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	dataDir     string
	backend     string
	dialect     string
	dsn         string
	schemaMode  string
	maxConns    int32
	logLevel    string
	logFormat   string
	metricsFile string
	jsonMode    bool
}

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// storeError classifies a store failure: bad input and missing rows are the
// user's, everything else is the system's.
func storeError(err error) error {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidNumber),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrAlreadyPersisted):
		return userError(err)
	default:
		return sysError(err)
	}
}

// ExitCode maps an error returned by the root command to a process exit code.
// Errors without a classification, such as cobra's argument errors, are
// user errors.
func ExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

// NewRootCmd creates the top-level "phonebook" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "phonebook",
		Short: "Manage persons and their phone numbers",
		Long: "Phonebook stores persons and their phone numbers in SQLite or PostgreSQL,\n" +
			"through database/sql, pgx or gorm.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "data directory for the sqlite database file")
	pf.StringVar(&flags.backend, "backend", "", "store backend: sqlite, postgres, gorm")
	pf.StringVar(&flags.dialect, "dialect", "", "gorm dialect: sqlite, postgres")
	pf.StringVar(&flags.dsn, "dsn", "", "database connection string (default: <data-dir>/phonebook.db)")
	pf.StringVar(&flags.schemaMode, "schema-mode", "", "schema handling on open: update, create, none")
	pf.Int32Var(&flags.maxConns, "max-conns", 0, "postgres connection pool cap (default: driver default)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: text, json")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "write store metrics to this file on exit")
	pf.BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(flags))
	root.AddCommand(newDemoCmd(flags))
	root.AddCommand(newListCmd(flags))
	root.AddCommand(newGetCmd(flags))
	root.AddCommand(newAddCmd(flags))
	root.AddCommand(newAddPhoneCmd(flags))
	root.AddCommand(newDeleteCmd(flags))
	root.AddCommand(newPurgeCmd(flags))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	code := ExitCode(err)
	if err != nil {
		if code == exitSysError {
			slog.Error("command failed", "error", err)
		}
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}
