// Package logging configures structured logging for the phonebook binary.
// Text output goes through tint for colored, human-readable lines; the json
// format uses the standard slog JSON handler.
//
// Environment variables:
//
//	PHONEBOOK_LOG_LEVEL: debug, info, warn, error (default: info)
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// EnvLevel names the variable consulted when no level is given explicitly.
const EnvLevel = "PHONEBOOK_LOG_LEVEL"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls the handler built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Empty falls back to
	// PHONEBOOK_LOG_LEVEL and then to info.
	Level string
	// Format is text or json. Empty means text.
	Format string
	// NoColor disables ANSI colors in tint output.
	NoColor bool
}

// Setup installs a logger writing to w as the slog default. Colors are
// dropped unless w is a terminal.
func Setup(w io.Writer, opts Options) error {
	if f, ok := w.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		opts.NoColor = true
	}
	logger, err := New(w, opts)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	name := opts.Level
	if name == "" {
		name = os.Getenv(EnvLevel)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatText:
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			NoColor:    opts.NoColor,
		})), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
