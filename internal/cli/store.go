package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/phonebook/internal/metrics"
	"github.com/mesh-intelligence/phonebook/pkg/phonebook"
	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// session is one opened store plus whatever must happen when the command ends.
type session struct {
	store       types.Store
	settings    *settings
	registry    *prometheus.Registry
	metricsFile string
}

// openSession loads settings and opens the configured store. When a metrics
// file is configured the store is instrumented and the registry is written
// out by close. Failures here are system errors.
func openSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	s, err := loadSettings(cmd, flags)
	if err != nil {
		return nil, sysError(err)
	}

	store, err := phonebook.Open(cmd.Context(), s.store)
	if err != nil {
		return nil, sysError(err)
	}
	slog.Debug("store opened",
		"backend", s.store.Backend,
		"dialect", s.store.EffectiveDialect(),
		"schema_mode", s.store.GetSchemaMode(),
	)

	sess := &session{store: store, settings: s, metricsFile: s.metricsFile}
	if s.metricsFile == "" {
		return sess, nil
	}

	sess.registry = prometheus.NewRegistry()
	sess.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	instrumented, err := metrics.Instrument(store, sess.registry)
	if err != nil {
		store.Close()
		return nil, sysError(err)
	}
	sess.store = instrumented
	return sess, nil
}

// close closes the store and flushes metrics. It joins its error with err so
// a command's own failure is never masked.
func (s *session) close(err error) error {
	var errs []error
	if cerr := s.store.Close(); cerr != nil {
		errs = append(errs, sysError(fmt.Errorf("close store: %w", cerr)))
	}
	if s.registry != nil {
		if werr := metrics.WriteTextfile(s.metricsFile, s.registry); werr != nil {
			errs = append(errs, sysError(werr))
		}
	}
	if err == nil && len(errs) == 0 {
		return nil
	}
	if err == nil {
		return errs[0]
	}
	if len(errs) > 0 {
		slog.Warn("cleanup failed", "error", errors.Join(errs...))
	}
	return err
}

// withStore opens a session, runs fn, and closes the session.
func withStore(cmd *cobra.Command, flags *rootFlags, fn func(store types.Store) error) error {
	sess, err := openSession(cmd, flags)
	if err != nil {
		return err
	}
	return sess.close(fn(sess.store))
}
