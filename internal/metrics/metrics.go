// Package metrics instruments a types.Store with Prometheus collectors.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeNoop     = "noop"
)

// Store wraps a types.Store and records one observation per call.
type Store struct {
	next       types.Store
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ types.Store = (*Store)(nil)

// Instrument registers the store collectors on reg and returns next wrapped
// with them. Registering twice on the same registry fails.
func Instrument(next types.Store, reg prometheus.Registerer) (*Store, error) {
	s := &Store{
		next: next,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "phonebook",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Store operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "phonebook",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{s.operations, s.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register store metrics: %w", err)
		}
	}
	return s, nil
}

// WriteTextfile writes every metric gathered by g to path in the text
// exposition format, for pickup by a node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (s *Store) observe(op string, start time.Time, err error) {
	s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.operations.WithLabelValues(op, outcome(err)).Inc()
}

func (s *Store) noop(op string) {
	s.operations.WithLabelValues(op, OutcomeNoop).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, types.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

func (s *Store) AddPerson(ctx context.Context, person *types.Person, phones ...*types.Phone) error {
	start := time.Now()
	err := s.next.AddPerson(ctx, person, phones...)
	s.observe("add_person", start, err)
	return err
}

func (s *Store) GetAllPersons(ctx context.Context) ([]*types.Person, error) {
	start := time.Now()
	persons, err := s.next.GetAllPersons(ctx)
	s.observe("get_all_persons", start, err)
	return persons, err
}

func (s *Store) GetPersonByID(ctx context.Context, id int64) (*types.Person, error) {
	start := time.Now()
	p, err := s.next.GetPersonByID(ctx, id)
	s.observe("get_person_by_id", start, err)
	return p, err
}

func (s *Store) GetPhonesByPersonID(ctx context.Context, personID int64) ([]*types.Phone, error) {
	start := time.Now()
	phones, err := s.next.GetPhonesByPersonID(ctx, personID)
	s.observe("get_phones_by_person_id", start, err)
	return phones, err
}

func (s *Store) UpdatePerson(ctx context.Context, person *types.Person) (*types.Person, error) {
	if person == nil || person.IsTransient() {
		s.noop("update_person")
		return s.next.UpdatePerson(ctx, person)
	}
	start := time.Now()
	p, err := s.next.UpdatePerson(ctx, person)
	s.observe("update_person", start, err)
	return p, err
}

func (s *Store) DeletePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.IsTransient() {
		s.noop("delete_person")
		return s.next.DeletePerson(ctx, person)
	}
	start := time.Now()
	err := s.next.DeletePerson(ctx, person)
	s.observe("delete_person", start, err)
	return err
}

// Close closes the wrapped store. It is not instrumented.
func (s *Store) Close() error {
	return s.next.Close()
}
