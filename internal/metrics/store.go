package metrics

import (
	"context"
	"fmt"
	"sync"

	"github.com/AdguardTeam/PiholeExporter/internal/aggregate"
	"github.com/AdguardTeam/golibs/container"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_model/go"
	"github.com/prometheus/common/model"
)

// WindowMode defines how the windowed families are updated.
type WindowMode string

// WindowMode values.
const (
	// WindowModeKeep means that the label keys missing from the latest window
	// keep their last values.
	WindowModeKeep WindowMode = "keep"

	// WindowModeReplace means that every publication fully replaces the
	// windowed families.
	WindowModeReplace WindowMode = "replace"
)

// Validate returns an error if m is not a valid window mode.
func (m WindowMode) Validate() (err error) {
	switch m {
	case WindowModeKeep, WindowModeReplace:
		return nil
	default:
		return fmt.Errorf("window mode: %w: %q", errors.ErrBadEnumValue, m)
	}
}

// Store is the storage of the exported Pi-hole statistics.  Publications and
// snapshots are serialized, so that a snapshot never contains a partially
// updated family.
type Store struct {
	// mu protects registry and families from concurrent publications and
	// snapshots.
	mu *sync.Mutex

	registry *prometheus.Registry

	// families are indexed by [aggregate.Family].
	families []*prometheus.GaugeVec

	mode WindowMode
}

// StoreConfig is the configuration structure for a *Store.
type StoreConfig struct {
	// Namespace is the namespace of all families.  It must not be empty.
	Namespace string

	// WindowMode defines how the windowed families are updated.  It must be
	// valid.
	WindowMode WindowMode
}

// NewStore returns a new properly initialized *Store with all families
// registered.  c must not be nil and must be valid.
func NewStore(c *StoreConfig) (s *Store, err error) {
	s = &Store{
		mu:       &sync.Mutex{},
		registry: prometheus.NewRegistry(),
		mode:     c.WindowMode,
	}

	var collectors container.KeyValues[string, prometheus.Collector]
	for _, f := range aggregate.Families() {
		desc := familyDescs[f]
		vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:      desc.name,
			Namespace: c.Namespace,
			Help:      desc.help,
		}, desc.labels)

		s.families = append(s.families, vec)
		collectors = append(collectors, container.KeyValue[string, prometheus.Collector]{
			Key:   desc.name,
			Value: vec,
		})
	}

	err = register(s.registry, collectors)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// type check
var _ prometheus.Gatherer = (*Store)(nil)

// Gather implements the [prometheus.Gatherer] interface for *Store.  It is the
// same as [Store.Snapshot].
func (s *Store) Gather() (mfs []*io_prometheus_client.MetricFamily, err error) {
	return s.Snapshot()
}

// Publish validates entries, applies them, and returns the snapshot of all
// families taken right after that.  If any entry is invalid, the store is not
// changed.  The returned families may be used after the store is changed
// again.
func (s *Store) Publish(
	_ context.Context,
	entries []aggregate.Entry,
) (mfs []*io_prometheus_client.MetricFamily, err error) {
	err = validateEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("validating entries: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == WindowModeReplace {
		for _, f := range aggregate.Families() {
			if f.IsWindowed() {
				s.families[f].Reset()
			}
		}
	}

	for _, e := range entries {
		s.families[e.Family].WithLabelValues(e.Labels...).Set(float64(e.Value))
	}

	return s.gather()
}

// Snapshot returns the current state of all families.
func (s *Store) Snapshot() (mfs []*io_prometheus_client.MetricFamily, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gather()
}

// gather returns the current state of all families.  s.mu must be locked.
func (s *Store) gather() (mfs []*io_prometheus_client.MetricFamily, err error) {
	mfs, err = s.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering: %w", err)
	}

	return mfs, nil
}

// validateEntries returns an error if any of the entries cannot be applied to
// the store without a panic.
func validateEntries(entries []aggregate.Entry) (err error) {
	var errs []error
	for i, e := range entries {
		err = validateEntry(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("at index %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// validateEntry returns an error if e doesn't fit its family.
func validateEntry(e aggregate.Entry) (err error) {
	if !e.Family.IsValid() {
		return fmt.Errorf("family: %w: %d", errors.ErrBadEnumValue, e.Family)
	}

	desc := familyDescs[e.Family]
	if got, want := len(e.Labels), len(desc.labels); got != want {
		return fmt.Errorf("family %q: got %d labels, want %d", desc.name, got, want)
	}

	for i, l := range e.Labels {
		if !model.LabelValue(l).IsValid() {
			return fmt.Errorf("family %q: label %q: invalid value %q", desc.name, desc.labels[i], l)
		}
	}

	return nil
}
