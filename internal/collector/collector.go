// Package collector contains the collector of the Pi-hole statistics, which
// performs a full fetch-and-publish cycle on every scrape.
package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/aggregate"
	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// API is the interface for the Pi-hole API used by the collector.
type API interface {
	// Summary returns the summary statistics.
	Summary(ctx context.Context) (s *piholeapi.Summary, err error)

	// Upstreams returns the statistics of the upstream servers.
	Upstreams(ctx context.Context) (u *piholeapi.Upstreams, err error)

	// Queries returns the query log records between from and until.
	Queries(ctx context.Context, from, until time.Time) (q *piholeapi.Queries, err error)
}

// type check
var _ API = (*piholeapi.Client)(nil)

// Store is the interface for the storage of the collected statistics.
type Store interface {
	// Publish applies entries and returns the snapshot of the storage right
	// after that.  If err is not nil, the storage must not be changed.
	Publish(
		ctx context.Context,
		entries []aggregate.Entry,
	) (mfs []*io_prometheus_client.MetricFamily, err error)
}

// Stages of a collection cycle, as reported to [Metrics].
const (
	StageFetchSummary   = "fetch_summary"
	StageFetchUpstreams = "fetch_upstreams"
	StageFetchQueries   = "fetch_queries"
	StagePublish        = "publish"
	StageEncode         = "encode"
)

// Config is the configuration structure for a *Collector.
type Config struct {
	// Logger is used for logging the collection cycles.  It must not be nil.
	Logger *slog.Logger

	// API is used to fetch the statistics.  It must not be nil.
	API API

	// Store is where the statistics are published.  It must not be nil.
	Store Store

	// Metrics is used for the collection of the collector statistics.  It
	// must not be nil.
	Metrics Metrics

	// ErrColl is used to report failed cycles.  It must not be nil.
	ErrColl errcoll.Interface

	// Clock is used to compute the query log window.  It must not be nil.
	Clock timeutil.Clock

	// Gatherer, if not nil, provides additional families appended to every
	// snapshot, for example the metrics of the exporter itself.
	Gatherer prometheus.Gatherer
}

// Collector performs the collection cycles.  It is safe for concurrent use.
type Collector struct {
	logger   *slog.Logger
	api      API
	store    Store
	metrics  Metrics
	errColl  errcoll.Interface
	clock    timeutil.Clock
	gatherer prometheus.Gatherer
}

// New returns a new properly initialized *Collector.  c must not be nil and
// must be valid.
func New(c *Config) (col *Collector) {
	return &Collector{
		logger:   c.Logger,
		api:      c.API,
		store:    c.Store,
		metrics:  c.Metrics,
		errColl:  c.ErrColl,
		clock:    c.Clock,
		gatherer: c.Gatherer,
	}
}

// Collect performs a single collection cycle and returns the encoded snapshot
// in the text exposition format.  All resources are fetched before the store is
// changed, so a failed fetch doesn't affect the snapshot.
func (c *Collector) Collect(ctx context.Context) (b []byte, err error) {
	start := c.clock.Now()

	var stage string
	defer func() {
		if err == nil {
			stage = ""
		} else {
			errcoll.Collect(ctx, c.errColl, c.logger, slog.LevelWarn, "collecting", err)
		}

		c.metrics.ObserveCollect(ctx, c.clock.Now().Sub(start), stage)
	}()

	in, stage, err := c.fetch(ctx, aggregate.NewWindow(start))
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return nil, err
	}

	entries := aggregate.Aggregate(in)

	stage = StagePublish
	mfs, err := c.store.Publish(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("publishing: %w", err)
	}

	stage = StageEncode
	b, err = c.encode(mfs)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "collected", "entries", len(entries), "bytes", len(b))

	return b, nil
}

// fetch fetches all resources for a single cycle.  If err is not nil, stage is
// the stage that has failed.
func (c *Collector) fetch(
	ctx context.Context,
	w aggregate.Window,
) (in *aggregate.Input, stage string, err error) {
	s, err := c.api.Summary(ctx)
	if err != nil {
		return nil, StageFetchSummary, err
	}

	ups, err := c.api.Upstreams(ctx)
	if err != nil {
		return nil, StageFetchUpstreams, err
	}

	q, err := c.api.Queries(ctx, w.Start, w.End)
	if err != nil {
		return nil, StageFetchQueries, err
	}

	if n := q.RecordsFiltered; n != nil && *n > uint64(len(q.Queries)) {
		c.logger.WarnContext(
			ctx,
			"query log window truncated",
			"window", w,
			"matched", *n,
			"received", len(q.Queries),
		)
	}

	return &aggregate.Input{
		Summary:   s,
		Upstreams: ups,
		Queries:   q,
	}, "", nil
}

// encode encodes mfs and the families of c.gatherer, if any.  Any error
// returned has the underlying type *EncodeError.
func (c *Collector) encode(mfs []*io_prometheus_client.MetricFamily) (b []byte, err error) {
	if c.gatherer != nil {
		var extra []*io_prometheus_client.MetricFamily
		extra, err = c.gatherer.Gather()
		if err != nil {
			return nil, &EncodeError{Err: fmt.Errorf("gathering: %w", err)}
		}

		mfs = append(mfs, extra...)
	}

	buf := &bytes.Buffer{}
	enc := expfmt.NewEncoder(buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		err = enc.Encode(mf)
		if err != nil {
			return nil, &EncodeError{
				Err:    err,
				Family: mf.GetName(),
			}
		}
	}

	return buf.Bytes(), nil
}

// EncodeError is returned by [Collector.Collect] when the snapshot cannot be
// encoded.
type EncodeError struct {
	Err error

	// Family is the name of the family that could not be encoded, if any.
	Family string
}

// type check
var _ error = (*EncodeError)(nil)

// Error implements the error interface for *EncodeError.
func (err *EncodeError) Error() (msg string) {
	if err.Family == "" {
		return fmt.Sprintf("encoding: %s", err.Err)
	}

	return fmt.Sprintf("encoding family %q: %s", err.Family, err.Err)
}

// type check
var _ errors.Wrapper = (*EncodeError)(nil)

// Unwrap implements the [errors.Wrapper] interface for *EncodeError.
func (err *EncodeError) Unwrap() (unwrapped error) {
	return err.Err
}
