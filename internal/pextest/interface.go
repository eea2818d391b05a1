package pextest

import (
	"context"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/aggregate"
	"github.com/AdguardTeam/PiholeExporter/internal/collector"
	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
	"github.com/AdguardTeam/PiholeExporter/internal/websvc"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/prometheus/client_model/go"
)

// Interface Mocks
//
// Keep entities within a module/package in alphabetic order.

// Package collector

// type check
var _ collector.API = (*API)(nil)

// API is a [collector.API] for tests.
type API struct {
	OnQueries   func(ctx context.Context, from, until time.Time) (q *piholeapi.Queries, err error)
	OnSummary   func(ctx context.Context) (s *piholeapi.Summary, err error)
	OnUpstreams func(ctx context.Context) (u *piholeapi.Upstreams, err error)
}

// Queries implements the [collector.API] interface for *API.
func (a *API) Queries(ctx context.Context, from, until time.Time) (q *piholeapi.Queries, err error) {
	return a.OnQueries(ctx, from, until)
}

// Summary implements the [collector.API] interface for *API.
func (a *API) Summary(ctx context.Context) (s *piholeapi.Summary, err error) {
	return a.OnSummary(ctx)
}

// Upstreams implements the [collector.API] interface for *API.
func (a *API) Upstreams(ctx context.Context) (u *piholeapi.Upstreams, err error) {
	return a.OnUpstreams(ctx)
}

// type check
var _ collector.Metrics = (*CollectorMetrics)(nil)

// CollectorMetrics is a [collector.Metrics] for tests.
type CollectorMetrics struct {
	OnObserveCollect func(ctx context.Context, dur time.Duration, failedStage string)
}

// ObserveCollect implements the [collector.Metrics] interface for
// *CollectorMetrics.
func (m *CollectorMetrics) ObserveCollect(ctx context.Context, dur time.Duration, failedStage string) {
	m.OnObserveCollect(ctx, dur, failedStage)
}

// type check
var _ collector.Store = (*Store)(nil)

// Store is a [collector.Store] for tests.
type Store struct {
	OnPublish func(
		ctx context.Context,
		entries []aggregate.Entry,
	) (mfs []*io_prometheus_client.MetricFamily, err error)
}

// Publish implements the [collector.Store] interface for *Store.
func (s *Store) Publish(
	ctx context.Context,
	entries []aggregate.Entry,
) (mfs []*io_prometheus_client.MetricFamily, err error) {
	return s.OnPublish(ctx, entries)
}

// Package errcoll

// type check
var _ errcoll.Interface = (*ErrorCollector)(nil)

// ErrorCollector is an [errcoll.Interface] for tests.
type ErrorCollector struct {
	OnCollect func(ctx context.Context, err error)
}

// Collect implements the [errcoll.Interface] interface for *ErrorCollector.
func (c *ErrorCollector) Collect(ctx context.Context, err error) {
	c.OnCollect(ctx, err)
}

// NewErrorCollector returns a new *ErrorCollector all methods of which panic.
func NewErrorCollector() (c *ErrorCollector) {
	return &ErrorCollector{
		OnCollect: func(_ context.Context, err error) {
			panic(testutil.UnexpectedCall(err))
		},
	}
}

// Package timeutil

// type check
var _ timeutil.Clock = (*Clock)(nil)

// Clock is a [timeutil.Clock] for tests.
type Clock struct {
	OnNow func() (now time.Time)
}

// Now implements the [timeutil.Clock] interface for *Clock.
func (c *Clock) Now() (now time.Time) {
	return c.OnNow()
}

// NewFixedClock returns a *Clock that always returns now.
func NewFixedClock(now time.Time) (c *Clock) {
	return &Clock{
		OnNow: func() (n time.Time) { return now },
	}
}

// Package websvc

// type check
var _ websvc.Collector = (*Collector)(nil)

// Collector is a [websvc.Collector] for tests.
type Collector struct {
	OnCollect func(ctx context.Context) (b []byte, err error)
}

// Collect implements the [websvc.Collector] interface for *Collector.
func (c *Collector) Collect(ctx context.Context) (b []byte, err error) {
	return c.OnCollect(ctx)
}
