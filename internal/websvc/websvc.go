// Package websvc contains the HTTP service of the exporter, which serves the
// collected metrics and the health check.
package websvc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/pexhttp"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/httputil"
	"github.com/AdguardTeam/golibs/service"
)

// Collector is the interface for the source of the metrics snapshots.
type Collector interface {
	// Collect performs a collection cycle and returns the snapshot encoded in
	// the text exposition format.
	Collect(ctx context.Context) (b []byte, err error)
}

// Config is the configuration structure for the HTTP service.
type Config struct {
	// Logger is used for logging the operation of the service.  It must not be
	// nil.
	Logger *slog.Logger

	// Collector is used to serve the metrics.  It must not be nil.
	Collector Collector

	// Address is the address to listen on in the host:port form.
	Address string

	// Timeout is the timeout for reading requests and writing responses.  It
	// must be positive and must be greater than the duration of a collection
	// cycle.
	Timeout time.Duration
}

// Service is the HTTP service of the exporter.
type Service struct {
	logger    *slog.Logger
	collector Collector
	srv       *server
}

// New returns a new properly initialized *Service.  c must not be nil and must
// be valid.
func New(c *Config) (svc *Service) {
	svc = &Service{
		logger:    c.Logger,
		collector: c.Collector,
	}

	svc.srv = newServer(&serverConfig{
		BaseLogger:     c.Logger,
		Handler:        svc.route(),
		InitialAddress: c.Address,
		Timeout:        c.Timeout,
	})

	return svc
}

// Path pattern constants.
const (
	PathPatternHealthCheck = "/healthz"
	PathPatternMetrics     = "/metrics"
)

// Route pattern constants.
const (
	routePatternHealthCheck = http.MethodGet + " " + PathPatternHealthCheck
	routePatternMetrics     = http.MethodGet + " " + PathPatternMetrics
)

// route returns the handler with all routes of svc.
func (svc *Service) route() (h http.Handler) {
	mux := http.NewServeMux()

	var router httputil.Router = mux
	router.Handle(
		routePatternHealthCheck,
		httputil.NewLogMiddleware(svc.logger, slogutil.LevelTrace).Wrap(http.HandlerFunc(serveHealthCheck)),
	)
	router.Handle(
		routePatternMetrics,
		httputil.NewLogMiddleware(svc.logger, slog.LevelDebug).Wrap(http.HandlerFunc(svc.serveMetrics)),
	)

	return httputil.ServerHeaderMiddleware(pexhttp.UserAgent()).Wrap(mux)
}

// type check
var _ service.Interface = (*Service)(nil)

// Start implements the [service.Interface] interface for *Service.  It starts
// listening synchronously and serves in a separate goroutine.
func (svc *Service) Start(ctx context.Context) (err error) {
	err = svc.srv.listen(ctx, svc.logger)
	if err != nil {
		return fmt.Errorf("starting websvc: %w", err)
	}

	go svc.srv.serve(context.WithoutCancel(ctx))

	return nil
}

// Shutdown implements the [service.Interface] interface for *Service.
func (svc *Service) Shutdown(ctx context.Context) (err error) {
	err = svc.srv.shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutting down websvc: %w", err)
	}

	svc.logger.InfoContext(ctx, "shut down")

	return nil
}

// LocalAddr returns the address the service listens on, or nil if it hasn't
// been started.
func (svc *Service) LocalAddr() (addr net.Addr) {
	return svc.srv.localAddr()
}
