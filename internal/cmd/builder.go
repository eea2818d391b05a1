package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/collector"
	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/PiholeExporter/internal/metrics"
	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
	"github.com/AdguardTeam/PiholeExporter/internal/version"
	"github.com/AdguardTeam/PiholeExporter/internal/websvc"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/prometheus/client_golang/prometheus"
)

// shutdownTimeout is the default shutdown timeout for all services.
const shutdownTimeout = 5 * time.Second

// webTimeoutOverhead is added to the timeout of the web service on top of the
// worst-case duration of a collection cycle.
const webTimeoutOverhead = 10 * time.Second

// builder contains the logic of configuring and combining together the parts
// of the exporter.
type builder struct {
	// The fields below are initialized immediately on construction.  Keep them
	// sorted.

	baseLogger *slog.Logger
	env        *environment
	errColl    errcoll.Interface
	logger     *slog.Logger
	selfReg    *prometheus.Registry
	sigHdlr    *service.SignalHandler

	// The fields below are initialized later by calling the builder's methods.
	// Keep them sorted.

	api       *piholeapi.Client
	collector *collector.Collector
	store     *metrics.Store
	webSvc    *websvc.Service
}

// builderConfig contains the initial information for a *builder.
type builderConfig struct {
	// envs contains the environment variables and the flags.  It must not be
	// nil and must be valid.
	envs *environment

	// baseLogger is used to create loggers for other entities.  It must not
	// be nil.
	baseLogger *slog.Logger

	// errColl is used to collect errors in the exporter.  It must not be nil.
	errColl errcoll.Interface
}

// newBuilder returns a new properly initialized *builder.  c must not be nil.
func newBuilder(c *builderConfig) (b *builder) {
	return &builder{
		baseLogger: c.baseLogger,
		env:        c.envs,
		errColl:    c.errColl,
		logger:     c.baseLogger.With(slogutil.KeyPrefix, "builder"),
		selfReg:    prometheus.NewRegistry(),
		sigHdlr: service.NewSignalHandler(&service.SignalHandlerConfig{
			Logger:          c.baseLogger.With(slogutil.KeyPrefix, service.SignalHandlerPrefix),
			ShutdownTimeout: shutdownTimeout,
		}),
	}
}

// initAPI initializes the Pi-hole API client and, if a password is set,
// authenticates it.  An authentication failure stops the initialization.
func (b *builder) initAPI(ctx context.Context) (err error) {
	useTLS := bool(b.env.PiholeTLS)
	baseURL := piholeapi.NewBaseURL(b.env.PiholeHost, useTLS)

	b.api = piholeapi.NewClient(&piholeapi.ClientConfig{
		Logger:      b.baseLogger.With(slogutil.KeyPrefix, "piholeapi"),
		BaseURL:     baseURL,
		Timeout:     time.Duration(b.env.PiholeTimeout),
		MaxRespSize: b.env.MaxRespSize,
	})

	if b.env.PiholePassword != "" {
		err = b.api.Authenticate(ctx, string(b.env.PiholePassword))
		if err != nil {
			// Don't wrap the error, because it's informative enough as is.
			return err
		}
	}

	b.sigHdlr.AddService(b.api)

	b.logger.DebugContext(
		ctx,
		"initialized pihole api client",
		"url", baseURL,
		"authenticated", b.env.PiholePassword != "",
	)

	return nil
}

// initStore initializes the storage of the exported statistics.
func (b *builder) initStore(ctx context.Context) (err error) {
	b.store, err = metrics.NewStore(&metrics.StoreConfig{
		Namespace:  metrics.NamespacePihole,
		WindowMode: metrics.WindowMode(b.env.WindowMode),
	})
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}

	b.logger.DebugContext(ctx, "initialized store", "window_mode", b.env.WindowMode)

	return nil
}

// initCollector initializes the collector along with the metrics of the
// exporter itself.  [builder.initAPI] and [builder.initStore] must be called
// before this method.
func (b *builder) initCollector(ctx context.Context) (err error) {
	mtrc, err := metrics.NewCollector(metrics.NamespaceExporter, b.selfReg)
	if err != nil {
		return fmt.Errorf("initializing collector metrics: %w", err)
	}

	err = metrics.SetUpGauge(
		b.selfReg,
		metrics.NamespaceExporter,
		version.Version(),
		version.Revision(),
		version.Branch(),
	)
	if err != nil {
		return fmt.Errorf("initializing up gauge: %w", err)
	}

	b.collector = collector.New(&collector.Config{
		Logger:   b.baseLogger.With(slogutil.KeyPrefix, "collector"),
		API:      b.api,
		Store:    b.store,
		Metrics:  mtrc,
		ErrColl:  b.errColl,
		Clock:    timeutil.SystemClock{},
		Gatherer: b.selfReg,
	})

	b.logger.DebugContext(ctx, "initialized collector")

	return nil
}

// initWeb initializes and starts the HTTP service.  [builder.initCollector]
// must be called before this method.
func (b *builder) initWeb(ctx context.Context) (err error) {
	addr := netutil.JoinHostPort(b.env.ExporterHost, b.env.ExporterPort)

	// A collection cycle performs three sequential requests.
	timeout := 3*time.Duration(b.env.PiholeTimeout) + webTimeoutOverhead

	b.webSvc = websvc.New(&websvc.Config{
		Logger:    b.baseLogger.With(slogutil.KeyPrefix, "websvc"),
		Collector: b.collector,
		Address:   addr,
		Timeout:   timeout,
	})

	err = b.webSvc.Start(ctx)
	if err != nil {
		return fmt.Errorf("starting web service: %w", err)
	}

	b.sigHdlr.AddService(b.webSvc)

	b.logger.InfoContext(ctx, "serving metrics", "addr", b.webSvc.LocalAddr())

	return nil
}

// handleSignals blocks until the exporter is stopped and returns the exit code.
func (b *builder) handleSignals(ctx context.Context) (code osutil.ExitCode) {
	return b.sigHdlr.Handle(ctx)
}
