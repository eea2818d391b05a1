package websvc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/osutil"
)

// server contains an *http.Server as well as entities and data associated with
// it.
type server struct {
	// mu protects http, logger, listener, and url.
	mu       *sync.Mutex
	http     *http.Server
	logger   *slog.Logger
	listener net.Listener
	url      *url.URL

	initialAddr string
}

// loggerKeyServer is the key used by [server] to identify itself.
const loggerKeyServer = "server"

// serverConfig is the configuration of a server.
type serverConfig struct {
	// BaseLogger is used to create the initial logger for the server.  It must
	// not be nil.
	BaseLogger *slog.Logger

	// Handler is the HTTP handler for this server.  It must not be nil.
	Handler http.Handler

	// InitialAddress is the initial address for the server in the host:port
	// form.  It may have a zero port, in which case the real port will be set
	// in [server.listen].
	InitialAddress string

	// Timeout is the timeout for reading requests and writing responses.  It
	// must be positive.
	Timeout time.Duration
}

// newServer returns a *server that is ready to serve HTTP queries.  The TCP
// listener is not started.  c must not be nil and must be valid.
func newServer(c *serverConfig) (s *server) {
	u := &url.URL{
		Scheme: urlutil.SchemeHTTP,
		Host:   c.InitialAddress,
	}

	logger := c.BaseLogger.With(loggerKeyServer, u)

	return &server{
		mu: &sync.Mutex{},
		http: &http.Server{
			Handler:           c.Handler,
			ReadTimeout:       c.Timeout,
			ReadHeaderTimeout: c.Timeout,
			WriteTimeout:      c.Timeout,
			IdleTimeout:       c.Timeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
		},
		logger: logger,
		url:    u,

		initialAddr: c.InitialAddress,
	}
}

// localAddr returns the local address of the server if the server has started
// listening; otherwise, it returns nil.
func (s *server) localAddr() (addr net.Addr) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l := s.listener; l != nil {
		return l.Addr()
	}

	return nil
}

// listen starts the TCP listener of s.  baseLogger is used as a base logger
// for s.
func (s *server) listen(ctx context.Context, baseLogger *slog.Logger) (err error) {
	lc := &net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.initialAddr)
	if err != nil {
		return fmt.Errorf("listening tcp: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listener = listener

	// Reassign the address in case the port was zero.
	s.url.Host = listener.Addr().String()
	s.logger = baseLogger.With(loggerKeyServer, s.url)
	s.http.ErrorLog = slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug)

	return nil
}

// serve serves HTTP on the listener of s, which must have been started with
// [server.listen].  If s fails to serve with anything other than
// [http.ErrServerClosed], it logs the error and exits the process.  It is
// intended to be used as a goroutine.
func (s *server) serve(ctx context.Context) {
	s.mu.Lock()
	l, listener := s.logger, s.listener
	s.mu.Unlock()

	defer slogutil.RecoverAndExit(ctx, l, osutil.ExitCodeFailure)

	l.InfoContext(ctx, "starting")
	err := s.http.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.ErrorContext(ctx, "serving", slogutil.KeyError, err)

		panic(fmt.Errorf("websvc: serving: %w", err))
	}
}

// shutdown shuts s down.
func (s *server) shutdown(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	err = s.http.Shutdown(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("shutting down server %s: %w", s.url, err))
	}

	// Close the listener separately, as it might not have been closed if the
	// context has been canceled.
	//
	// NOTE:  The listener could remain uninitialized if [server.listen] failed.
	if l := s.listener; l != nil {
		err = l.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("closing listener for server %s: %w", s.url, err))
		}
	}

	return errors.Join(errs...)
}
