// Package piholeapi contains the client for the HTTP administrative API of a
// Pi-hole instance as well as the schemas of its responses.
//
// See https://docs.pi-hole.net/api/.
package piholeapi

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
)

// API paths relative to the /api/ prefix.
const (
	PathAuth         = "auth"
	PathQueries      = "queries"
	PathStatsSummary = "stats/summary"
	PathUpstreams    = "stats/upstreams"
)

// HeaderSID is the name of the header that carries the session ID.
const HeaderSID = "sid"

// QueriesLength is the maximum number of queries requested for a single
// window.
const QueriesLength = 1_000_000

// ErrTimeout is matched by a *FetchError caused by a timeout.
const ErrTimeout errors.Error = "timeout"

// NewBaseURL returns the base URL of the Pi-hole instance located at host.
// host may contain a port.
func NewBaseURL(host string, useTLS bool) (u *url.URL) {
	u = &url.URL{
		Scheme: urlutil.SchemeHTTP,
		Host:   host,
	}

	if useTLS {
		u.Scheme = urlutil.SchemeHTTPS
	}

	return u
}

// AuthError is returned by [Client.Authenticate] when the session cannot be
// obtained.
type AuthError struct {
	Err error
}

// type check
var _ error = (*AuthError)(nil)

// Error implements the error interface for *AuthError.
func (err *AuthError) Error() (msg string) {
	return fmt.Sprintf("authenticating: %s", err.Err)
}

// type check
var _ errors.Wrapper = (*AuthError)(nil)

// Unwrap implements the [errors.Wrapper] interface for *AuthError.
func (err *AuthError) Unwrap() (unwrapped error) {
	return err.Err
}

// FetchError is returned by the getters of [Client] when a resource cannot be
// fetched or decoded.
type FetchError struct {
	Err error

	// Path is the API path of the resource.
	Path string

	// Timeout is true if the request has timed out.
	Timeout bool
}

// newFetchError wraps err into a *FetchError for path.
func newFetchError(path string, err error) (fetchErr *FetchError) {
	return &FetchError{
		Err:     err,
		Path:    path,
		Timeout: isTimeout(err),
	}
}

// isTimeout returns true if err is caused by a deadline or a network timeout.
func isTimeout(err error) (ok bool) {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// type check
var _ error = (*FetchError)(nil)

// Error implements the error interface for *FetchError.
func (err *FetchError) Error() (msg string) {
	if err.Timeout {
		return fmt.Sprintf("fetching %q: %s: %s", err.Path, ErrTimeout, err.Err)
	}

	return fmt.Sprintf("fetching %q: %s", err.Path, err.Err)
}

// type check
var _ errors.Wrapper = (*FetchError)(nil)

// Unwrap implements the [errors.Wrapper] interface for *FetchError.
func (err *FetchError) Unwrap() (unwrapped error) {
	return err.Err
}

// Is makes *FetchError match [ErrTimeout] when it has been caused by a timeout.
func (err *FetchError) Is(target error) (ok bool) {
	return err.Timeout && target == ErrTimeout
}

// type check
var _ errcoll.SentryReportableError = (*FetchError)(nil)

// IsSentryReportable implements the [errcoll.SentryReportableError] interface
// for *FetchError.  Timeouts are not reported.
func (err *FetchError) IsSentryReportable() (ok bool) {
	return !err.Timeout
}
