// Package pextest contains simple mocks for common interfaces and other test
// utilities.
package pextest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/require"
)

// Timeout is the common timeout for tests.
const Timeout = 1 * time.Second

// SID is the session ID returned by [Pihole] for the correct password.
const SID = "test-sid"

// Password is the password accepted by [Pihole].
const Password = "correct horse battery staple"

// SummaryJSON is a response to GET /api/stats/summary for tests.
const SummaryJSON = `{
  "queries": {
    "total": 100,
    "blocked": 10,
    "percent_blocked": 10.0,
    "unique_domains": 42,
    "forwarded": 80,
    "cached": 10,
    "types": {"A": 60, "AAAA": 30, "HTTPS": 10},
    "status": {"FORWARDED": 80, "CACHE": 10, "GRAVITY": 10},
    "replies": {"IP": 85, "NODATA": 15}
  },
  "clients": {"active": 3, "total": 5},
  "gravity": {"domains_being_blocked": 123456, "last_update": 1700000000},
  "took": 0.001
}`

// UpstreamsJSON is a response to GET /api/stats/upstreams for tests.
const UpstreamsJSON = `{
  "upstreams": [
    {"ip": "1.1.1.1", "name": "cloudflare", "port": 53, "count": 80}
  ],
  "forwarded_queries": 80,
  "total_queries": 100
}`

// QueriesJSON is a response to GET /api/queries for tests.  It contains two
// queries resolved by 1.1.1.1 and one cached query.
const QueriesJSON = `{
  "queries": [{
    "type": "A",
    "status": "FORWARDED",
    "reply": {"type": "IP", "time": 0.01},
    "client": {"ip": "192.168.1.2", "name": null},
    "upstream": "1.1.1.1"
  }, {
    "type": "AAAA",
    "status": "FORWARDED",
    "reply": {"type": "IP", "time": 0.01},
    "client": {"ip": "192.168.1.3", "name": null},
    "upstream": "1.1.1.1"
  }, {
    "type": "A",
    "status": "CACHE",
    "reply": {"type": "IP", "time": 0.0},
    "client": {"ip": "192.168.1.2", "name": null},
    "upstream": null
  }],
  "recordsFiltered": 3,
  "recordsTotal": 3
}`

// authOKJSON is the successful response to POST /api/auth.
const authOKJSON = `{"session":{"valid":true,"totp":false,"sid":"` + SID +
	`","validity":1800,"message":"password correct"}}`

// authFailJSON is the response to POST /api/auth with a wrong password.
const authFailJSON = `{"session":{"valid":false,"totp":false,"sid":null,` +
	`"validity":-1,"message":"password incorrect"}}`

// Pihole is a fake Pi-hole API handler.  Nil handler fields are replaced with
// default ones that respond with the constants from this package.  A nil
// *Pihole is not valid.
type Pihole struct {
	OnAuth      http.HandlerFunc
	OnLogout    http.HandlerFunc
	OnSummary   http.HandlerFunc
	OnUpstreams http.HandlerFunc
	OnQueries   http.HandlerFunc
}

// type check
var _ http.Handler = (*Pihole)(nil)

// ServeHTTP implements the [http.Handler] interface for *Pihole.
func (p *Pihole) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var h http.HandlerFunc
	switch r.Method + " " + r.URL.Path {
	case "POST /api/auth":
		h = p.OnAuth
		if h == nil {
			h = serveAuth
		}
	case "DELETE /api/auth":
		h = p.OnLogout
		if h == nil {
			h = func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
		}
	case "GET /api/stats/summary":
		h = withDefault(p.OnSummary, SummaryJSON)
	case "GET /api/stats/upstreams":
		h = withDefault(p.OnUpstreams, UpstreamsJSON)
	case "GET /api/queries":
		h = withDefault(p.OnQueries, QueriesJSON)
	default:
		h = http.NotFound
	}

	h(w, r)
}

// withDefault returns h if it's not nil, otherwise it returns a handler that
// writes body.
func withDefault(h http.HandlerFunc, body string) (res http.HandlerFunc) {
	if h != nil {
		return h
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	}
}

// serveAuth accepts [Password] and rejects everything else.
func serveAuth(w http.ResponseWriter, r *http.Request) {
	pt := testutil.PanicT{}

	b, err := io.ReadAll(r.Body)
	require.NoError(pt, err)

	if string(b) == `{"password":"`+Password+`"}` {
		WriteJSON(w, http.StatusOK, authOKJSON)
	} else {
		WriteJSON(w, http.StatusUnauthorized, authFailJSON)
	}
}

// WriteJSON writes body with the given status code and a JSON content type.
func WriteJSON(w http.ResponseWriter, code int, body string) {
	pt := testutil.PanicT{}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	_, err := io.WriteString(w, body)
	require.NoError(pt, err)
}

// NewPiholeServer starts a test server with h, closes it on cleanup, and
// returns its URL.
func NewPiholeServer(tb testing.TB, h http.Handler) (u *url.URL) {
	tb.Helper()

	srv := httptest.NewServer(h)
	tb.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(tb, err)

	return u
}
