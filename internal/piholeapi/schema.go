package piholeapi

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/validate"
)

// authRequest is the body of the POST /api/auth request.
type authRequest struct {
	Password string `json:"password"`
}

// authResponse is the body of the response to the POST /api/auth request.
type authResponse struct {
	Session *session `json:"session"`
}

// session is the session information within [authResponse].
type session struct {
	SID     *string `json:"sid"`
	Message *string `json:"message"`
	Valid   bool    `json:"valid"`
}

// type check
var _ validate.Interface = (*authResponse)(nil)

// Validate implements the [validate.Interface] interface for *authResponse.
func (resp *authResponse) Validate() (err error) {
	s := resp.Session
	if s == nil {
		return fmt.Errorf("session: %w", errors.ErrNoValue)
	}

	if !s.Valid {
		msg := "no message"
		if s.Message != nil {
			msg = *s.Message
		}

		return fmt.Errorf("session is not valid: %s", msg)
	}

	if s.SID == nil {
		return fmt.Errorf("session.sid: %w", errors.ErrNoValue)
	}

	return validate.NotEmpty("session.sid", *s.SID)
}

// Summary is the response of the GET /api/stats/summary request.  After a
// successful validation, all pointer fields are non-nil.
type Summary struct {
	Queries *QueryStats   `json:"queries"`
	Clients *ClientStats  `json:"clients"`
	Gravity *GravityStats `json:"gravity"`
}

// QueryStats are the rolling 24-hour query counters of a [Summary].
type QueryStats struct {
	// Types are the numbers of queries by query type, such as "A" or "AAAA".
	Types map[string]uint64 `json:"types"`

	// Status are the numbers of queries by status, such as "GRAVITY".
	Status map[string]uint64 `json:"status"`

	// Replies are the numbers of replies by reply type, such as "NODATA".
	Replies map[string]uint64 `json:"replies"`

	Total         *uint64 `json:"total"`
	Blocked       *uint64 `json:"blocked"`
	UniqueDomains *uint64 `json:"unique_domains"`
	Forwarded     *uint64 `json:"forwarded"`
	Cached        *uint64 `json:"cached"`
}

// ClientStats are the client counters of a [Summary].
type ClientStats struct {
	Active *uint64 `json:"active"`
	Total  *uint64 `json:"total"`
}

// GravityStats are the blocklist counters of a [Summary].
type GravityStats struct {
	DomainsBeingBlocked *uint64 `json:"domains_being_blocked"`
}

// type check
var _ validate.Interface = (*Summary)(nil)

// Validate implements the [validate.Interface] interface for *Summary.
func (s *Summary) Validate() (err error) {
	var errs []error
	if q := s.Queries; q == nil {
		errs = append(errs, fmt.Errorf("queries: %w", errors.ErrNoValue))
	} else {
		errs = append(
			errs,
			requireMap("queries.types", q.Types),
			requireMap("queries.status", q.Status),
			requireMap("queries.replies", q.Replies),
			requireValue("queries.total", q.Total),
			requireValue("queries.blocked", q.Blocked),
			requireValue("queries.unique_domains", q.UniqueDomains),
			requireValue("queries.forwarded", q.Forwarded),
			requireValue("queries.cached", q.Cached),
		)
	}

	if c := s.Clients; c == nil {
		errs = append(errs, fmt.Errorf("clients: %w", errors.ErrNoValue))
	} else {
		errs = append(
			errs,
			requireValue("clients.active", c.Active),
			requireValue("clients.total", c.Total),
		)
	}

	if g := s.Gravity; g == nil {
		errs = append(errs, fmt.Errorf("gravity: %w", errors.ErrNoValue))
	} else {
		errs = append(errs, requireValue("gravity.domains_being_blocked", g.DomainsBeingBlocked))
	}

	return errors.Join(errs...)
}

// Upstreams is the response of the GET /api/stats/upstreams request.
type Upstreams struct {
	Upstreams []*Upstream `json:"upstreams"`
}

// Upstream is the information about a single upstream resolver.  Pseudo
// upstreams, such as the blocklist and the cache, have a port of -1.
type Upstream struct {
	IP    *string `json:"ip"`
	Name  *string `json:"name"`
	Port  *int    `json:"port"`
	Count *uint64 `json:"count"`
}

// type check
var _ validate.Interface = (*Upstreams)(nil)

// Validate implements the [validate.Interface] interface for *Upstreams.
func (u *Upstreams) Validate() (err error) {
	if u.Upstreams == nil {
		return fmt.Errorf("upstreams: %w", errors.ErrNoValue)
	}

	var errs []error
	for i, up := range u.Upstreams {
		if up == nil {
			errs = append(errs, fmt.Errorf("upstreams: at index %d: %w", i, errors.ErrNoValue))

			continue
		}

		err = errors.Join(
			requireValue("ip", up.IP),
			requireValue("name", up.Name),
			requireValue("port", up.Port),
			requireValue("count", up.Count),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("upstreams: at index %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// Queries is the response of the GET /api/queries request.
type Queries struct {
	Queries []*Query `json:"queries"`

	// RecordsFiltered is the number of queries matching the request, which can
	// be greater than the number of returned queries.
	RecordsFiltered *uint64 `json:"recordsFiltered"`
}

// Query is a single record of the query log.
type Query struct {
	Type   *string      `json:"type"`
	Status *string      `json:"status"`
	Reply  *QueryReply  `json:"reply"`
	Client *QueryClient `json:"client"`

	// Upstream is the upstream that has resolved the query.  It is nil for
	// queries that have not been forwarded anywhere.
	Upstream *string `json:"upstream"`
}

// QueryReply is the reply information of a [Query].
type QueryReply struct {
	Type *string `json:"type"`
}

// QueryClient is the client information of a [Query].
type QueryClient struct {
	IP *string `json:"ip"`
}

// type check
var _ validate.Interface = (*Queries)(nil)

// Validate implements the [validate.Interface] interface for *Queries.
func (q *Queries) Validate() (err error) {
	if q.Queries == nil {
		return fmt.Errorf("queries: %w", errors.ErrNoValue)
	}

	var errs []error
	for i, query := range q.Queries {
		err = query.validate()
		if err != nil {
			errs = append(errs, fmt.Errorf("queries: at index %d: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// validate returns an error if q lacks any of the required fields.  q may be
// nil.
func (q *Query) validate() (err error) {
	if q == nil {
		return errors.ErrNoValue
	}

	errs := []error{
		requireValue("type", q.Type),
		requireValue("status", q.Status),
	}

	if q.Reply == nil {
		errs = append(errs, fmt.Errorf("reply: %w", errors.ErrNoValue))
	} else {
		errs = append(errs, requireValue("reply.type", q.Reply.Type))
	}

	if q.Client == nil {
		errs = append(errs, fmt.Errorf("client: %w", errors.ErrNoValue))
	} else {
		errs = append(errs, requireValue("client.ip", q.Client.IP))
	}

	return errors.Join(errs...)
}

// requireValue returns an error if v is nil.
func requireValue[T any](name string, v *T) (err error) {
	if v == nil {
		return fmt.Errorf("%s: %w", name, errors.ErrNoValue)
	}

	return nil
}

// requireMap returns an error if m is nil, which means that the object has
// been missing or null in the response.
func requireMap[K comparable, V any](name string, m map[K]V) (err error) {
	if m == nil {
		return fmt.Errorf("%s: %w", name, errors.ErrNoValue)
	}

	return nil
}
