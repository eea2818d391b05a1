package piholeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/pexhttp"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/ioutil"
	"github.com/AdguardTeam/golibs/service"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
)

// Client is the client for the Pi-hole API.  It may hold a session token
// obtained with [Client.Authenticate], in which case the token is attached to
// all requests.
type Client struct {
	logger      *slog.Logger
	http        *pexhttp.Client
	baseURL     *url.URL
	sid         string
	maxRespSize datasize.ByteSize
}

// ClientConfig is the configuration structure for a *Client.
type ClientConfig struct {
	// Logger is used for logging the operation of the client.  It must not be
	// nil.
	Logger *slog.Logger

	// BaseURL is the URL of the Pi-hole instance without the /api/ prefix.  It
	// must not be nil.  See [NewBaseURL].
	BaseURL *url.URL

	// Timeout is the timeout for every request.  It must be positive.
	Timeout time.Duration

	// MaxRespSize is the maximum size of a response body.  It must be
	// positive.
	MaxRespSize datasize.ByteSize
}

// NewClient returns a new anonymous *Client.  c must not be nil and must be
// valid.
//
// The client accepts any TLS certificate.  Pi-hole instances are usually
// accessed over private networks and use self-issued certificates.
func NewClient(c *ClientConfig) (cli *Client) {
	return &Client{
		logger: c.Logger,
		http: pexhttp.NewClient(&pexhttp.ClientConfig{
			Timeout:            c.Timeout,
			InsecureSkipVerify: true,
		}),
		baseURL:     c.BaseURL,
		maxRespSize: c.MaxRespSize,
	}
}

// Authenticate exchanges password for a session token and stores it in c.  It
// must be called before c is used concurrently.  Any error returned has the
// underlying type *AuthError.
func (c *Client) Authenticate(ctx context.Context, password string) (err error) {
	defer func() {
		if err != nil {
			err = &AuthError{Err: err}
		}
	}()

	reqBody, err := json.Marshal(&authRequest{
		Password: password,
	})
	if err != nil {
		// Technically should never happen.
		return fmt.Errorf("encoding request: %w", err)
	}

	hdr := http.Header{
		httphdr.Accept: []string{pexhttp.HdrValApplicationJSON},
	}

	u := c.apiURL(PathAuth)
	httpResp, err := c.http.Post(ctx, u, hdr, pexhttp.HdrValApplicationJSON, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, httpResp.Body.Close()) }()

	err = pexhttp.CheckStatus(httpResp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	resp := &authResponse{}
	err = c.decode(httpResp, resp)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	c.sid = *resp.Session.SID

	c.logger.InfoContext(ctx, "authenticated")

	return nil
}

// Logout ends the session, if any.  It must not be called concurrently with
// other methods.
func (c *Client) Logout(ctx context.Context) (err error) {
	if c.sid == "" {
		return nil
	}

	defer func() { err = errors.Annotate(err, "logging out: %w") }()

	httpResp, err := c.http.Delete(ctx, c.apiURL(PathAuth), c.header())
	if err != nil {
		return fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, httpResp.Body.Close()) }()

	c.sid = ""

	if httpResp.StatusCode == http.StatusOK {
		return nil
	}

	return pexhttp.CheckStatus(httpResp, http.StatusNoContent)
}

// type check
var _ service.Interface = (*Client)(nil)

// Start implements the [service.Interface] interface for *Client.  It does
// nothing, since the session is obtained with [Client.Authenticate].
func (c *Client) Start(_ context.Context) (err error) {
	return nil
}

// Shutdown implements the [service.Interface] interface for *Client.  It ends
// the session, if any.
func (c *Client) Shutdown(ctx context.Context) (err error) {
	return c.Logout(ctx)
}

// Summary fetches the summary statistics.  Any error returned has the
// underlying type *FetchError.
func (c *Client) Summary(ctx context.Context) (s *Summary, err error) {
	s = &Summary{}
	err = c.fetch(ctx, PathStatsSummary, nil, s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Upstreams fetches the statistics of the upstream servers.  Any error returned
// has the underlying type *FetchError.
func (c *Client) Upstreams(ctx context.Context) (u *Upstreams, err error) {
	u = &Upstreams{}
	err = c.fetch(ctx, PathUpstreams, nil, u)
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Queries fetches the query log records for the queries made between from and
// until.  Any error returned has the underlying type *FetchError.
func (c *Client) Queries(ctx context.Context, from, until time.Time) (q *Queries, err error) {
	query := url.Values{
		"from":   []string{strconv.FormatInt(from.Unix(), 10)},
		"until":  []string{strconv.FormatInt(until.Unix(), 10)},
		"length": []string{strconv.Itoa(QueriesLength)},
	}

	q = &Queries{}
	err = c.fetch(ctx, PathQueries, query, q)
	if err != nil {
		return nil, err
	}

	return q, nil
}

// fetch requests the resource at path with the given URL query and decodes the
// response into v.
func (c *Client) fetch(
	ctx context.Context,
	path string,
	query url.Values,
	v validate.Interface,
) (err error) {
	defer func() {
		if err != nil {
			err = newFetchError(path, err)
		}
	}()

	u := c.apiURL(path)
	u.RawQuery = query.Encode()

	hdr := c.header()
	hdr.Set(httphdr.Accept, pexhttp.HdrValApplicationJSON)

	httpResp, err := c.http.Get(ctx, u, hdr)
	if err != nil {
		return fmt.Errorf("requesting: %w", err)
	}
	defer func() { err = errors.WithDeferred(err, httpResp.Body.Close()) }()

	err = pexhttp.CheckStatus(httpResp, http.StatusOK)
	if err != nil {
		// Don't wrap the error, because it's informative enough as is.
		return err
	}

	return c.decode(httpResp, v)
}

// decode decodes the body of httpResp into v and validates it.
func (c *Client) decode(httpResp *http.Response, v validate.Interface) (err error) {
	limitReader := ioutil.LimitReader(httpResp.Body, c.maxRespSize.Bytes())
	err = json.NewDecoder(limitReader).Decode(v)
	if err != nil {
		return pexhttp.WrapServerError(fmt.Errorf("decoding: %w", err), httpResp)
	}

	err = v.Validate()
	if err != nil {
		return pexhttp.WrapServerError(fmt.Errorf("validating: %w", err), httpResp)
	}

	return nil
}

// apiURL returns a new URL for the API path.
func (c *Client) apiURL(path string) (u *url.URL) {
	return c.baseURL.JoinPath("api", path)
}

// header returns the headers for the authenticated requests.  The result is
// never nil.
func (c *Client) header() (hdr http.Header) {
	hdr = http.Header{}
	if c.sid != "" {
		hdr.Set(HeaderSID, c.sid)
	}

	return hdr
}
