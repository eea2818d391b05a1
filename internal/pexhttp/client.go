package pexhttp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/AdguardTeam/golibs/httphdr"
)

// Client is a wrapper around http.Client.
type Client struct {
	http      *http.Client
	userAgent string
}

// ClientConfig is the configuration structure for Client.
type ClientConfig struct {
	// Timeout is the timeout for all requests.
	Timeout time.Duration

	// InsecureSkipVerify, if true, makes the client accept any certificate
	// presented by the server.
	InsecureSkipVerify bool
}

// NewClient returns a new client.  c must not be nil.
func NewClient(c *ClientConfig) (cli *Client) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if c.InsecureSkipVerify {
		// #nosec G402 -- The appliances are usually accessed over a private
		// network using self-issued certificates, so verification is turned
		// off deliberately.
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   c.Timeout,
		},
		userAgent: UserAgent(),
	}
}

// Get is a wrapper around http.Client.Get.  hdr, if not nil, is added to the
// request headers.
//
// When err is nil, resp always contains a non-nil resp.Body.  Caller should
// close resp.Body when done reading from it.
//
// See also go doc http.Client.Get.
func (c *Client) Get(ctx context.Context, u *url.URL, hdr http.Header) (resp *http.Response, err error) {
	return c.do(ctx, http.MethodGet, u, hdr, "", nil)
}

// Post is a wrapper around http.Client.Post.  hdr, if not nil, is added to the
// request headers.
//
// When err is nil, resp always contains a non-nil resp.Body.  Caller should
// close resp.Body when done reading from it.
//
// See also go doc http.Client.Post.
func (c *Client) Post(
	ctx context.Context,
	u *url.URL,
	hdr http.Header,
	contentType string,
	body io.Reader,
) (resp *http.Response, err error) {
	return c.do(ctx, http.MethodPost, u, hdr, contentType, body)
}

// Delete is a wrapper around http.Client.Do.  hdr, if not nil, is added to the
// request headers.
//
// When err is nil, resp always contains a non-nil resp.Body.  Caller should
// close resp.Body when done reading from it.
func (c *Client) Delete(ctx context.Context, u *url.URL, hdr http.Header) (resp *http.Response, err error) {
	return c.do(ctx, http.MethodDelete, u, hdr, "", nil)
}

// do is a wrapper around http.Client.Do.
func (c *Client) do(
	ctx context.Context,
	method string,
	u *url.URL,
	hdr http.Header,
	contentType string,
	body io.Reader,
) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", method, err)
	}

	maps.Copy(req.Header, hdr)

	if contentType != "" {
		req.Header.Set(httphdr.ContentType, contentType)
	}

	req.Header.Set(httphdr.UserAgent, c.userAgent)

	resp, err = c.http.Do(req)
	if err != nil && resp != nil && resp.Header != nil {
		// A non-nil Response with a non-nil error only occurs when CheckRedirect
		// fails.
		return resp, WrapServerError(err, resp)
	}

	return resp, err
}
