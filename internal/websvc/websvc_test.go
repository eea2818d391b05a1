package websvc_test

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/collector"
	"github.com/AdguardTeam/PiholeExporter/internal/pexhttp"
	"github.com/AdguardTeam/PiholeExporter/internal/pextest"
	"github.com/AdguardTeam/PiholeExporter/internal/websvc"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/netutil/urlutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	testutil.DiscardLogOutput(m)
}

// testMetrics is the snapshot returned by the collector in tests.
const testMetrics = "# HELP pihole_domains_being_blocked Number of domains on current blocklist\n" +
	"# TYPE pihole_domains_being_blocked gauge\n" +
	"pihole_domains_being_blocked 123456\n"

// startService starts a service with c on a random port and returns its URL.
func startService(tb testing.TB, c websvc.Collector) (u *url.URL) {
	tb.Helper()

	svc := websvc.New(&websvc.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Collector: c,
		Address:   "127.0.0.1:0",
		Timeout:   pextest.Timeout,
	})

	err := svc.Start(testutil.ContextWithTimeout(tb, pextest.Timeout))
	require.NoError(tb, err)

	testutil.CleanupAndRequireSuccess(tb, func() (err error) {
		return svc.Shutdown(testutil.ContextWithTimeout(tb, pextest.Timeout))
	})

	addr := svc.LocalAddr()
	require.NotNil(tb, addr)

	return &url.URL{
		Scheme: urlutil.SchemeHTTP,
		Host:   addr.String(),
	}
}

// doRequest performs a request and returns the response with the read body.
func doRequest(tb testing.TB, method string, u *url.URL) (resp *http.Response, body string) {
	tb.Helper()

	ctx := testutil.ContextWithTimeout(tb, pextest.Timeout)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	require.NoError(tb, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(tb, err)
	testutil.CleanupAndRequireSuccess(tb, resp.Body.Close)

	b, err := io.ReadAll(resp.Body)
	require.NoError(tb, err)

	return resp, string(b)
}

func TestService_healthCheck(t *testing.T) {
	c := &pextest.Collector{
		OnCollect: func(_ context.Context) (b []byte, err error) {
			panic(testutil.UnexpectedCall())
		},
	}

	u := startService(t, c).JoinPath(websvc.PathPatternHealthCheck)
	resp, body := doRequest(t, http.MethodGet, u)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", body)
	assert.Equal(t, pexhttp.UserAgent(), resp.Header.Get(httphdr.Server))
}

func TestService_metrics(t *testing.T) {
	testCases := []struct {
		err      error
		name     string
		wantBody string
		wantCT   string
		wantCode int
	}{{
		err:      nil,
		name:     "success",
		wantBody: testMetrics,
		wantCT:   websvc.HdrValTextExposition,
		wantCode: http.StatusOK,
	}, {
		err:      errors.Error("test error"),
		name:     "collect_error",
		wantBody: "failed to collect metrics\n",
		wantCT:   "text/plain; charset=utf-8",
		wantCode: http.StatusInternalServerError,
	}, {
		err: &collector.EncodeError{
			Err: errors.Error("test error"),
		},
		name:     "encode_error",
		wantBody: "failed to encode metrics\n",
		wantCT:   "text/plain; charset=utf-8",
		wantCode: http.StatusInternalServerError,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &pextest.Collector{
				OnCollect: func(_ context.Context) (b []byte, err error) {
					if tc.err != nil {
						return nil, tc.err
					}

					return []byte(testMetrics), nil
				},
			}

			u := startService(t, c).JoinPath(websvc.PathPatternMetrics)
			resp, body := doRequest(t, http.MethodGet, u)

			assert.Equal(t, tc.wantCode, resp.StatusCode)
			assert.Equal(t, tc.wantBody, body)
			assert.Equal(t, tc.wantCT, resp.Header.Get(httphdr.ContentType))
			assert.Equal(t, pexhttp.UserAgent(), resp.Header.Get(httphdr.Server))
		})
	}
}

func TestService_metrics_concurrent(t *testing.T) {
	const reqNum = 4

	startedCh := make(chan struct{}, reqNum)
	releaseCh := make(chan struct{})
	c := &pextest.Collector{
		OnCollect: func(ctx context.Context) (b []byte, err error) {
			testutil.RequireSend(testutil.PanicT{}, startedCh, struct{}{}, pextest.Timeout)

			select {
			case <-releaseCh:
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			return []byte(testMetrics), nil
		},
	}

	u := startService(t, c).JoinPath(websvc.PathPatternMetrics)

	respCh := make(chan string, reqNum)
	for range reqNum {
		go func() {
			pt := testutil.PanicT{}

			resp, err := http.Get(u.String())
			require.NoError(pt, err)

			defer func() { require.NoError(pt, resp.Body.Close()) }()

			b, err := io.ReadAll(resp.Body)
			require.NoError(pt, err)

			testutil.RequireSend(pt, respCh, string(b), pextest.Timeout)
		}()
	}

	// All requests must reach the collector before any of them is finished.
	for range reqNum {
		testutil.RequireReceive(t, startedCh, pextest.Timeout)
	}

	close(releaseCh)

	for range reqNum {
		body, _ := testutil.RequireReceive(t, respCh, pextest.Timeout)
		assert.Equal(t, testMetrics, body)
	}
}

func TestService_Start_busy(t *testing.T) {
	c := &pextest.Collector{}
	u := startService(t, c)

	svc := websvc.New(&websvc.Config{
		Logger:    slogutil.NewDiscardLogger(),
		Collector: c,
		Address:   u.Host,
		Timeout:   pextest.Timeout,
	})

	err := svc.Start(testutil.ContextWithTimeout(t, pextest.Timeout))
	assert.Error(t, err)

	ctx := testutil.ContextWithTimeout(t, time.Second)
	assert.NoError(t, svc.Shutdown(ctx))
}
