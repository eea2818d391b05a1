package pexhttp_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/AdguardTeam/PiholeExporter/internal/pexhttp"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCheckStatus(t *testing.T) {
	testCases := []struct {
		req        *http.Request
		name       string
		srv        string
		wantErrMsg string
		exp        int
		got        int
	}{{
		req:        nil,
		name:       "200_200",
		srv:        testSrv,
		wantErrMsg: "",
		exp:        200,
		got:        200,
	}, {
		req:        nil,
		name:       "200_404",
		srv:        "",
		wantErrMsg: `server "": status code error: expected 200, got 404`,
		exp:        200,
		got:        404,
	}, {
		req:        nil,
		name:       "200_404_srv",
		srv:        testSrv,
		wantErrMsg: `server "` + testSrv + `": status code error: expected 200, got 404`,
		exp:        200,
		got:        404,
	}, {
		req: &http.Request{
			Method: http.MethodGet,
			URL:    &url.URL{Path: "/api/stats/summary"},
		},
		name: "200_401_req",
		srv:  "",
		wantErrMsg: `server "": GET /api/stats/summary: ` +
			`status code error: expected 200, got 401`,
		exp: 200,
		got: 401,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tc.got,
				Header: http.Header{
					httphdr.Server: []string{tc.srv},
				},
				Request: tc.req,
			}
			err := pexhttp.CheckStatus(resp, tc.exp)

			testutil.AssertErrorMsg(t, tc.wantErrMsg, err)
		})
	}
}

func TestServerError(t *testing.T) {
	testCases := []struct {
		err        error
		name       string
		srv        string
		wantErrMsg string
	}{{
		err:        testError,
		name:       "no_srv",
		srv:        "",
		wantErrMsg: `server "": ` + string(testError),
	}, {
		err:        testError,
		name:       "with_srv",
		srv:        testSrv,
		wantErrMsg: `server "` + testSrv + `": ` + string(testError),
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := &http.Response{
				Header: http.Header{
					httphdr.Server: []string{tc.srv},
				},
			}
			err := pexhttp.WrapServerError(tc.err, resp)

			assert.ErrorIs(t, err, tc.err)
			testutil.AssertErrorMsg(t, tc.wantErrMsg, err)
		})
	}
}
