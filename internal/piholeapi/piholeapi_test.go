package piholeapi_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/AdguardTeam/PiholeExporter/internal/piholeapi"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/testutil"
	"github.com/c2h5oh/datasize"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	testutil.DiscardLogOutput(m)
}

// testMaxRespSize is the maximum response size for tests.
const testMaxRespSize = 1 * datasize.MB

// newClient returns a new anonymous client for the API at u using timeout.
func newClient(tb testing.TB, u *url.URL, timeout time.Duration) (c *piholeapi.Client) {
	tb.Helper()

	return piholeapi.NewClient(&piholeapi.ClientConfig{
		Logger:      slogutil.NewDiscardLogger(),
		BaseURL:     u,
		Timeout:     timeout,
		MaxRespSize: testMaxRespSize,
	})
}

func TestNewBaseURL(t *testing.T) {
	assert.Equal(t, "http://pi.hole:8080", piholeapi.NewBaseURL("pi.hole:8080", false).String())
	assert.Equal(t, "https://pi.hole", piholeapi.NewBaseURL("pi.hole", true).String())
}
