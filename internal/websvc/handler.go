package websvc

import (
	"io"
	"net/http"

	"github.com/AdguardTeam/PiholeExporter/internal/collector"
	"github.com/AdguardTeam/PiholeExporter/internal/pexhttp"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/httphdr"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// HdrValTextExposition is the content type of the text exposition format of
// the metrics.
const HdrValTextExposition = "text/plain; version=0.0.4; charset=utf-8"

// Response bodies of the failed requests to the metrics endpoint.
const (
	msgCollectFailed = "failed to collect metrics"
	msgEncodeFailed  = "failed to encode metrics"
)

// serveHealthCheck handles the GET /healthz endpoint.  It reports that the
// process is up regardless of the state of the Pi-hole.
func serveHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(httphdr.ContentType, pexhttp.HdrValTextPlain)
	w.WriteHeader(http.StatusOK)

	_, err := io.WriteString(w, "OK\n")
	if err != nil {
		ctx := r.Context()
		l := slogutil.MustLoggerFromContext(ctx)
		l.DebugContext(ctx, "writing health-check response", slogutil.KeyError, err)
	}
}

// serveMetrics handles the GET /metrics endpoint.  Every request performs a
// full collection cycle.
func (svc *Service) serveMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := slogutil.MustLoggerFromContext(ctx)

	b, err := svc.collector.Collect(ctx)
	if err != nil {
		// The error has already been logged and reported by the collector.
		msg := msgCollectFailed
		if errors.As(err, new(*collector.EncodeError)) {
			msg = msgEncodeFailed
		}

		l.DebugContext(ctx, "responding with error", "msg", msg)

		http.Error(w, msg, http.StatusInternalServerError)

		return
	}

	w.Header().Set(httphdr.ContentType, HdrValTextExposition)
	w.WriteHeader(http.StatusOK)

	_, err = w.Write(b)
	if err != nil {
		l.DebugContext(ctx, "writing metrics response", slogutil.KeyError, err)
	}
}
