package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
)

// reportPanics reports all panics in Main using the Sentry client, logs them,
// and exits with the failure code.  It must be called with defer.
func reportPanics(ctx context.Context, errColl errcoll.Interface, l *slog.Logger) {
	v := recover()
	if v == nil {
		return
	}

	var err error
	if recErr, ok := v.(error); ok {
		err = recErr
	} else {
		err = fmt.Errorf("%v", v)
	}

	errColl.Collect(ctx, fmt.Errorf("panic in cmd.Main: %w", err))
	if flusher, ok := errColl.(errcoll.ErrorFlushCollector); ok {
		flusher.Flush()
	}

	slogutil.PrintStack(ctx, l, slog.LevelError)
	l.ErrorContext(ctx, "recovered from panic", slogutil.KeyError, err)

	os.Exit(osutil.ExitCodeFailure)
}
