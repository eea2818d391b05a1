// Package errcoll contains implementations of error collectors, most notably
// Sentry.
package errcoll

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/AdguardTeam/golibs/logutil/slogutil"
)

// Interface is the interface for error collectors that process information
// about errors, possibly sending them to a remote location.
type Interface interface {
	// Collect reports err.  err must not be nil.
	Collect(ctx context.Context, err error)
}

// Empty is an [Interface] implementation that does nothing.
type Empty struct{}

// type check
var _ Interface = Empty{}

// Collect implements the [Interface] interface for Empty.
func (Empty) Collect(_ context.Context, _ error) {}

// Collect is a helper function for reporting non-critical errors.  It writes
// the error into the log at the given level and also into errColl.
func Collect(
	ctx context.Context,
	errColl Interface,
	l *slog.Logger,
	lvl slog.Level,
	msg string,
	err error,
) {
	l.Log(ctx, lvl, msg, slogutil.KeyError, err)
	errColl.Collect(ctx, fmt.Errorf("%s: %w", msg, err))
}

// caller returns the position of the stack frame skip levels up, where 0 is
// caller itself.  The file is shown with its directory.
func caller(skip int) (pos string) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "(unknown)"
	}

	dir, name := filepath.Split(file)

	return fmt.Sprintf("%s:%d", filepath.Join(filepath.Base(dir), name), line)
}
