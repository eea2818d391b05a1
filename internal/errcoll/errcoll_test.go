package errcoll_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testErrColl is an [errcoll.Interface] for tests.
type testErrColl struct {
	onCollect func(ctx context.Context, err error)
}

// type check
var _ errcoll.Interface = (*testErrColl)(nil)

// Collect implements the [errcoll.Interface] interface for *testErrColl.
func (c *testErrColl) Collect(ctx context.Context, err error) {
	c.onCollect(ctx, err)
}

func TestCollect(t *testing.T) {
	var gotErr error
	errColl := &testErrColl{
		onCollect: func(_ context.Context, err error) {
			gotErr = err
		},
	}

	logBuf := &bytes.Buffer{}
	l := slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	origErr := errors.Error("test error")
	errcoll.Collect(context.Background(), errColl, l, slog.LevelWarn, "collecting", origErr)

	require.Error(t, gotErr)

	assert.ErrorIs(t, gotErr, origErr)
	assert.Equal(t, "collecting: test error", gotErr.Error())
	assert.Contains(t, logBuf.String(), "level=WARN")
	assert.Contains(t, logBuf.String(), `msg=collecting err="test error"`)
}

func TestEmpty(t *testing.T) {
	assert.NotPanics(t, func() {
		errcoll.Empty{}.Collect(context.Background(), errors.Error("test error"))
	})
}
