// Package cmd is the Pi-hole exporter entry point.  It contains the
// configuration utilities, signal processing logic, and so on.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/AdguardTeam/PiholeExporter/internal/version"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/osutil"
	"github.com/AdguardTeam/golibs/sentryutil"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

// Main is the entry point of application.
func Main() {
	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)

	envs := errors.Must(parseEnvironment(nil))

	opts, err := parseFlags(os.Args[0], os.Args[1:], envs, os.Stderr)
	if code, ok := exitCodeForFlags(os.Stdout, opts, err); ok {
		os.Exit(code)
	}

	errors.Check(envs.Validate())

	lvl := errors.Must(slogutil.VerbosityToLevel(envs.Verbosity))
	baseLogger := slogutil.New(&slogutil.Config{
		// Don't use [slogutil.NewFormat] here, because the value is validated.
		Format:       slogutil.Format(envs.LogFormat),
		AddTimestamp: bool(envs.LogTimestamp),
		Level:        lvl,
	})

	sentryutil.SetDefaultLogger(baseLogger, "")

	mainLogger := baseLogger.With(slogutil.KeyPrefix, "main")

	// Signal service startup now that we have the logs set up.
	mainLogger.InfoContext(
		ctx,
		"pihole exporter starting",
		"version", version.Version(),
		"revision", version.Revision(),
		"branch", version.Branch(),
		"commit_time", version.CommitTime(),
		"pihole_host", envs.PiholeHost,
		"password", envs.PiholePassword,
	)

	errColl := errors.Must(envs.buildErrColl(baseLogger))

	defer reportPanics(ctx, errColl, mainLogger)

	b := newBuilder(&builderConfig{
		envs:       envs,
		baseLogger: baseLogger,
		errColl:    errColl,
	})

	errors.Check(b.initAPI(ctx))

	errors.Check(b.initStore(ctx))

	errors.Check(b.initCollector(ctx))

	errors.Check(b.initWeb(ctx))

	// Unregister the signal behavior for ctx.
	stop()
	ctx = context.WithoutCancel(ctx)

	os.Exit(b.handleSignals(ctx))
}

// exitCodeForFlags returns the exit code for the results of [parseFlags].  ok
// is false if the exporter should go on.  The version is written to w if it
// has been requested.
func exitCodeForFlags(
	w io.Writer,
	opts *options,
	err error,
) (code osutil.ExitCode, ok bool) {
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return osutil.ExitCodeSuccess, true
	case err != nil:
		return osutil.ExitCodeFailure, true
	case opts.version:
		_, _ = fmt.Fprintf(w, "%s %s\n", version.Name(), version.Version())

		return osutil.ExitCodeSuccess, true
	default:
		return osutil.ExitCodeSuccess, false
	}
}
