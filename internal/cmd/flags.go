package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/pflag"
)

// options are the command-line options that aren't a part of the environment.
type options struct {
	// version, if true, makes the exporter print its version and exit.
	version bool
}

// parseFlags parses the command-line arguments, excluding the program name.
// The defaults of the flags are taken from envs, and the values of the set
// flags are written into it.  output is used for the usage and the parsing
// errors, which are written before the error is returned.  err is [pflag.ErrHelp] if the usage has been requested.
func parseFlags(
	cmdName string,
	args []string,
	envs *environment,
	output io.Writer,
) (opts *options, err error) {
	opts = &options{}

	flags := pflag.NewFlagSet(cmdName, pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.SortFlags = false

	flags.StringVar(
		&envs.ExporterHost,
		"host",
		envs.ExporterHost,
		"host or IP address to listen on; env "+envPrefix+"EXPORTER_HOST",
	)
	flags.Uint16VarP(
		&envs.ExporterPort,
		"port",
		"p",
		envs.ExporterPort,
		"port to listen on; env "+envPrefix+"EXPORTER_PORT",
	)
	flags.StringVar(
		&envs.PiholeHost,
		"pihole",
		envs.PiholeHost,
		"host or host:port of the Pi-hole instance; env "+envPrefix+"PIHOLE_HOST",
	)
	flags.BoolVar(
		(*bool)(&envs.PiholeTLS),
		"tls",
		bool(envs.PiholeTLS),
		"use HTTPS to connect to Pi-hole; env "+envPrefix+"PIHOLE_TLS",
	)
	flags.VarP(
		&envs.PiholePassword,
		"password",
		"P",
		"Pi-hole API password, anonymous access if empty; env "+envPrefix+"PIHOLE_PASSWORD",
	)
	flags.DurationVar(
		(*time.Duration)(&envs.PiholeTimeout),
		"timeout",
		time.Duration(envs.PiholeTimeout),
		"timeout of a single Pi-hole API request; env "+envPrefix+"PIHOLE_TIMEOUT",
	)
	flags.Var(
		(*byteSizeValue)(&envs.MaxRespSize),
		"max-response-size",
		"maximum size of a Pi-hole API response; env "+envPrefix+"MAX_RESPONSE_SIZE",
	)
	flags.StringVar(
		&envs.WindowMode,
		"window-mode",
		envs.WindowMode,
		`handling of the per-minute series absent from the latest window, "keep" `+
			`or "replace"; env `+envPrefix+"WINDOW_MODE",
	)
	flags.StringVar(
		&envs.LogFormat,
		"log-format",
		envs.LogFormat,
		"log format; env "+envPrefix+"LOG_FORMAT",
	)
	flags.BoolVar(
		(*bool)(&envs.LogTimestamp),
		"log-timestamp",
		bool(envs.LogTimestamp),
		"add timestamps to log entries; env "+envPrefix+"LOG_TIMESTAMP",
	)
	flags.Uint8VarP(
		&envs.Verbosity,
		"verbose",
		"v",
		envs.Verbosity,
		"log verbosity level; env "+envPrefix+"VERBOSE",
	)
	flags.StringVar(
		&envs.SentryDSN,
		"sentry-dsn",
		envs.SentryDSN,
		`Sentry DSN for error reporting, "stderr" to write errors to stderr; env `+
			envPrefix+"SENTRY_DSN",
	)
	flags.BoolVar(&opts.version, "version", false, "print version and exit")

	err = flags.Parse(args)
	if err != nil {
		// Don't wrap the error, since pflag.ErrHelp is checked by the caller.
		return nil, err
	}

	if flags.NArg() > 0 {
		err = fmt.Errorf("unexpected arguments: %q", flags.Args())
		_, _ = fmt.Fprintln(output, err)
		flags.PrintDefaults()

		return nil, err
	}

	return opts, nil
}

// type check
var _ pflag.Value = (*secret)(nil)

// Set implements the [pflag.Value] interface for *secret.
func (s *secret) Set(v string) (err error) {
	return s.UnmarshalText([]byte(v))
}

// Type implements the [pflag.Value] interface for *secret.
func (s *secret) Type() (typ string) {
	return "string"
}

// byteSizeValue is a [pflag.Value] wrapper around [datasize.ByteSize].
type byteSizeValue datasize.ByteSize

// type check
var _ pflag.Value = (*byteSizeValue)(nil)

// Set implements the [pflag.Value] interface for *byteSizeValue.
func (v *byteSizeValue) Set(s string) (err error) {
	return (*datasize.ByteSize)(v).UnmarshalText([]byte(s))
}

// String implements the [pflag.Value] interface for *byteSizeValue.
func (v *byteSizeValue) String() (s string) {
	return datasize.ByteSize(*v).String()
}

// Type implements the [pflag.Value] interface for *byteSizeValue.
func (v *byteSizeValue) Type() (typ string) {
	return "size"
}
