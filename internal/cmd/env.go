package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AdguardTeam/PiholeExporter/internal/errcoll"
	"github.com/AdguardTeam/PiholeExporter/internal/metrics"
	"github.com/AdguardTeam/PiholeExporter/internal/version"
	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/logutil/slogutil"
	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/AdguardTeam/golibs/validate"
	"github.com/c2h5oh/datasize"
	"github.com/caarlos0/env/v7"
	"github.com/getsentry/sentry-go"
)

// envPrefix is the prefix of all environment variables of the exporter.
const envPrefix = "PIHOLE_EXPORTER__"

// environment represents the configuration that is kept in the environment.
// The command-line flags override the values of the corresponding variables.
type environment struct {
	ExporterHost string `env:"EXPORTER_HOST" envDefault:"127.0.0.1"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	PiholeHost   string `env:"PIHOLE_HOST" envDefault:"localhost"`
	SentryDSN    string `env:"SENTRY_DSN"`
	WindowMode   string `env:"WINDOW_MODE" envDefault:"keep"`

	PiholePassword secret `env:"PIHOLE_PASSWORD"`

	MaxRespSize datasize.ByteSize `env:"MAX_RESPONSE_SIZE" envDefault:"64MB"`

	PiholeTimeout timeutil.Duration `env:"PIHOLE_TIMEOUT" envDefault:"30s"`

	ExporterPort uint16 `env:"EXPORTER_PORT" envDefault:"3141"`

	Verbosity uint8 `env:"VERBOSE" envDefault:"0"`

	LogTimestamp strictBool `env:"LOG_TIMESTAMP" envDefault:"1"`
	PiholeTLS    strictBool `env:"PIHOLE_TLS" envDefault:"0"`
}

// parseEnvironment reads the configuration.  environ is the environment to
// parse; if it is nil, the environment of the process is used.
func parseEnvironment(environ map[string]string) (envs *environment, err error) {
	envs = &environment{}
	err = env.Parse(envs, env.Options{
		Environment: environ,
		Prefix:      envPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing environments: %w", err)
	}

	return envs, nil
}

// type check
var _ validate.Interface = (*environment)(nil)

// Validate implements the [validate.Interface] interface for *environment.
func (envs *environment) Validate() (err error) {
	errs := []error{
		validate.NotEmpty("EXPORTER_HOST", envs.ExporterHost),
		validate.NotEmpty("PIHOLE_HOST", envs.PiholeHost),
		validate.Positive("PIHOLE_TIMEOUT", envs.PiholeTimeout),
		validate.Positive("MAX_RESPONSE_SIZE", envs.MaxRespSize),
		validate.Positive("EXPORTER_PORT", envs.ExporterPort),
	}

	_, err = slogutil.NewFormat(envs.LogFormat)
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: %w", err))
	}

	_, err = slogutil.VerbosityToLevel(envs.Verbosity)
	if err != nil {
		errs = append(errs, fmt.Errorf("VERBOSE: %w", err))
	}

	err = metrics.WindowMode(envs.WindowMode).Validate()
	if err != nil {
		errs = append(errs, fmt.Errorf("WINDOW_MODE: %w", err))
	}

	return errors.Join(errs...)
}

// sentryDSNStderr is the special value of SENTRY_DSN that makes the exporter
// write errors to stderr.
const sentryDSNStderr = "stderr"

// buildErrColl builds and returns an error collector from environment.
// baseLogger must not be nil.
func (envs *environment) buildErrColl(
	baseLogger *slog.Logger,
) (errColl errcoll.Interface, err error) {
	switch dsn := envs.SentryDSN; dsn {
	case "":
		return errcoll.Empty{}, nil
	case sentryDSNStderr:
		return errcoll.NewWriterErrorCollector(os.Stderr), nil
	default:
		// Go on.
	}

	cli, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              envs.SentryDSN,
		AttachStacktrace: true,
		Release:          version.Version(),
	})
	if err != nil {
		return nil, err
	}

	l := baseLogger.With(slogutil.KeyPrefix, "sentry_errcoll")

	return errcoll.NewSentryErrorCollector(cli, l), nil
}

// strictBool is a type for booleans that are parsed from the environment more
// strictly than the usual bool.  It only accepts "0", "1", "false", and "true"
// as valid values.
type strictBool bool

// UnmarshalText implements the encoding.TextUnmarshaler interface for
// *strictBool.
func (sb *strictBool) UnmarshalText(b []byte) (err error) {
	switch string(b) {
	case "0", "false":
		*sb = false
	case "1", "true":
		*sb = true
	default:
		return fmt.Errorf("invalid value %q, supported: %q, %q", b, "0", "1")
	}

	return nil
}

// secretRedacted is the string representation of a non-empty secret.
const secretRedacted = "********"

// secret is a string that is never printed or logged as is.
type secret string

// type check
var _ fmt.Stringer = secret("")

// String implements the [fmt.Stringer] interface for secret.
func (s secret) String() (str string) {
	if s == "" {
		return ""
	}

	return secretRedacted
}

// type check
var _ slog.LogValuer = secret("")

// LogValue implements the [slog.LogValuer] interface for secret.
func (s secret) LogValue() (v slog.Value) {
	return slog.StringValue(s.String())
}

// UnmarshalText implements the encoding.TextUnmarshaler interface for *secret.
func (s *secret) UnmarshalText(b []byte) (err error) {
	*s = secret(b)

	return nil
}
