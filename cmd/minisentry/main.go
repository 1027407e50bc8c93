// Minisentry reports a single event to a Sentry-compatible collector from
// the command line. The message is the joined positional arguments;
// breadcrumbs recorded with --breadcrumb precede it in the event. On
// success the event identifier is printed to stdout.
//
// Credentials come from --key/--project or from the MINISENTRY_KEY and
// MINISENTRY_PROJECT environment variables. With --dry-run the encoded
// envelope is printed to stdout instead of being sent, and credentials
// are optional.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/m8522s/minisentry/pkg/minisentry"
	"github.com/m8522s/minisentry/pkg/minisentry/transports/writer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			fmt.Fprintf(os.Stderr, "minisentry: %v\n", err)
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "minisentry: %v\n", err)
		os.Exit(1)
	}
}

// usageError marks a mistake in the invocation rather than a delivery
// failure, so scripts can tell the two apart.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(args []string) error {
	var (
		key         string
		project     string
		host        string
		environment string
		release     string
		title       string
		level       string
		breadcrumbs []string
		timeout     time.Duration
		insecure    bool
		compress    bool
		scrub       bool
		exception   bool
		dryRun      bool
		verbose     bool
	)

	flagSet := pflag.NewFlagSet("minisentry", pflag.ContinueOnError)
	flagSet.StringVarP(&key, "key", "k", envOr("MINISENTRY_KEY", ""), "project public key (env: MINISENTRY_KEY)")
	flagSet.StringVarP(&project, "project", "p", envOr("MINISENTRY_PROJECT", ""), "numeric project ID (env: MINISENTRY_PROJECT)")
	flagSet.StringVar(&host, "host", envOr("MINISENTRY_HOST", ""), "collector host, no scheme (env: MINISENTRY_HOST)")
	flagSet.StringVar(&environment, "environment", envOr("MINISENTRY_ENVIRONMENT", ""), "environment tag (env: MINISENTRY_ENVIRONMENT)")
	flagSet.StringVar(&release, "release", "", "release identifier (default: build VCS revision)")
	flagSet.StringVar(&title, "title", "", "capture title; recorded at the call site only, not transmitted")
	flagSet.StringVarP(&level, "level", "l", "info", "event level, sent verbatim")
	flagSet.StringArrayVarP(&breadcrumbs, "breadcrumb", "b", nil, `breadcrumb to record before the event, as "message" or "category:message" (repeatable)`)
	flagSet.DurationVar(&timeout, "timeout", 30*time.Second, "overall delivery timeout")
	flagSet.BoolVar(&insecure, "insecure", envBool("MINISENTRY_INSECURE"), "skip TLS certificate verification (env: MINISENTRY_INSECURE)")
	flagSet.BoolVar(&compress, "compress", false, "gzip the envelope body")
	flagSet.BoolVar(&scrub, "scrub", false, "redact secrets and PII before sending")
	flagSet.BoolVar(&exception, "exception", false, "report through the exception capture instead of the message capture")
	flagSet.BoolVar(&dryRun, "dry-run", false, "print the envelope to stdout instead of sending it; key/project optional")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log client activity to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return usagef("%v", err)
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	message := strings.Join(flagSet.Args(), " ")
	if message == "" {
		return usagef("no message given; pass the event message as arguments")
	}

	if dryRun {
		// A dry run never contacts a collector, so placeholder
		// credentials are enough to satisfy construction.
		if key == "" {
			key = "local"
		}
		if project == "" {
			project = "0"
		}
	}
	if key == "" || project == "" {
		return usagef("key and project are required (--key/--project or MINISENTRY_KEY/MINISENTRY_PROJECT)")
	}

	logLevel := zerolog.WarnLevel
	if verbose {
		logLevel = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(logLevel).
		With().Timestamp().Logger()

	opts := []minisentry.Option{
		minisentry.WithLogger(logger),
	}
	if host != "" {
		opts = append(opts, minisentry.WithHost(host))
	}
	if environment != "" {
		opts = append(opts, minisentry.WithEnvironment(environment))
	}
	if release != "" {
		opts = append(opts, minisentry.WithRelease(release))
	}
	if insecure {
		opts = append(opts, minisentry.WithInsecureSkipVerify())
	}
	if compress {
		opts = append(opts, minisentry.WithCompression())
	}
	if scrub {
		opts = append(opts, minisentry.WithDefaultScrubbing())
	}
	if dryRun {
		opts = append(opts, minisentry.WithTransport(writer.NewTransport(os.Stdout)))
	}

	client, err := minisentry.New(key, project, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, raw := range breadcrumbs {
		crumbMessage, category := parseBreadcrumb(raw)
		if err := client.AddBreadcrumb(crumbMessage, category); err != nil {
			return fmt.Errorf("record breadcrumb %q: %w", raw, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	capture := client.CaptureMessage
	if exception {
		capture = client.CaptureException
	}

	id, err := capture(ctx, title, message, minisentry.Level(level))
	if err != nil {
		return err
	}

	if !dryRun {
		fmt.Println(id)
	}
	return nil
}

// categoryPattern is what may precede the first colon of a --breadcrumb
// value and be read as a category rather than message text.
var categoryPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]*$`)

// parseBreadcrumb splits a --breadcrumb value into message and category.
// A "category:" prefix is honored only when it looks like a category
// name, so messages containing colons pass through whole.
func parseBreadcrumb(raw string) (message, category string) {
	before, after, found := strings.Cut(raw, ":")
	if found && categoryPattern.MatchString(before) {
		return after, before
	}
	return raw, ""
}

// envOr returns the environment value for name, or def when unset or
// empty.
func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// envBool reads a boolean environment variable; unset or unparsable
// values are false.
func envBool(name string) bool {
	v, err := strconv.ParseBool(os.Getenv(name))
	return err == nil && v
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Minisentry reports an event to a Sentry-compatible collector.

The message is the joined positional arguments. Breadcrumbs recorded
with --breadcrumb precede it in the event. On success the event
identifier is printed to stdout.

Usage:
  minisentry [flags] message...

Examples:
  # Report an error-level event
  minisentry -k $KEY -p 42 -l error "database connection lost"

  # Record breadcrumbs, then report
  minisentry -k $KEY -p 42 -b "migration started" -b "db:schema locked" "migration failed"

  # Inspect the envelope without sending anything
  minisentry --dry-run "what would this look like"

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
