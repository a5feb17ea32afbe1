// Package telemetry wraps the Sentry SDK for crash reporting: opt-out
// env vars, PII scrubbing of paths/keys/emails before every event and
// breadcrumb leaves the process, and filtering of expected-exit noise
// (cancellation, broken pipes) so only genuine failures get reported.
package telemetry

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	flushTimeout      = 2 * time.Second
	httpClientTimeout = 10 * time.Second
	maxBreadcrumbs    = 20
)

var (
	homePathPattern = regexp.MustCompile(`(?i)(/home/|/Users/|C:\\Users\\)([^/\\:]+)`)
	apiKeyPattern   = regexp.MustCompile(`(?i)(sk-ant-api\d+-|sk-|api[_-]?key[=:]\s*)([A-Za-z0-9_-]{10,})`)
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// DSN can be set at build time via -ldflags for release builds; empty
// by default so development builds stay silent.
var DSN string

// Init configures the Sentry SDK from SENTRY_DSN/SENTRY_ENVIRONMENT (or
// the build-time DSN as a fallback) and returns a cleanup function that
// flushes pending events. If telemetry is disabled or no DSN resolves,
// Init is a no-op and the returned cleanup does nothing.
func Init(version string) func() {
	if os.Getenv("DO_NOT_TRACK") == "1" || os.Getenv("TSUGIX_NO_TELEMETRY") == "1" {
		return func() {}
	}

	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		dsn = DSN
	}
	if dsn == "" {
		return func() {}
	}

	env := os.Getenv("SENTRY_ENVIRONMENT")
	if env == "" {
		env = "production"
	}

	serverName := runtime.GOOS + "-" + runtime.GOARCH

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Release:          "tsugix@" + version,
		Environment:      env,
		ServerName:       serverName,
		AttachStacktrace: true,
		SampleRate:       1.0,
		Debug:            env == "development",
		MaxBreadcrumbs:   maxBreadcrumbs,
		HTTPClient: &http.Client{
			Timeout: httpClientTimeout,
		},
		IgnoreErrors: []string{
			"context canceled",
			"context deadline exceeded",
			"signal: interrupt",
			"signal: terminated",
			"EOF",
			"broken pipe",
			"connection reset",
		},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if hint != nil && hint.OriginalException != nil && isExpectedExit(hint.OriginalException.Error()) {
				return nil
			}
			if event.Message != "" && isExpectedExit(event.Message) {
				return nil
			}
			scrubEvent(event)
			return event
		},
		BeforeBreadcrumb: func(breadcrumb *sentry.Breadcrumb, _ *sentry.BreadcrumbHint) *sentry.Breadcrumb {
			breadcrumb.Message = scrubPII(breadcrumb.Message)
			return breadcrumb
		},
	})
	if err != nil {
		return func() {}
	}

	return func() {
		sentry.Flush(flushTimeout)
	}
}

func isExpectedExit(msg string) bool {
	lower := strings.ToLower(msg)
	for _, s := range []string{"interrupt", "context canceled", "cancelled", "terminated"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// CaptureError reports an error to Sentry if initialized. Safe to call
// even when telemetry is disabled.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureOutcome tags the current scope with a completed pipeline run's
// terminal outcome and language, so events captured afterwards carry
// them for later filtering. It sends no event itself.
func CaptureOutcome(outcome, language string) {
	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("outcome", outcome)
		scope.SetTag("language", language)
	})
}

// RecoverAndPanic recovers from a panic, reports it, then re-panics so
// the CLI still surfaces it to the user. Defer this at command
// entry points, before Init's own cleanup function.
func RecoverAndPanic() {
	if r := recover(); r != nil {
		sentry.CurrentHub().RecoverWithContext(context.Background(), r)
		sentry.Flush(flushTimeout)
		panic(r)
	}
}

// AddBreadcrumb adds PII-scrubbed context for debugging a later event.
func AddBreadcrumb(category, message string) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   scrubPII(message),
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	})
}

// scrubPII removes home-directory usernames, API keys/tokens, and email
// addresses from a string before it can leave the process.
func scrubPII(s string) string {
	s = homePathPattern.ReplaceAllString(s, "${1}[user]")
	s = apiKeyPattern.ReplaceAllString(s, "${1}[REDACTED]")
	s = emailPattern.ReplaceAllString(s, "[email]")
	return s
}

func scrubEvent(event *sentry.Event) {
	event.Message = scrubPII(event.Message)

	for i := range event.Exception {
		event.Exception[i].Value = scrubPII(event.Exception[i].Value)
		if event.Exception[i].Stacktrace != nil {
			for j := range event.Exception[i].Stacktrace.Frames {
				frame := &event.Exception[i].Stacktrace.Frames[j]
				frame.AbsPath = scrubPII(frame.AbsPath)
				frame.Filename = scrubPII(frame.Filename)
			}
		}
	}

	for i := range event.Breadcrumbs {
		event.Breadcrumbs[i].Message = scrubPII(event.Breadcrumbs[i].Message)
	}

	for key, value := range event.Extra {
		if str, ok := value.(string); ok {
			event.Extra[key] = scrubPII(str)
		}
	}

	for key, value := range event.Tags {
		event.Tags[key] = scrubPII(value)
	}
}
