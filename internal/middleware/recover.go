package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"audio-transcoder/internal/logging"

	sentryhttp "github.com/getsentry/sentry-go/http"
)

// Sentry attaches a per-request hub so handlers can report errors with
// request context, and reports panics before re-raising them.
func Sentry() func(http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
	return h.Handle
}

// Recover turns a handler panic into a 500 and a logged stack trace.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}
			logging.Error("panic serving %s %s: %v\n%s",
				sanitizeLogField(r.Method), sanitizeLogField(r.URL.Path), rec, debug.Stack())
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
