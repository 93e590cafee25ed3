package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Kiran3100/Hostel-Main-sub019/api/responses"
	pkgerrors "github.com/Kiran3100/Hostel-Main-sub019/pkg/errors"
	"github.com/Kiran3100/Hostel-Main-sub019/pkg/logger"
)

// headerTracker notes whether a handler already started its response.
type headerTracker struct {
	http.ResponseWriter
	started bool
}

func (h *headerTracker) WriteHeader(status int) {
	h.started = true
	h.ResponseWriter.WriteHeader(status)
}

func (h *headerTracker) Write(b []byte) (int, error) {
	h.started = true
	return h.ResponseWriter.Write(b)
}

func (h *headerTracker) Unwrap() http.ResponseWriter {
	return h.ResponseWriter
}

// Recoverer turns handler panics into a 500 envelope. A panic after the
// response has started is only logged since the status line is already sent.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracker := &headerTracker{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{
						"event":            "panic.recovered",
						"method":           r.Method,
						"path":             r.URL.Path,
						"response_started": tracker.started,
						"stack":            string(debug.Stack()),
					})
					logg.Error(ctx, "panic.recovered", err)
				}
				if tracker.started {
					return
				}
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(tracker, r)
		})
	}
}
