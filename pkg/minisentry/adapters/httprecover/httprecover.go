// Package httprecover integrates panic reporting into net/http servers.
//
// The middleware attaches a client to every request context and converts
// handler panics into reported events, answering 500 instead of letting
// the connection die with the goroutine. Reporting failures never affect
// the response.
package httprecover

import (
	"net/http"

	"github.com/m8522s/minisentry/pkg/minisentry"
)

// Middleware wraps next with panic reporting through client.
//
// The client is placed on the request context, so handlers can record
// breadcrumbs or capture their own events via
// minisentry.ClientFromContext. When next panics, the panic is reported
// as a fatal event naming the failing handler frame and the response is
// 500 Internal Server Error, unless the handler already wrote one.
func Middleware(client *minisentry.Client, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := minisentry.WithClient(r.Context(), client)

		wrapped := &statusRecorder{ResponseWriter: w}
		defer func() {
			if rec := recover(); rec != nil {
				_, _ = minisentry.CapturePanic(ctx, client, rec)
				if !wrapped.wroteHeader {
					http.Error(wrapped, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(wrapped, r.WithContext(ctx))
	})
}

// MiddlewareFunc is Middleware for plain handler functions.
func MiddlewareFunc(client *minisentry.Client, next http.HandlerFunc) http.Handler {
	return Middleware(client, next)
}

// statusRecorder tracks whether a header was written, so the recovery
// path does not write a second one on a partially sent response.
type statusRecorder struct {
	http.ResponseWriter
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}
