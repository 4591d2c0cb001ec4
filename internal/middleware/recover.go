package middleware

import (
	"net/http"
	"runtime/debug"
)

const internalErrorBody = `{"error":"Internal server error"}`

// Recover turns a panic into a JSON 500. When the handler already started
// its response the status cannot change, so only the log line is written.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)

		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			// RequestID runs inside Recover, so the ID is read back from the header.
			m.log.WithRequestID(rw.Header().Get("X-Request-ID")).Error().
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bool("response_started", rw.wroteHeader).
				Msg("panic recovered")

			if rw.wroteHeader {
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			rw.WriteHeader(http.StatusInternalServerError)
			rw.Write([]byte(internalErrorBody))
		}()

		next.ServeHTTP(rw, r)
	})
}
