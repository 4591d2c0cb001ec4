package middleware

import (
	"net/http"
	"time"
)

// responseWriter records the status code and whether the header went out.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logger writes one line per request. Health probes are logged at debug.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := GetStartTime(r.Context())
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		log := m.log.WithRequestID(GetRequestID(r.Context()))
		if r.URL.Path == "/api/health" && wrapped.statusCode == http.StatusOK {
			log.Debug().Str("client_ip", m.ClientIP(r)).Dur("duration", time.Since(start)).Msg("health probe")
			return
		}
		log.HTTPRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), m.ClientIP(r))
	})
}
