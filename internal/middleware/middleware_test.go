package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/logger"
)

func newTestMiddleware(cfg *config.Config) *Middleware {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return New(nil, logger.Nop(), cfg)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(nil)
	h := mw.CORS([]string{"https://unveiledecho.com/", " http://localhost:5173 "})(okHandler)

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
		req.Header.Set("Origin", "https://unveiledecho.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://unveiledecho.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/api/send-email", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	})

	t.Run("unknown origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestMiddleware(nil).SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRateLimit_PassThroughWithoutRedis(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true, Limit: 1, Window: time.Minute}}
	mw := newTestMiddleware(cfg)
	h := mw.RateLimit(RateLimitConfig{Name: "intake", Limit: 1, Window: time.Minute, KeyFn: mw.ClientIP})(okHandler)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trusted []string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, nil, "203.0.113.9:51234", "203.0.113.9"},
		{"forwarded ignored from untrusted peer", nil, map[string]string{"X-Forwarded-For": "198.51.100.1"}, "203.0.113.9:80", "203.0.113.9"},
		{"real ip ignored from untrusted peer", nil, map[string]string{"X-Real-IP": "198.51.100.7"}, "203.0.113.9:80", "203.0.113.9"},
		{"trusted proxy", []string{"10.0.0.0/8"}, map[string]string{"X-Forwarded-For": "198.51.100.1"}, "10.0.0.3:80", "198.51.100.1"},
		{"spoofed leftmost hop", []string{"10.0.0.3"}, map[string]string{"X-Forwarded-For": "1.2.3.4, 198.51.100.1"}, "10.0.0.3:80", "198.51.100.1"},
		{"proxy chain", []string{"10.0.0.0/8"}, map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "10.0.0.3:80", "198.51.100.1"},
		{"real ip from trusted proxy", []string{"10.0.0.3"}, map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.3:80", "198.51.100.7"},
		{"invalid entry skipped", []string{"not-an-ip"}, map[string]string{"X-Forwarded-For": "198.51.100.1"}, "10.0.0.3:80", "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw := newTestMiddleware(&config.Config{Server: config.ServerConfig{TrustedProxies: tt.trusted}})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, mw.ClientIP(req))
		})
	}
}

func TestRateLimit_RotatingForwardedForDoesNotBypass(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(&config.Config{RateLimit: config.RateLimitConfig{Enabled: true}})
	mw.counter = &fakeCounter{}
	h := mw.RateLimit(RateLimitConfig{Name: "intake", Limit: 1, Window: time.Minute, KeyFn: mw.ClientIP})(okHandler)

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"198.51.100.1", "198.51.100.2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		req.Header.Set("X-Forwarded-For", spoofed)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRecover(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	newTestMiddleware(nil).Recover(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(nil)

	var seen string
	h := mw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
}

// fakeCounter is an in-memory windowCounter.
type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[key]++
	return f.counts[key], window, nil
}

func TestRateLimit_SharedBudget(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}
	mw := newTestMiddleware(cfg)
	counter := &fakeCounter{}
	mw.counter = counter

	limit := mw.RateLimit(RateLimitConfig{Name: "intake", Limit: 2, Window: 10 * time.Minute, KeyFn: mw.ClientIP})
	h := limit(okHandler)

	paths := []string{"/api/send-email", "/api/submit-to-sheets", "/api/send-test-email"}
	codes := make([]int, 0, len(paths))
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "203.0.113.9:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if rec.Code == http.StatusTooManyRequests {
			assert.JSONEq(t, `{"error":"Too many requests. Please try again later."}`, rec.Body.String())
			assert.Equal(t, "600", rec.Header().Get("Retry-After"))
			assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, int64(3), counter.counts["formrelay:ratelimit:intake:203.0.113.9"])

	// Another client has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/send-email", nil)
	req.RemoteAddr = "198.51.100.4:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_FailsOpenOnCounterError(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{RateLimit: config.RateLimitConfig{Enabled: true}}
	mw := newTestMiddleware(cfg)
	mw.counter = &fakeCounter{err: errors.New("connection refused")}

	h := mw.RateLimit(RateLimitConfig{Name: "intake", Limit: 1, Window: time.Minute, KeyFn: mw.ClientIP})(okHandler)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestID_RejectsUnsafeInbound(t *testing.T) {
	t.Parallel()

	var seen string
	h := newTestMiddleware(nil).RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	for _, inbound := range []string{strings.Repeat("a", maxRequestIDLen+1), "abc def", "id\r\nX-Evil: 1"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", inbound)
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, inbound, seen)
		assert.Len(t, seen, 36)
	}
}

func TestRecover_AfterResponseStarted(t *testing.T) {
	t.Parallel()

	h := newTestMiddleware(nil).Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
		panic("late")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/send-email", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"success":true}`, rec.Body.String())
}
