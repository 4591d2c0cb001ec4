package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig holds configuration for a specific rate limit
type RateLimitConfig struct {
	Name   string
	Limit  int
	Window time.Duration
	KeyFn  func(*http.Request) string
}

const rateLimitedBody = `{"error":"Too many requests. Please try again later."}`

// RateLimit creates a fixed-window rate limiting middleware backed by Redis.
// It is a no-op when rate limiting is disabled or Redis is not connected, and
// it fails open when Redis errors.
func (m *Middleware) RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.cfg.RateLimit.Enabled || m.counter == nil || cfg.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := fmt.Sprintf("formrelay:ratelimit:%s:%s", cfg.Name, cfg.KeyFn(r))

			count, ttl, err := m.counter.IncrWindow(ctx, key, cfg.Window)
			if err != nil {
				m.log.Error().Err(err).Str("key", key).Msg("failed to increment rate limit counter")
				next.ServeHTTP(w, r)
				return
			}

			resetTime := time.Now().Add(ttl).Unix()

			// Set rate limit headers
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, cfg.Limit-int(count))))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

			// Check if limit exceeded
			if int(count) > cfg.Limit {
				m.log.Warn().
					Str("request_id", GetRequestID(ctx)).
					Str("client_ip", m.ClientIP(r)).
					Str("path", r.URL.Path).
					Msg("rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.FormatInt(int64(ttl.Seconds()), 10))
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(rateLimitedBody))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the client address used as the rate limit key and in
// request logs. Forwarding headers are honoured only when the peer is a
// configured trusted proxy; X-Forwarded-For is then read right to left and
// the first hop that is not itself trusted wins.
func (m *Middleware) ClientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !m.isTrusted(peer) {
		return peer
	}

	if forwarded := r.Header.Values("X-Forwarded-For"); len(forwarded) > 0 {
		hops := strings.Split(strings.Join(forwarded, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if !m.isTrusted(hop) || i == 0 {
				return hop
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return peer
}

func (m *Middleware) isTrusted(host string) bool {
	if len(m.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range m.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
