package middleware

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/database"
	"github.com/unveiledecho/formrelay/internal/logger"
)

// windowCounter counts hits in a fixed window. *database.Redis satisfies it.
type windowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Middleware holds the HTTP middleware shared by every route.
type Middleware struct {
	counter windowCounter // nil when Redis is disabled
	trusted []netip.Prefix
	log     *logger.Logger
	cfg     *config.Config
}

// New creates a Middleware. rdb may be nil, in which case rate limiting
// passes every request through.
func New(rdb *database.Redis, log *logger.Logger, cfg *config.Config) *Middleware {
	m := &Middleware{log: log, cfg: cfg}
	if rdb != nil {
		m.counter = rdb
	}
	for _, entry := range cfg.Server.TrustedProxies {
		prefix, err := parseProxy(entry)
		if err != nil {
			log.Warn().Err(err).Str("entry", entry).Msg("ignoring invalid trusted proxy")
			continue
		}
		m.trusted = append(m.trusted, prefix)
	}
	return m
}

// parseProxy accepts a single address or a CIDR.
func parseProxy(entry string) (netip.Prefix, error) {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		return prefix.Masked(), err
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}
