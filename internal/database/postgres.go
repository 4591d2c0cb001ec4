package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/unveiledecho/formrelay/internal/config"
)

// Postgres is the connection pool behind the delivery log. Queries go
// through the embedded *sql.DB.
type Postgres struct {
	*sql.DB
}

// NewPostgres opens the pool and pings it once. A delivery log that cannot
// be reached at start-up is a configuration error, not a per-request one.
func NewPostgres(cfg config.DatabaseConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The delivery log writes one row per request
	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(max(1, maxConns/4))
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{DB: db}, nil
}

// HealthCheck pings the database for /api/health
func (p *Postgres) HealthCheck(ctx context.Context) error {
	return p.PingContext(ctx)
}
