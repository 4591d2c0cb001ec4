package handler

import (
	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/database"
	"github.com/unveiledecho/formrelay/internal/logger"
	"github.com/unveiledecho/formrelay/internal/service"
)

// Handler holds all HTTP handlers
type Handler struct {
	db       *database.Postgres // nil when the delivery log is disabled
	rdb      *database.Redis    // nil when rate limiting is disabled
	log      *logger.Logger
	cfg      *config.Config
	intake   *service.IntakeService
	services []serviceCheck
}

// New creates a new Handler instance
func New(db *database.Postgres, rdb *database.Redis, log *logger.Logger, cfg *config.Config, intake *service.IntakeService) *Handler {
	h := &Handler{
		db:     db,
		rdb:    rdb,
		log:    log.WithComponent("handler"),
		cfg:    cfg,
		intake: intake,
	}
	if db != nil {
		h.services = append(h.services, serviceCheck{name: "postgres", check: db.HealthCheck})
	}
	if rdb != nil {
		h.services = append(h.services, serviceCheck{name: "redis", check: rdb.HealthCheck})
	}
	return h
}
