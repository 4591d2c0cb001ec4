package handler

import (
	"context"
	"net/http"
	"time"
)

const (
	healthStatus  = "ok"
	healthMessage = "Backend server is running"

	channelConfigured    = "✓ Configured"
	channelNotConfigured = "✗ Not configured"
)

type serviceCheck struct {
	name  string
	check func(context.Context) error
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Services map[string]string `json:"services"`
}

// Health reports whether the delivery channel is configured and whether the
// optional backing services respond. It never attempts a delivery and always
// answers 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	services := make(map[string]string)

	name, configured := h.intake.ChannelStatus()
	if configured {
		services[name] = channelConfigured
	} else {
		services[name] = channelNotConfigured
	}

	for _, s := range h.services {
		if err := s.check(ctx); err != nil {
			h.log.Warn().Err(err).Str("service", s.name).Msg("health check failed")
			services[s.name] = "unhealthy"
		} else {
			services[s.name] = "healthy"
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   healthStatus,
		Message:  healthMessage,
		Services: services,
	})
}
