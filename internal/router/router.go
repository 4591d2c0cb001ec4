package router

import (
	"net/http"

	"github.com/unveiledecho/formrelay/internal/config"
	"github.com/unveiledecho/formrelay/internal/handler"
	"github.com/unveiledecho/formrelay/internal/middleware"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check (never rate limited, never delivers)
	mux.HandleFunc("GET /api/health", h.Health)

	// One shared budget per client across every intake route
	intakeRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "intake",
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
		KeyFn:  mw.ClientIP,
	})

	// Form submission; the -resend path is kept for existing front ends
	sendEmail := intakeRateLimit(http.HandlerFunc(h.SendEmail))
	mux.Handle("POST /api/send-email", sendEmail)
	mux.Handle("POST /api/send-email-resend", sendEmail)

	// Configuration test
	sendTestEmail := intakeRateLimit(http.HandlerFunc(h.SendTestEmail))
	mux.Handle("POST /api/send-test-email", sendTestEmail)
	mux.Handle("POST /api/send-test-email-resend", sendTestEmail)

	// Spreadsheet intake
	mux.Handle("POST /api/submit-to-sheets", intakeRateLimit(http.HandlerFunc(h.SubmitToSheets)))

	// Apply middleware stack
	var handler http.Handler = mux

	// CORS for the website front end
	handler = mw.CORS(cfg.Server.AllowedOrigins)(handler)

	// Security headers
	handler = mw.SecurityHeaders(handler)

	// Request logging
	handler = mw.Logger(handler)

	// Timing
	handler = mw.Timing(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
