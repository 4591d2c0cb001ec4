package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with application-specific methods
type Logger struct {
	zerolog.Logger
}

// New creates a new Logger instance writing to stdout
func New(level string, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a Logger writing to w
func NewWithWriter(w io.Writer, level string, format string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = w
	if format == "text" || format == "console" {
		// Human-readable output for development
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()

	return &Logger{Logger: logger}
}

// Nop returns a Logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithRequestID returns a new logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With().Str("request_id", requestID).Logger(),
	}
}

// WithComponent returns a new logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, statusCode int, duration time.Duration, clientIP string) {
	l.Info().
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration", duration).
		Str("client_ip", clientIP).
		Msg("HTTP request")
}

// DeliveryAttempt describes one delivery for the log.
type DeliveryAttempt struct {
	RequestID         string
	Operation         string
	Channel           string
	Recipient         string
	ProviderMessageID string
	Duration          time.Duration
	Err               error
	ErrorKind         string
}

// Delivery logs the outcome of a delivery attempt. Failures are logged at
// error level with the cause so they can be diagnosed without a retry.
func (l *Logger) Delivery(a DeliveryAttempt) {
	event := l.Info()
	if a.Err != nil {
		event = l.Error().Err(a.Err).Str("error_kind", a.ErrorKind)
	}

	event = event.
		Str("operation", a.Operation).
		Str("channel", a.Channel).
		Str("recipient", a.Recipient).
		Dur("duration", a.Duration)

	if a.RequestID != "" {
		event = event.Str("request_id", a.RequestID)
	}
	if a.ProviderMessageID != "" {
		event = event.Str("provider_message_id", a.ProviderMessageID)
	}

	if a.Err != nil {
		event.Msg("delivery failed")
		return
	}
	event.Msg("delivery succeeded")
}
