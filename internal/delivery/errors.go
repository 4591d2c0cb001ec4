package delivery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Kind classifies why a delivery did not happen.
type Kind string

const (
	KindInvalidRequest       Kind = "invalid_request"
	KindNotConfigured        Kind = "channel_not_configured"
	KindProviderRejected     Kind = "provider_rejected"
	KindTransportFailure     Kind = "transport_failure"
	KindAuthorizationFailure Kind = "authorization_failure"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrNotConfigured        = errors.New("channel not configured")
	ErrProviderRejected     = errors.New("provider rejected delivery")
	ErrTransportFailure     = errors.New("transport failure")
	ErrAuthorizationFailure = errors.New("authorization failure")
)

var sentinels = map[Kind]error{
	KindInvalidRequest:       ErrInvalidRequest,
	KindNotConfigured:        ErrNotConfigured,
	KindProviderRejected:     ErrProviderRejected,
	KindTransportFailure:     ErrTransportFailure,
	KindAuthorizationFailure: ErrAuthorizationFailure,
}

// Error is the Failed outcome of a delivery attempt.
// Reason is safe to return to the caller; Detail carries provider specifics
// that are only logged.
type Error struct {
	Kind    Kind
	Channel string
	Reason  string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Channel == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Channel, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// Invalid builds an InvalidRequest error.
func Invalid(reason string) *Error {
	return &Error{Kind: KindInvalidRequest, Reason: reason}
}

// NotConfigured builds a ChannelNotConfigured error naming the missing settings.
func NotConfigured(channel string, missing ...string) *Error {
	reason := channel + " not configured"
	if len(missing) > 0 {
		reason += ": missing " + strings.Join(missing, ", ")
	}
	return &Error{Kind: KindNotConfigured, Channel: channel, Reason: reason}
}

// Rejected builds a ProviderRejected error from the provider's own message.
func Rejected(channel, reason string, err error) *Error {
	return &Error{Kind: KindProviderRejected, Channel: channel, Reason: reason, Err: err}
}

// Transport builds a TransportFailure error from a client library error.
func Transport(channel string, err error) *Error {
	return &Error{Kind: KindTransportFailure, Channel: channel, Reason: err.Error(), Err: err}
}

// Unauthorized builds an AuthorizationFailure error.
func Unauthorized(channel string, err error) *Error {
	return &Error{
		Kind:    KindAuthorizationFailure,
		Channel: channel,
		Reason:  "authorization failed: " + err.Error(),
		Err:     err,
	}
}

// FromClientError classifies an error returned by a provider SDK call.
// Network level failures become TransportFailure, anything else is treated
// as the provider refusing the request.
func FromClientError(channel string, err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	if isTransport(err) {
		return Transport(channel, err)
	}
	return Rejected(channel, err.Error(), err)
}

func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// KindOf returns the kind of err, or an empty Kind when err is not a delivery error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// ReasonOf returns the caller-facing reason for err.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return err.Error()
}
