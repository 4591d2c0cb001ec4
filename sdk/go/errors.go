package formrelay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents an error response from the formrelay API.
type APIError struct {
	StatusCode int `json:"-"`
	// Summary is the "error" field, for example "Failed to send email".
	Summary string `json:"error"`
	// Message is the delivery channel's reason, when the server gave one.
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("formrelay: API error %d: %s", e.StatusCode, e.Summary)
	}
	return fmt.Sprintf("formrelay: API error %d: %s: %s", e.StatusCode, e.Summary, e.Message)
}

// Invalid reports whether the request was rejected before any delivery.
func (e *APIError) Invalid() bool {
	return e.StatusCode == http.StatusBadRequest
}

// RateLimited reports whether the server asked the client to slow down.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func parseAPIError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Summary == "" {
		apiErr.Summary = http.StatusText(statusCode)
		apiErr.Message = string(body)
	}
	return apiErr
}

// IsAPIError checks whether err is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
