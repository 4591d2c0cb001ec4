package delivery

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// FromGoogleError classifies an error from a Google API client. A refused
// credential (token exchange failure, 401 or 403) is an AuthorizationFailure.
func FromGoogleError(channel string, err error) *Error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden {
			return Unauthorized(channel, err)
		}
		reason := gerr.Message
		if reason == "" {
			reason = err.Error()
		}
		de := Rejected(channel, reason, err)
		de.Detail = fmt.Sprintf("google api status %d", gerr.Code)
		return de
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return Unauthorized(channel, err)
	}

	return FromClientError(channel, err)
}
