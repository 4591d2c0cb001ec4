package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/unveiledecho/formrelay/internal/delivery"
)

const (
	invalidBodyMessage = "Invalid request body"
	maxBodyBytes       = 1 << 20
)

// deliveryResponse is the success body of every delivery endpoint
type deliveryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	EmailID string `json:"emailId,omitempty"`
}

// errorResponse is the failure body of every delivery endpoint
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, summary, message string) {
	writeJSON(w, status, errorResponse{Error: summary, Message: message})
}

// writeDeliveryError maps a failed attempt to its response. Invalid requests
// are 400 with the validation reason as the error; every other kind is a 500
// with the channel's reason as the message.
func writeDeliveryError(w http.ResponseWriter, err error, summary string) {
	if errors.Is(err, delivery.ErrInvalidRequest) {
		writeError(w, http.StatusBadRequest, delivery.ReasonOf(err), "")
		return
	}
	writeError(w, http.StatusInternalServerError, summary, delivery.ReasonOf(err))
}

// readJSON decodes the request body into v. Unknown fields are ignored; the
// website sends extra metadata alongside the form fields. An empty body
// decodes as an empty object so validation reports the missing fields.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
