package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/unveiledecho/formrelay/internal/middleware"
	"github.com/unveiledecho/formrelay/internal/model"
)

// Response messages of the intake endpoints
const (
	submissionSentMessage  = "Form submission email sent successfully"
	submissionErrorMessage = "Failed to send email"
	testSentMessage        = "Test email sent successfully to %s"
	testErrorMessage       = "Failed to send test email"
	sheetsSentMessage      = "Submitted to Google Sheets"
	sheetsErrorMessage     = "Failed to submit to Google Sheets"
)

// SubmissionRequest is the contact form payload
type SubmissionRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	SubmittedAt string `json:"submittedAt"`
}

// TestEmailRequest is the test dispatch payload
type TestEmailRequest struct {
	TestEmail string `json:"testEmail"`
}

func (req SubmissionRequest) toSubmission(received time.Time) model.Submission {
	submittedAt, _ := model.ParseSubmittedAt(req.SubmittedAt, received)
	return model.Submission{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Message:     req.Message,
		SubmittedAt: submittedAt,
	}
}

// deliveryContext keeps an in-flight provider call alive when the client
// goes away.
func deliveryContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// SendEmail emails a contact form submission to the clinic owner
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage, "")
		return
	}

	receipt, err := h.intake.Submit(deliveryContext(r), middleware.GetRequestID(r.Context()), req.toSubmission(time.Now()))
	if err != nil {
		writeDeliveryError(w, err, submissionErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, deliveryResponse{
		Success: true,
		Message: submissionSentMessage,
		EmailID: receipt.ProviderMessageID,
	})
}

// SendTestEmail sends the configuration test email to the given address
func (h *Handler) SendTestEmail(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage, "")
		return
	}

	receipt, err := h.intake.SendTest(deliveryContext(r), middleware.GetRequestID(r.Context()), req.TestEmail)
	if err != nil {
		writeDeliveryError(w, err, testErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, deliveryResponse{
		Success: true,
		Message: fmt.Sprintf(testSentMessage, req.TestEmail),
		EmailID: receipt.ProviderMessageID,
	})
}

// SubmitToSheets appends a contact form submission to the spreadsheet
func (h *Handler) SubmitToSheets(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, invalidBodyMessage, "")
		return
	}

	if _, err := h.intake.AppendToSheet(deliveryContext(r), middleware.GetRequestID(r.Context()), req.toSubmission(time.Now())); err != nil {
		writeDeliveryError(w, err, sheetsErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, deliveryResponse{
		Success: true,
		Message: sheetsSentMessage,
	})
}
