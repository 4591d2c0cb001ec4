package formrelay

// Submission is a contact form submission.
type Submission struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Message     string `json:"message"`
	SubmittedAt string `json:"submittedAt,omitempty"`
}

type submissionPayload struct {
	Submission
	Type string `json:"type"`
}

type testEmailPayload struct {
	TestEmail string `json:"testEmail"`
}

// DeliveryResponse is returned when a delivery succeeds.
type DeliveryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// EmailID is the provider's message ID, when it returns one.
	EmailID string `json:"emailId,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Services map[string]string `json:"services"`
}
