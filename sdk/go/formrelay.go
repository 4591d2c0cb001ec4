// Package formrelay is a Go client for the formrelay contact form API.
package formrelay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the formrelay client.
type Config struct {
	// BaseURL is the root URL of the formrelay server, for example
	// "https://api.unveiledecho.com". Default: "http://localhost:3001"
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 30s timeout is used. Delivery calls
	// wait for the provider, so keep the timeout generous.
	HTTPClient *http.Client

	// Now stamps submissions that carry no submittedAt. Default: time.Now
	Now func() time.Time
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:3001"
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Client is the formrelay SDK client.
type Client struct {
	cfg Config
}

// NewClient creates a new formrelay client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// SubmitForm emails a contact form submission to the clinic owner.
// SubmittedAt is set to the current time when empty.
func (c *Client) SubmitForm(ctx context.Context, sub Submission) (*DeliveryResponse, error) {
	payload := submissionPayload{Submission: c.stamp(sub), Type: "form_submission"}
	return c.deliver(ctx, "/api/send-email", payload)
}

// SendTestEmail asks the server to send the configuration test email.
func (c *Client) SendTestEmail(ctx context.Context, testEmail string) (*DeliveryResponse, error) {
	return c.deliver(ctx, "/api/send-test-email", testEmailPayload{TestEmail: testEmail})
}

// SubmitToSheets appends a contact form submission to the clinic spreadsheet.
func (c *Client) SubmitToSheets(ctx context.Context, sub Submission) (*DeliveryResponse, error) {
	return c.deliver(ctx, "/api/submit-to-sheets", c.stamp(sub))
}

// Health returns the server status and per-service configuration.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("formrelay: failed to parse health response: %w", err)
	}
	return &resp, nil
}

func (c *Client) stamp(sub Submission) Submission {
	if sub.SubmittedAt == "" {
		sub.SubmittedAt = c.cfg.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	}
	return sub
}

func (c *Client) deliver(ctx context.Context, path string, payload interface{}) (*DeliveryResponse, error) {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var resp DeliveryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("formrelay: failed to parse response: %w", err)
	}
	return &resp, nil
}

// do sends a request to the formrelay API.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("formrelay: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("formrelay: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("formrelay: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("formrelay: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return body, nil
}
