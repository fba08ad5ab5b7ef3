package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
)

// Sender delivers a short message to a single msisdn. Implementations must
// return a non-nil error when delivery was not accepted by the provider.
type Sender interface {
	Send(ctx context.Context, msisdn, message string) error
}

type sendRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Numbers  string `json:"numbers"`
	Message  string `json:"message"`
	Sender   string `json:"sender,omitempty"`
}

type sendResponse struct {
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Client talks to the SMS provider's REST API.
type Client struct {
	http     *http.Client
	baseURL  string
	username string
	password string
	sender   string
}

// New builds an SMS client from configuration.
func New(cfg config.SMSConfig) *Client {
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		sender:   cfg.Sender,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Send posts a message to the provider. The provider answers synchronously;
// a non-2xx response or an error body counts as a delivery failure.
func (c *Client) Send(ctx context.Context, msisdn, message string) error {
	payload := sendRequest{
		Username: c.username,
		Password: c.password,
		Numbers:  msisdn,
		Message:  message,
		Sender:   c.sender,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms provider rejected request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed sendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Some provider endpoints answer with a plain-text OK.
		return nil
	}
	if parsed.Success != nil && !*parsed.Success {
		return fmt.Errorf("sms delivery failed: %s", parsed.Message)
	}
	switch strings.ToLower(strings.TrimSpace(parsed.Status)) {
	case "error", "failed", "failure":
		return fmt.Errorf("sms delivery failed: %s", parsed.Message)
	}
	return nil
}
