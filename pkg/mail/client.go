// Package mail is a thin client for the transactional mail API. Mail is
// best-effort in this platform; callers log failures and move on.
package mail

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

// Sender delivers a transactional email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Client posts messages to an HTTP mail API.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	from    string
}

// New builds a mail client. A client with no base URL is valid and drops
// every message, which keeps mail optional in development.
func New(cfg config.MailConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		from:    cfg.From,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Send posts one message. With no base URL configured it is a no-op.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if c.baseURL == "" {
		return nil
	}
	payload, err := json.Marshal(sendRequest{From: c.from, To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("mail provider rejected request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
