package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
)

// Status is the normalized gateway verdict for a payment or payout.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// PaymentRequest initiates a mobile-money collection or payout.
type PaymentRequest struct {
	Account     string `json:"account"`
	Reference   string `json:"reference"`
	MSISDN      string `json:"msisdn"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// StatusResponse is the provider's status-check payload. The provider is
// inconsistent about which field carries the verdict, so both are kept.
type StatusResponse struct {
	Status     string `json:"status"`
	ItemStatus string `json:"item_status"`
	Message    string `json:"message"`
}

type apiResponse struct {
	Status  string `json:"status"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Client talks to the mobile-money provider's REST API.
type Client struct {
	http     *http.Client
	baseURL  string
	apiKey   string
	currency string
	cfg      config.GatewayConfig
}

// New builds a gateway client from configuration.
func New(cfg config.GatewayConfig) *Client {
	return &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		currency: cfg.Currency,
		cfg:      cfg,
	}
}

// WithHTTPClient swaps the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	if httpClient != nil {
		c.http = httpClient
	}
	return c
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	return c.currency
}

// RequestPayment asks the provider to collect from the payer. The provider
// confirms asynchronously via webhook or status polling; a non-2xx or error
// body here means the request itself failed.
func (c *Client) RequestPayment(ctx context.Context, req PaymentRequest) error {
	return c.post(ctx, "/payments", req)
}

// RequestPayout pushes money to a tenant's msisdn. Unlike collections the
// provider answers synchronously; the returned status is authoritative.
func (c *Client) RequestPayout(ctx context.Context, req PaymentRequest) (Status, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return StatusFailed, fmt.Errorf("marshal payout request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payouts", bytes.NewReader(body))
	if err != nil {
		return StatusFailed, fmt.Errorf("build payout request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return StatusFailed, fmt.Errorf("payout request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return StatusFailed, fmt.Errorf("read payout response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return StatusFailed, fmt.Errorf("payout rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return StatusFailed, fmt.Errorf("decode payout response: %w", err)
	}
	if parsed.Success != nil && !*parsed.Success {
		return StatusFailed, nil
	}
	if status := NormalizeStatus(parsed.Status, ""); status == StatusFailed {
		return StatusFailed, nil
	}
	return StatusSuccess, nil
}

// CheckStatus queries the provider for the current state of a collection.
// Transient transport errors are retried with exponential backoff up to the
// configured budget; a final error means the caller should keep the local
// transaction pending.
func (c *Client) CheckStatus(ctx context.Context, account, reference string) (Status, error) {
	endpoint := fmt.Sprintf("%s/payments/status?account=%s&reference=%s",
		c.baseURL, url.QueryEscape(account), url.QueryEscape(reference))

	var result Status
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		c.setHeaders(req)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status check: http %d", resp.StatusCode)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return backoff.Permanent(fmt.Errorf("status check rejected: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
		}

		var parsed StatusResponse
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode status response: %w", err))
		}
		result = NormalizeStatus(parsed.Status, parsed.ItemStatus)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	// Pin the schedule: the library default starts at 500ms, which can
	// burn the whole retry budget on the first wait.
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = c.cfg.StatusRetryMax
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return StatusPending, err
	}
	return result, nil
}

// NormalizeStatus folds the provider's status and item_status fields into a
// single verdict. Anything unrecognized stays pending.
func NormalizeStatus(status, itemStatus string) Status {
	for _, raw := range []string{itemStatus, status} {
		switch strings.ToUpper(strings.TrimSpace(raw)) {
		case "SUCCESS", "SUCCESSFUL", "COMPLETED":
			return StatusSuccess
		case "FAILED", "FAILURE", "REJECTED":
			return StatusFailed
		}
	}
	return StatusPending
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway rejected request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	if parsed.Success != nil && !*parsed.Success {
		return fmt.Errorf("gateway error: %s", parsed.Message)
	}
	if strings.EqualFold(parsed.Status, "error") {
		return fmt.Errorf("gateway error: %s", parsed.Message)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
}
