// Package payment provides the Paystack payment gateway client. The gateway
// contract is deliberately small: initialize a transaction for an amount and
// payer, then verify its reference.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/marketrun/platform/internal/httputil"
)

// DefaultBaseURL is the production Paystack API endpoint.
const DefaultBaseURL = "https://api.paystack.co"

// VerifyStatus is the settlement state of a gateway transaction.
type VerifyStatus string

const (
	VerifySuccess   VerifyStatus = "success"
	VerifyAbandoned VerifyStatus = "abandoned"
	VerifyFailed    VerifyStatus = "failed"
	VerifyPending   VerifyStatus = "pending"
)

// InitResult is returned by Initialize. The client app redirects the payer to
// AuthorizationURL; Reference correlates the eventual verification.
type InitResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult reports the gateway's view of a transaction.
type VerifyResult struct {
	Status VerifyStatus
	// AmountKobo is the settled amount in kobo as reported by the gateway.
	AmountKobo int64
	PaidAt     string
	Channel    string
}

// Gateway is the contract checkout and wallet top-ups depend on. The Paystack
// client implements it; tests substitute stubs.
type Gateway interface {
	Initialize(ctx context.Context, email string, amountNaira int64, reference string) (InitResult, error)
	Verify(ctx context.Context, reference string) (VerifyResult, error)
}

// Client calls the Paystack REST API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

var _ Gateway = (*Client)(nil)

// Config holds Paystack connection settings.
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// NewClient creates a Paystack client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("paystack secret key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

const (
	maxResponseBytes  = 1 << 20  // 1 MiB
	maxErrorBodyBytes = 32 << 10 // 32 KiB
)

func (c *Client) request(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, truncated, readErr := httputil.ReadAllWithLimit(resp.Body, maxErrorBodyBytes)
		if readErr != nil {
			return nil, fmt.Errorf("read error response: %w", readErr)
		}
		msg := strings.TrimSpace(string(respBody))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, fmt.Errorf("paystack API error %d: %s", resp.StatusCode, msg)
	}

	return httputil.ReadAllStrict(resp.Body, maxResponseBytes)
}

// Initialize creates a gateway transaction. Amounts are converted to kobo,
// Paystack's smallest unit.
func (c *Client) Initialize(ctx context.Context, email string, amountNaira int64, reference string) (InitResult, error) {
	payload := map[string]interface{}{
		"email":     email,
		"amount":    amountNaira * 100,
		"reference": reference,
		"currency":  "NGN",
	}

	data, err := c.request(ctx, http.MethodPost, "/transaction/initialize", payload)
	if err != nil {
		return InitResult{}, err
	}

	root := gjson.ParseBytes(data)
	if !root.Get("status").Bool() {
		return InitResult{}, fmt.Errorf("paystack initialize rejected: %s", root.Get("message").String())
	}
	return InitResult{
		AuthorizationURL: root.Get("data.authorization_url").String(),
		AccessCode:       root.Get("data.access_code").String(),
		Reference:        root.Get("data.reference").String(),
	}, nil
}

// Verify fetches the settlement state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (VerifyResult, error) {
	data, err := c.request(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return VerifyResult{}, err
	}

	root := gjson.ParseBytes(data)
	if !root.Get("status").Bool() {
		return VerifyResult{}, fmt.Errorf("paystack verify rejected: %s", root.Get("message").String())
	}

	status := VerifyStatus(root.Get("data.status").String())
	switch status {
	case VerifySuccess, VerifyAbandoned, VerifyFailed, VerifyPending:
	default:
		status = VerifyPending
	}
	return VerifyResult{
		Status:     status,
		AmountKobo: root.Get("data.amount").Int(),
		PaidAt:     root.Get("data.paid_at").String(),
		Channel:    root.Get("data.channel").String(),
	}, nil
}
