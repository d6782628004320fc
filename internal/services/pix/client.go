package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Paulo-CJ-Neto/IngressoHub-sub000/internal/status"
)

type ClientConfig struct {
	BaseURL string        `json:"baseUrl" mapstructure:"base_url"`
	APIKey  string        `json:"apiKey" mapstructure:"api_key"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Client is the low-level HTTP client for the PIX provider backend.
type Client struct {
	// baseURL is the base url of the provider backend.
	baseURL string

	// apiKey authenticates every request as a bearer token.
	apiKey string

	// hc is the http client. Every provider call is bounded by its
	// timeout so a slow provider can never stall a request handler
	// indefinitely.
	hc *http.Client
}

func newClient(c *ClientConfig) *Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: c.BaseURL,
		apiKey:  c.APIKey,
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

type chargePayload struct {
	CorrelationID string          `json:"correlationId"`
	Value         decimal.Decimal `json:"value"`
	Description   string          `json:"description"`
	Customer      struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		TaxID    string `json:"taxId"`
	} `json:"customer"`
}

type chargeReply struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	BRCode       string `json:"brCode"`
	BRCodeBase64 string `json:"brCodeBase64"`
	ExpiresAt    string `json:"expiresAt"`
}

// createCharge asks the provider backend for a new PIX charge.
func (c *Client) createCharge(ctx context.Context, p *chargePayload) (*chargeReply, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("createCharge: json.Marshal: %w", err)
	}

	_baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("createCharge: url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/v1/charges"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("createCharge: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("createCharge: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if err := replyError(resp); err != nil {
		return nil, err
	}

	var reply chargeReply
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return nil, status.NewProviderError(status.ProviderMalformed, resp.StatusCode, fmt.Sprintf("json.Decode: %v", err))
	}

	// A charge without an id or a copy-paste code is unusable.
	if reply.ID == "" || reply.BRCode == "" {
		return nil, status.NewProviderError(status.ProviderMalformed, resp.StatusCode, "missing charge id or brCode")
	}

	return &reply, nil
}

// checkCharge fetches the provider-side status of an existing charge.
func (c *Client) checkCharge(ctx context.Context, chargeID string) (string, error) {
	_baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("checkCharge: url.Parse: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/charges/%s", _baseURL.String(), url.PathEscape(chargeID)), nil)
	if err != nil {
		return "", fmt.Errorf("checkCharge: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkCharge: http.Do: %w", err)
	}
	defer resp.Body.Close()

	if err := replyError(resp); err != nil {
		return "", err
	}

	var reply struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", status.NewProviderError(status.ProviderMalformed, resp.StatusCode, fmt.Sprintf("json.Decode: %v", err))
	}
	if reply.Status == "" {
		return "", status.NewProviderError(status.ProviderMalformed, resp.StatusCode, "missing charge status")
	}

	return reply.Status, nil
}

// replyError maps a non-2xx provider response onto the error taxonomy.
func replyError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated {
		return nil
	}

	rbody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	kind := status.ProviderGeneric
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = status.ProviderAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = status.ProviderValidation
	}

	return status.NewProviderError(kind, resp.StatusCode, string(rbody))
}
