// Package gateway talks to the hosted-checkout payment gateway used for
// escrow deposits.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leaseway/leaseway/internal/config"
	"github.com/leaseway/leaseway/internal/deposit/domain"
)

type checkoutSessionResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

type checkoutErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type CheckoutClient struct {
	apiKey     string
	successURL string
	cancelURL  string
	client     *http.Client
}

func NewCheckoutClient(cfg config.Config) *CheckoutClient {
	return &CheckoutClient{
		apiKey:     strings.TrimSpace(cfg.Payment.APIKey),
		successURL: cfg.Payment.SuccessURL,
		cancelURL:  cfg.Payment.CancelURL,
		client:     &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *CheckoutClient) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if c.apiKey == "" {
		return nil, domain.ErrGatewayUnavailable
	}

	successURL := req.SuccessURL
	if successURL == "" {
		successURL = c.successURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = c.cancelURL
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(req.Amount, 10))
	values.Set("line_items[0][price_data][product_data][name]", "Security deposit")
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", successURL)
	values.Set("cancel_url", cancelURL)
	values.Set("metadata[contract_id]", req.ContractID.String())
	values.Set("metadata[purpose]", "deposit_escrow")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.stripe.com/v1/checkout/sessions", strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// One checkout session per contract: redelivering the same request
	// must not open a second session at the gateway.
	httpReq.Header.Set("Idempotency-Key", "deposit:"+req.ContractID.String())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, domain.ErrGatewayUnavailable
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var gatewayErr checkoutErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&gatewayErr); err == nil && gatewayErr.Error.Message != "" {
			return nil, fmt.Errorf("checkout session rejected: %s", gatewayErr.Error.Message)
		}
		return nil, fmt.Errorf("checkout session rejected: status %d", resp.StatusCode)
	}

	var session checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &domain.CheckoutSession{
		ID:     session.ID,
		URL:    session.URL,
		Status: session.Status,
	}, nil
}
