package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nealfung/checkout-shop/internal/resilience"
)

// DefaultBaseURL points at the provider sandbox.
const DefaultBaseURL = "https://api.sandbox.checkout.com"

// Client relays session and refund requests to the payment provider's REST
// API with bearer-token authentication. Provider responses pass through
// unmodified; only transport failures surface as errors.
type Client struct {
	BaseURL             string
	SecretKey           string
	ProcessingChannelID string
	Merchant            Merchant
	HTTP                *resilience.HTTPClient
	Refs                ReferenceSource
}

// CreateSession opens a hosted payment session for the priced order intent.
func (c *Client) CreateSession(ctx context.Context, in SessionIntent) (Response, error) {
	payload := sessionPayload{
		Amount:      in.AmountMinor,
		Currency:    in.Currency,
		Reference:   c.Refs.Next("ORD"),
		DisplayName: c.Merchant.DisplayName,
		PaymentType: "Regular",
		Billing:     billingInfo{Address: billingAddress{Country: c.Merchant.BillingCountry}},
		Customer:    customerInfo{Name: c.Merchant.CustomerName, Email: c.Merchant.CustomerEmail},
		Items: []sessionItem{{
			Reference: c.Merchant.ItemReference,
			Name:      c.Merchant.ItemName,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPriceMinor,
		}},
		Capture:             true,
		ProcessingChannelID: c.ProcessingChannelID,
		SuccessURL:          c.Merchant.SuccessURL,
		FailureURL:          c.Merchant.FailureURL,
	}
	return c.post(ctx, "/payment-sessions", payload)
}

// Refund requests a refund against a previously captured payment. The amount
// is already converted to minor units by the caller.
func (c *Client) Refund(ctx context.Context, paymentID string, amountMinor int64) (Response, error) {
	payload := refundPayload{
		Amount:    amountMinor,
		Reference: c.Refs.Next("REF-" + paymentID),
	}
	return c.post(ctx, "/payments/"+paymentID+"/refunds", payload)
}

func (c *Client) post(ctx context.Context, path string, payload any) (Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("gateway: encode request: %w", err)
	}
	// A charge or refund attempt must not be abandoned when the storefront
	// client disconnects mid-request.
	ctx = context.WithoutCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+path, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("gateway: %s %s: %w", http.MethodPost, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("gateway: read response: %w", err)
	}
	return Response{Status: resp.StatusCode, Body: respBody}, nil
}

func (c *Client) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return DefaultBaseURL
	}
	return base
}
