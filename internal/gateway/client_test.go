package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nealfung/checkout-shop/internal/gateway"
	"github.com/nealfung/checkout-shop/internal/resilience"
)

func newClient(baseURL string, hc *http.Client) *gateway.Client {
	return &gateway.Client{
		BaseURL:             baseURL,
		SecretKey:           "sk_test_123",
		ProcessingChannelID: "pc_abc",
		Merchant: gateway.Merchant{
			DisplayName:    "Online shop",
			BillingCountry: "HK",
			CustomerName:   "Test Customer",
			CustomerEmail:  "customer@example.com",
			ItemName:       "Phone case",
			ItemReference:  "0001",
			SuccessURL:     "https://example.com/payments/success",
			FailureURL:     "https://example.com/payments/failure",
		},
		HTTP: &resilience.HTTPClient{Client: hc, MaxAttempts: 1, Timeout: time.Second},
	}
}

func TestCreateSessionSendsServerComputedAmount(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode session payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ps_123"}`))
	}))
	t.Cleanup(srv.Close)

	client := newClient(srv.URL, srv.Client())
	resp, err := client.CreateSession(context.Background(), gateway.SessionIntent{
		AmountMinor:    27000,
		Currency:       "HKD",
		Quantity:       3,
		UnitPriceMinor: 9000,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Status)
	}
	if string(resp.Body) != `{"id":"ps_123"}` {
		t.Fatalf("body not passed through verbatim: %s", resp.Body)
	}
	if auth != "Bearer sk_test_123" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if got["amount"].(float64) != 27000 {
		t.Fatalf("expected amount 27000 got %v", got["amount"])
	}
	if got["currency"] != "HKD" {
		t.Fatalf("expected currency HKD got %v", got["currency"])
	}
	if got["processing_channel_id"] != "pc_abc" {
		t.Fatalf("expected processing channel got %v", got["processing_channel_id"])
	}
	items := got["items"].([]any)
	item := items[0].(map[string]any)
	if item["quantity"].(float64) != 3 || item["unit_price"].(float64) != 9000 {
		t.Fatalf("unexpected item payload %v", item)
	}
}

func TestCreateSessionForwardsProviderErrorVerbatim(t *testing.T) {
	providerBody := `{"error_type":"request_invalid","error_codes":["amount_invalid"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(providerBody))
	}))
	t.Cleanup(srv.Close)

	client := newClient(srv.URL, srv.Client())
	resp, err := client.CreateSession(context.Background(), gateway.SessionIntent{AmountMinor: 9000, Currency: "HKD", Quantity: 1, UnitPriceMinor: 9000})
	if err != nil {
		t.Fatalf("pass-through must not error: %v", err)
	}
	if resp.Status != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", resp.Status)
	}
	if string(resp.Body) != providerBody {
		t.Fatalf("provider body altered: %s", resp.Body)
	}
}

func TestCreateSessionTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newClient(srv.URL, &http.Client{})
	_, err := client.CreateSession(context.Background(), gateway.SessionIntent{AmountMinor: 9000, Currency: "HKD", Quantity: 1, UnitPriceMinor: 9000})
	if err == nil {
		t.Fatal("expected transport error")
	}
}

func TestRefundTargetsPaymentPath(t *testing.T) {
	var path string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"action_id":"act_1"}`))
	}))
	t.Cleanup(srv.Close)

	client := newClient(srv.URL, srv.Client())
	resp, err := client.Refund(context.Background(), "pay_123", 1001)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if path != "/payments/pay_123/refunds" {
		t.Fatalf("unexpected path %q", path)
	}
	if resp.Status != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Status)
	}
	if got["amount"].(float64) != 1001 {
		t.Fatalf("expected amount 1001 got %v", got["amount"])
	}
	ref, _ := got["reference"].(string)
	if !strings.HasPrefix(ref, "REF-pay_123-") {
		t.Fatalf("unexpected refund reference %q", ref)
	}
}

func TestReferencesAreUniqueAcrossCalls(t *testing.T) {
	var refs gateway.ReferenceSource
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := refs.Next("ORD")
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}
