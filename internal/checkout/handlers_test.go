package checkout_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nealfung/checkout-shop/internal/checkout"
	"github.com/nealfung/checkout-shop/internal/gateway"
)

type stubGateway struct {
	sessionCalls int
	refundCalls  int

	lastIntent    gateway.SessionIntent
	lastPaymentID string
	lastAmount    int64

	resp gateway.Response
	err  error
}

func (s *stubGateway) CreateSession(_ context.Context, in gateway.SessionIntent) (gateway.Response, error) {
	s.sessionCalls++
	s.lastIntent = in
	return s.resp, s.err
}

func (s *stubGateway) Refund(_ context.Context, paymentID string, amountMinor int64) (gateway.Response, error) {
	s.refundCalls++
	s.lastPaymentID = paymentID
	s.lastAmount = amountMinor
	return s.resp, s.err
}

func newHandler(gw *stubGateway) *checkout.HTTPHandler {
	svc := &checkout.Service{Gateway: gw, UnitPriceMinor: 9000, Currency: "HKD"}
	return checkout.NewHTTPHandler(svc, zerolog.Nop())
}

func post(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestCreateSessionComputesTotalServerSide(t *testing.T) {
	gw := &stubGateway{resp: gateway.Response{Status: http.StatusCreated, Body: []byte(`{"id":"ps_1"}`)}}
	h := newHandler(gw)

	rec := post(t, h.CreateSession, `{"quantity":3}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"ps_1"}`, rec.Body.String())
	require.Equal(t, 1, gw.sessionCalls)
	assert.Equal(t, int64(27000), gw.lastIntent.AmountMinor)
	assert.Equal(t, 3, gw.lastIntent.Quantity)
	assert.Equal(t, int64(9000), gw.lastIntent.UnitPriceMinor)
	assert.Equal(t, "HKD", gw.lastIntent.Currency)
}

func TestCreateSessionIgnoresClientSuppliedAmount(t *testing.T) {
	gw := &stubGateway{resp: gateway.Response{Status: http.StatusCreated, Body: []byte(`{}`)}}
	h := newHandler(gw)

	rec := post(t, h.CreateSession, `{"quantity":2,"amount":1}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(18000), gw.lastIntent.AmountMinor, "total must come from quantity, never from the request")
}

func TestCreateSessionRejectsInvalidQuantity(t *testing.T) {
	for _, body := range []string{
		`{"quantity":0}`,
		`{"quantity":-2}`,
		`{"quantity":"three"}`,
		`{}`,
		`not json`,
	} {
		gw := &stubGateway{}
		h := newHandler(gw)

		rec := post(t, h.CreateSession, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Contains(t, rec.Body.String(), "VALIDATION", "body %q", body)
		assert.Zero(t, gw.sessionCalls, "no outbound call for body %q", body)
	}
}

func TestCreateSessionPassesThroughProviderDecline(t *testing.T) {
	gw := &stubGateway{resp: gateway.Response{Status: http.StatusPaymentRequired, Body: []byte(`{"error_type":"processing_error"}`)}}
	h := newHandler(gw)

	rec := post(t, h.CreateSession, `{"quantity":1}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.JSONEq(t, `{"error_type":"processing_error"}`, rec.Body.String())
}

func TestCreateSessionTransportErrorIsOpaque(t *testing.T) {
	gw := &stubGateway{err: errors.New("dial tcp: connection refused")}
	h := newHandler(gw)

	rec := post(t, h.CreateSession, `{"quantity":1}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPSTREAM_UNREACHABLE")
	assert.NotContains(t, rec.Body.String(), "connection refused", "transport detail must not leak to clients")
}

func TestRefundConvertsAmountToMinorUnits(t *testing.T) {
	gw := &stubGateway{resp: gateway.Response{Status: http.StatusAccepted, Body: []byte(`{"action_id":"act_1"}`)}}
	h := newHandler(gw)

	rec := post(t, h.Refund, `{"paymentId":"pay_123","amount":10.005}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, 1, gw.refundCalls)
	assert.Equal(t, "pay_123", gw.lastPaymentID)
	assert.Equal(t, int64(1001), gw.lastAmount)
}

func TestRefundRejectsInvalidInput(t *testing.T) {
	for _, body := range []string{
		`{"amount":10}`,
		`{"paymentId":"pay_123"}`,
		`{"paymentId":"pay_123","amount":0}`,
		`{"paymentId":"pay_123","amount":-5}`,
		`{"paymentId":"pay_123","amount":"abc"}`,
	} {
		gw := &stubGateway{}
		h := newHandler(gw)

		rec := post(t, h.Refund, body)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.Zero(t, gw.refundCalls, "no outbound call for body %q", body)
	}
}

func TestRefundPassesThroughProviderError(t *testing.T) {
	gw := &stubGateway{resp: gateway.Response{Status: http.StatusUnprocessableEntity, Body: []byte(`{"error_codes":["refund_amount_exceeds_balance"]}`)}}
	h := newHandler(gw)

	rec := post(t, h.Refund, `{"paymentId":"pay_123","amount":99.99}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error_codes":["refund_amount_exceeds_balance"]}`, rec.Body.String())
}
