package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/nealfung/checkout-shop/internal/common"
	"github.com/nealfung/checkout-shop/internal/gateway"
	"github.com/nealfung/checkout-shop/internal/obs"
)

// HTTPHandler exposes the checkout flow over HTTP. Provider responses pass
// through with their original status and body; only transport failures are
// replaced by an opaque 500.
type HTTPHandler struct {
	Service  *Service
	Logger   zerolog.Logger
	validate *validator.Validate
}

// NewHTTPHandler wires the checkout service into HTTP handlers.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		Service:  svc,
		Logger:   logger,
		validate: validator.New(),
	}
}

// CreateSession handles POST /create-payment-sessions.
func (h *HTTPHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var in SessionInput
	if !h.decode(w, r, &in) {
		return
	}
	resp, err := h.Service.CreateSession(r.Context(), in)
	h.relay(w, "session_create", resp, err)
	if err == nil && obs.SessionCreateTotal != nil {
		obs.SessionCreateTotal.WithLabelValues(outcome(resp.OK())).Inc()
	}
}

// Refund handles POST /refund-payment.
func (h *HTTPHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var in RefundInput
	if !h.decode(w, r, &in) {
		return
	}
	resp, err := h.Service.Refund(r.Context(), in)
	h.relay(w, "refund", resp, err)
	if err == nil && obs.RefundTotal != nil {
		obs.RefundTotal.WithLabelValues(outcome(resp.OK())).Inc()
	}
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid request payload", nil)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid request payload", validationDetails(err))
		return false
	}
	return true
}

func (h *HTTPHandler) relay(w http.ResponseWriter, op string, resp gateway.Response, err error) {
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
			return
		}
		// Transport failure: nothing from the provider to relay, and the
		// underlying error may leak infrastructure detail, so the client
		// gets an opaque envelope.
		h.Logger.Error().Err(err).Str("operation", op).Msg("payment gateway unreachable")
		common.JSONError(w, http.StatusInternalServerError, "UPSTREAM_UNREACHABLE", "payment provider request failed", nil)
		return
	}
	common.Passthrough(w, resp.Status, resp.Body)
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

func outcome(ok bool) string {
	if ok {
		return "accepted"
	}
	return "declined"
}
