package webhook

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/nealfung/checkout-shop/internal/common"
	"github.com/nealfung/checkout-shop/internal/obs"
)

// Handler terminates the gateway's webhook endpoint: verify first, parse
// second, dispatch last. An unverified body is never parsed.
type Handler struct {
	Verifier   *Verifier
	Dispatcher *Dispatcher
	Logger     zerolog.Logger
}

// Handle processes an inbound gateway notification.
func (h Handler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil || h.Dispatcher == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "webhook handler not configured", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unable to read payload", nil)
		return
	}

	if !h.Verifier.Verify(body, r.Header.Get(SignatureHeader)) {
		h.Logger.Warn().
			Str("remote_addr", common.ClientIP(r)).
			Msg("webhook signature mismatch")
		if obs.WebhookInboundTotal != nil {
			obs.WebhookInboundTotal.WithLabelValues("unknown", "rejected").Inc()
		}
		common.JSONError(w, http.StatusUnauthorized, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}

	evt, err := ParseEvent(body)
	if err != nil {
		// Authenticated but malformed: acknowledge so the provider stops
		// retrying a payload that will never parse, and keep the evidence
		// in the log.
		h.Logger.Error().Err(err).Msg("verified webhook body is not valid JSON")
		if obs.WebhookInboundTotal != nil {
			obs.WebhookInboundTotal.WithLabelValues("unknown", "unparseable").Inc()
		}
		common.JSON(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if err := h.Dispatcher.Dispatch(r.Context(), evt); err != nil {
		// Dispatch failures are internal; a non-2xx here would only trigger
		// a provider retry of an event we already accepted.
		h.Logger.Error().Err(err).
			Str("event_id", evt.ID).
			Str("event_type", evt.Type).
			Msg("webhook dispatch failed")
	}
	common.JSON(w, http.StatusOK, map[string]any{"received": true})
}
