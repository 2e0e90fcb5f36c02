package webhook

import (
	"context"

	"github.com/rs/zerolog"
)

// Recorder performs the downstream side effects for verified payment events.
// With no database in this deployment the record is the structured log stream;
// the dispatcher's dedup store guarantees each event id is recorded once.
type Recorder struct {
	Logger zerolog.Logger
}

// PaymentCaptured records a successful capture.
func (rec Recorder) PaymentCaptured(_ context.Context, evt Event) error {
	rec.Logger.Info().
		Str("event_id", evt.ID).
		Str("payment_id", evt.Data.ID).
		Msg("payment captured")
	return nil
}

// PaymentRefunded records a completed refund.
func (rec Recorder) PaymentRefunded(_ context.Context, evt Event) error {
	rec.Logger.Info().
		Str("event_id", evt.ID).
		Str("payment_id", evt.Data.ID).
		Msg("payment refunded")
	return nil
}

// PaymentApproved records an approval.
func (rec Recorder) PaymentApproved(_ context.Context, evt Event) error {
	rec.Logger.Info().
		Str("event_id", evt.ID).
		Str("payment_id", evt.Data.ID).
		Msg("payment approved")
	return nil
}

// Unhandled records event types this service does not act on.
func (rec Recorder) Unhandled(_ context.Context, evt Event) error {
	rec.Logger.Info().
		Str("event_id", evt.ID).
		Str("event_type", evt.Type).
		Msg("webhook event type not handled")
	return nil
}
