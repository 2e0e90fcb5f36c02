package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nealfung/checkout-shop/internal/obs"
)

type replayStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// HandlerFunc processes a verified event. Implementations must be idempotent
// with respect to retries that slip past the dedup store.
type HandlerFunc func(ctx context.Context, evt Event) error

// Dispatcher routes verified events by type. Each event id is applied at most
// once: replays are acknowledged upstream but skipped here. Delivery order is
// not guaranteed by the provider, so handlers must not depend on sequence.
type Dispatcher struct {
	Replay    replayStore
	ReplayTTL time.Duration
	Logger    zerolog.Logger

	handlers map[string]HandlerFunc
	fallback HandlerFunc
}

// Register binds a handler to an event type.
func (d *Dispatcher) Register(eventType string, fn HandlerFunc) {
	if d.handlers == nil {
		d.handlers = make(map[string]HandlerFunc)
	}
	d.handlers[eventType] = fn
}

// RegisterDefault binds the handler invoked for unrecognised event types.
func (d *Dispatcher) RegisterDefault(fn HandlerFunc) {
	d.fallback = fn
}

// Dispatch applies the event's side effect exactly once. A replayed event
// returns nil without invoking any handler.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) error {
	label := typeLabel(evt.Type)
	if d.Replay != nil && d.ReplayTTL > 0 {
		key := "ckowh:evt:" + evt.DedupKey()
		ok, err := d.Replay.SetNX(ctx, key, "1", d.ReplayTTL).Result()
		if err != nil {
			d.count(label, "replay_store_error")
			return fmt.Errorf("webhook: replay store: %w", err)
		}
		if !ok {
			d.Logger.Info().Str("event_id", evt.ID).Str("event_type", evt.Type).Msg("webhook replay skipped")
			if obs.WebhookReplaySkipped != nil {
				obs.WebhookReplaySkipped.Inc()
			}
			d.count(label, "replay")
			return nil
		}
	}

	fn, ok := d.handlers[evt.Type]
	if !ok {
		fn = d.fallback
	}
	if fn == nil {
		d.Logger.Info().Str("event_type", evt.Type).Msg("unhandled webhook event type")
		d.count(label, "unhandled")
		return nil
	}
	if err := fn(ctx, evt); err != nil {
		d.count(label, "error")
		return fmt.Errorf("webhook: dispatch %s: %w", label, err)
	}
	d.count(label, "processed")
	return nil
}

func (d *Dispatcher) count(eventType, result string) {
	if obs.WebhookInboundTotal != nil {
		obs.WebhookInboundTotal.WithLabelValues(eventType, result).Inc()
	}
}

func typeLabel(eventType string) string {
	trimmed := strings.TrimSpace(strings.ToLower(eventType))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
