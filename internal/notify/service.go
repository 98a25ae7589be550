package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/redisx"
)

// Service turns order lifecycle events into buyer notifications. The real
// channel (email, push) sits behind Notify; the default just logs, which is
// enough for dev and for the consumer wiring to be exercised end to end.
type Service struct {
	Redis *redis.Client
	Log   *slog.Logger

	// Notify delivers one rendered notification. Nil means log-only.
	Notify func(ctx context.Context, userID, subject, body string) error
}

// HandleOrderPaid is installed as the consumer handler for the paid topic.
func (s *Service) HandleOrderPaid(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderPaid {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}
	p, err := kafkax.UnwrapPayload[market.OrderPaidPayload](env.Payload)
	if err != nil {
		return err
	}
	subject := "Payment received"
	body := fmt.Sprintf("Your order %s is confirmed. Total charged: %d cents.", p.OrderID, p.TotalCents)
	return s.deliver(ctx, p.BuyerID, subject, body, env)
}

// HandleOrderCancelled covers both refunds and expiry; the reason in the
// payload picks the wording.
func (s *Service) HandleOrderCancelled(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderCancelled {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}
	p, err := kafkax.UnwrapPayload[market.OrderCancelledPayload](env.Payload)
	if err != nil {
		return err
	}
	subject := "Order cancelled"
	body := fmt.Sprintf("Your order %s was cancelled.", p.OrderID)
	if p.Reason == "refund" {
		subject = "Refund issued"
		body = fmt.Sprintf("Your order %s was refunded. The amount will return to your payment method.", p.OrderID)
	}
	return s.deliver(ctx, p.BuyerID, subject, body, env)
}

func (s *Service) seen(ctx context.Context, eventID string) bool {
	if s.Redis == nil {
		return false
	}
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return true
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	return false
}

func (s *Service) deliver(ctx context.Context, userID, subject, body string, env market.Envelope) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("notification",
		"user_id", userID,
		"subject", subject,
		"event_id", env.EventID,
		"order_id", env.CorrelationID,
	)
	if s.Notify == nil {
		return nil
	}
	return s.Notify(ctx, userID, subject, body)
}
