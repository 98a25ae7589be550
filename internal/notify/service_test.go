package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

type delivered struct {
	userID, subject, body string
}

func testService() (*Service, *[]delivered) {
	var got []delivered
	s := &Service{
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notify: func(_ context.Context, userID, subject, body string) error {
			got = append(got, delivered{userID, subject, body})
			return nil
		},
	}
	return s, &got
}

func message(eventType string, payload any) kafkago.Message {
	env := market.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleOrderPaid(t *testing.T) {
	s, got := testService()
	m := message(market.EventOrderPaid, market.OrderPaidPayload{
		OrderID: "o1", BuyerID: "alice", TotalCents: 1200,
	})
	if err := s.HandleOrderPaid(context.Background(), m); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(*got) != 1 || (*got)[0].userID != "alice" {
		t.Fatalf("delivered = %+v", *got)
	}
}

func TestHandleOrderCancelledWording(t *testing.T) {
	s, got := testService()

	refund := message(market.EventOrderCancelled, market.OrderCancelledPayload{
		OrderID: "o1", BuyerID: "alice", Reason: "refund",
	})
	expired := message(market.EventOrderCancelled, market.OrderCancelledPayload{
		OrderID: "o2", BuyerID: "alice", Reason: "expired",
	})
	if err := s.HandleOrderCancelled(context.Background(), refund); err != nil {
		t.Fatal(err)
	}
	if err := s.HandleOrderCancelled(context.Background(), expired); err != nil {
		t.Fatal(err)
	}
	if len(*got) != 2 {
		t.Fatalf("delivered = %+v", *got)
	}
	if (*got)[0].subject != "Refund issued" {
		t.Fatalf("refund subject = %q", (*got)[0].subject)
	}
	if (*got)[1].subject != "Order cancelled" {
		t.Fatalf("expiry subject = %q", (*got)[1].subject)
	}
}

func TestHandlerIgnoresForeignEventTypes(t *testing.T) {
	s, got := testService()
	m := message(market.EventOrderCreated, market.OrderCreatedPayload{OrderID: "o1"})
	if err := s.HandleOrderPaid(context.Background(), m); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(*got) != 0 {
		t.Fatalf("delivered = %+v, want none", *got)
	}
}
