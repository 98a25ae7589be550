package checkout

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-marketplace-checkout.git/internal/kafka"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

func (s *Service) publishCreated(o market.Order, items []market.OrderItem) {
	snaps := make([]market.ItemSnapshot, 0, len(items))
	for _, it := range items {
		snaps = append(snaps, market.ItemSnapshot{
			ListingID:  it.SnapshotListingID,
			Title:      it.SnapshotListingTitle,
			SellerID:   it.SnapshotSellerID,
			Qty:        it.Quantity,
			PriceCents: it.SnapshotPriceCents,
		})
	}
	s.publish(s.Created, market.EventOrderCreated, o.ID, market.OrderCreatedPayload{
		OrderID: o.ID, BuyerID: o.BuyerID, TotalCents: o.TotalCents, Items: snaps,
	})
}

func (s *Service) publishPaid(o market.Order) {
	s.publish(s.Paid, market.EventOrderPaid, o.ID, market.OrderPaidPayload{
		OrderID: o.ID, BuyerID: o.BuyerID, TotalCents: o.TotalCents,
	})
}

func (s *Service) publishCancelled(o market.Order, reason string) {
	s.publish(s.Cancelled, market.EventOrderCancelled, o.ID, market.OrderCancelledPayload{
		OrderID: o.ID, BuyerID: o.BuyerID, Reason: reason,
	})
}

func (s *Service) publish(p Publisher, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	env := market.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(market.PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
