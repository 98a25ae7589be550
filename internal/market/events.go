package market

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemSnapshot struct {
	ListingID  string `json:"listing_id"`
	Title      string `json:"title"`
	SellerID   string `json:"seller_id"`
	Qty        int64  `json:"qty"`
	PriceCents int64  `json:"price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string         `json:"order_id"`
	BuyerID    string         `json:"buyer_id"`
	TotalCents int64          `json:"total_cents"`
	Items      []ItemSnapshot `json:"items"`
}

type OrderPaidPayload struct {
	OrderID    string `json:"order_id"`
	BuyerID    string `json:"buyer_id"`
	TotalCents int64  `json:"total_cents"`
}

// Reason is "refund" for buyer-initiated cancellations, "expired" when the
// sweep gave up on an unpaid order.
type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	BuyerID string `json:"buyer_id"`
	Reason  string `json:"reason"`
}
