package checkout

import (
	"context"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	kafkago "github.com/segmentio/kafka-go"
)

// Store is the durable side of the two-tier stock model. market.Repo
// implements it on postgres, market.MemRepo in memory. The three locked
// transitions (settle, refund, cancel-pending) take the order's row lock,
// re-check its status under the lock and report a no-op instead of an error
// when someone else resolved the order first.
type Store interface {
	CartLines(ctx context.Context, userID string) ([]market.CartLine, error)
	CartLineByListing(ctx context.Context, userID, listingID string) (market.CartLine, error)
	CartLineByID(ctx context.Context, userID, lineID string) (market.CartLine, error)
	UpsertCartLine(ctx context.Context, userID, listingID string, qty int64) (market.CartLine, error)
	SetCartLineQuantity(ctx context.Context, userID, lineID string, qty int64) error
	RemoveCartLine(ctx context.Context, userID, lineID string) error
	ClearCart(ctx context.Context, userID string) error

	Listing(ctx context.Context, id string) (market.Listing, error)
	SetListingStatus(ctx context.Context, id string, status market.ListingStatus) error

	CreateOrder(ctx context.Context, o market.Order, items []market.OrderItem) error
	Order(ctx context.Context, id string) (market.Order, error)
	OrderItems(ctx context.Context, orderID string) ([]market.OrderItem, error)
	SetOrderIntent(ctx context.Context, orderID, intentID string) error

	SettleOrder(ctx context.Context, orderID string) ([]market.OrderItem, bool, error)
	RefundOrder(ctx context.Context, orderID string) ([]market.OrderItem, bool, error)
	CancelPendingOrder(ctx context.Context, orderID string) ([]market.OrderItem, bool, error)
	ExpiredPendingOrders(ctx context.Context, cutoff time.Time) ([]string, error)
	PendingReservedTotals(ctx context.Context) (map[string]int64, error)

	MarkItemsShipped(ctx context.Context, orderID, sellerID string, itemIDs []string, trackingCode string) (int64, error)
}

// Publisher is the slice of the kafka producer the service needs; nil
// publishers are skipped, so the sweeper can run with only the topics it emits.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}
