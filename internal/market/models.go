package market

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Listing struct {
	ID             string
	SellerID       string
	SellerUsername string
	Title          string
	PriceCents     int64
	Quantity       int64 // durable owned stock, source of truth
	Status         ListingStatus
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Buyer carries the identity fields checkout snapshots onto the order. Who
// authenticates the buyer is the gateway's problem, not ours.
type Buyer struct {
	ID      string
	Email   string
	Address string
}

// CartLine is a cart item joined with its listing as of read time. The listing
// fields are advisory: final stock enforcement happens at checkout through the
// reservation counter.
type CartLine struct {
	ID        string
	ListingID string
	Quantity  int64
	AddedAt   time.Time
	Listing   Listing
}

type Order struct {
	ID           string
	BuyerID      string
	BuyerEmail   string
	BuyerAddress string
	TotalCents   int64
	IntentID     string // payment handle; empty until the processor minted one
	Status       OrderStatus
	CreatedAt    time.Time
}

// OrderItem freezes the listing and seller at order-creation time. The
// Snapshot* fields outlive the listing row, so a paid order still renders after
// the seller deletes the listing; ListingID goes empty in that case.
type OrderItem struct {
	ID           string
	OrderID      string
	ListingID    string
	SellerID     string
	Quantity     int64
	Status       ShippingStatus
	TrackingCode string

	SnapshotSellerID       string
	SnapshotSellerUsername string
	SnapshotListingID      string
	SnapshotListingTitle   string
	SnapshotPriceCents     int64
}
