package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/payments"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

const DefaultExpiryDeadline = 15 * time.Minute

// Service is the order-checkout core: it owns reservation admission at
// checkout time and the resolution paths (settlement, refund, expiry,
// reconciliation) that keep the reservation cache and the durable store
// agreeing with each other.
type Service struct {
	Store  Store
	Res    *stock.Reservations
	Bridge *payments.Bridge
	Log    *slog.Logger

	Created   Publisher
	Paid      Publisher
	Cancelled Publisher

	ServiceName    string
	ExpiryDeadline time.Duration

	// Now is swappable in tests; zero value means time.Now.
	Now func() time.Time
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) deadline() time.Duration {
	if s.ExpiryDeadline > 0 {
		return s.ExpiryDeadline
	}
	return DefaultExpiryDeadline
}

// Checkout converts the buyer's cart into a PENDING order and returns it with
// the payment client secret. Passing the id of an existing PENDING order owned
// by the buyer resumes payment on it instead: its reservations are left alone
// and only the intent is re-ensured.
//
// Admission control is compare-and-increment on the reservation counter: each
// line atomically claims its quantity and the claim is rejected, and reverted,
// when the post-increment total exceeds the listing's durable stock. On any
// failure after the first claim, every claim taken by this attempt is released
// before the error is returned; nothing dangles.
func (s *Service) Checkout(ctx context.Context, buyer market.Buyer, orderID string) (market.Order, string, error) {
	if orderID != "" {
		o, err := s.Store.Order(ctx, orderID)
		switch {
		case err == nil && o.BuyerID == buyer.ID && o.Status == market.OrderPending:
			return s.resume(ctx, buyer.ID, o)
		case err != nil && !errors.Is(err, market.ErrNotFound):
			return market.Order{}, "", err
		}
		// unknown or foreign order id: treat as a fresh checkout
	}

	lines, err := s.Store.CartLines(ctx, buyer.ID)
	if err != nil {
		return market.Order{}, "", err
	}
	if len(lines) == 0 {
		return market.Order{}, "", ErrEmptyCart
	}
	for _, ln := range lines {
		if ln.Listing.SellerID == buyer.ID {
			return market.Order{}, "", ErrSelfPurchase
		}
	}

	var reserved []market.CartLine
	fail := func(e error) (market.Order, string, error) {
		s.releaseLines(ctx, reserved)
		return market.Order{}, "", e
	}

	for _, ln := range lines {
		total, err := s.Res.Reserve(ctx, ln.ListingID, ln.Quantity, ln.Listing.Quantity)
		if err != nil {
			// Reserve already reverted its own increment
			return fail(err)
		}
		reserved = append(reserved, ln)
		if total >= ln.Listing.Quantity {
			if err := s.Store.SetListingStatus(ctx, ln.ListingID, market.ListingOutOfStock); err != nil {
				return fail(err)
			}
		}
	}

	var totalCents int64
	for _, ln := range lines {
		totalCents += ln.Quantity * ln.Listing.PriceCents
	}

	o := market.Order{
		ID:           uuid.NewString(),
		BuyerID:      buyer.ID,
		BuyerEmail:   buyer.Email,
		BuyerAddress: buyer.Address,
		TotalCents:   totalCents,
		Status:       market.OrderPending,
		CreatedAt:    s.clock(),
	}

	// Intent first: nothing durable is written until the processor call
	// succeeded, so an integration failure leaves only reservations to undo.
	secret, err := s.Bridge.EnsureIntent(ctx, &o)
	if err != nil {
		return fail(err)
	}

	items := snapshotItems(o.ID, lines)
	if err := s.Store.CreateOrder(ctx, o, items); err != nil {
		return fail(fmt.Errorf("create order: %w", err))
	}

	// From here the order is durable PENDING and owns its reservations.
	if err := s.Store.ClearCart(ctx, buyer.ID); err != nil {
		s.Log.Warn("clear cart after checkout", "user_id", buyer.ID, "err", err)
	}
	s.publishCreated(o, items)
	return o, secret, nil
}

func (s *Service) resume(ctx context.Context, userID string, o market.Order) (market.Order, string, error) {
	prev := o.IntentID
	secret, err := s.Bridge.EnsureIntent(ctx, &o)
	if err != nil {
		return market.Order{}, "", err
	}
	if o.IntentID != prev {
		if err := s.Store.SetOrderIntent(ctx, o.ID, o.IntentID); err != nil {
			return market.Order{}, "", err
		}
	}
	if err := s.Store.ClearCart(ctx, userID); err != nil {
		s.Log.Warn("clear cart on resume", "user_id", userID, "err", err)
	}
	return o, secret, nil
}

// releaseLines is the synchronous compensation for a failed checkout attempt:
// give back every claim taken, and un-flip listings whose stock is sellable
// again.
func (s *Service) releaseLines(ctx context.Context, lines []market.CartLine) {
	for _, ln := range lines {
		total, err := s.Res.Release(ctx, ln.ListingID, ln.Quantity)
		if err != nil {
			s.Log.Error("release reservation", "listing_id", ln.ListingID, "err", err)
			continue
		}
		if stock.Available(ln.Listing.Quantity, total) > 0 {
			if err := s.Store.SetListingStatus(ctx, ln.ListingID, market.ListingInStock); err != nil {
				s.Log.Error("restore listing status", "listing_id", ln.ListingID, "err", err)
			}
		}
	}
}

func snapshotItems(orderID string, lines []market.CartLine) []market.OrderItem {
	items := make([]market.OrderItem, 0, len(lines))
	for _, ln := range lines {
		items = append(items, market.OrderItem{
			ID:                     uuid.NewString(),
			OrderID:                orderID,
			ListingID:              ln.ListingID,
			SellerID:               ln.Listing.SellerID,
			Quantity:               ln.Quantity,
			Status:                 market.ItemAwaitingPayment,
			SnapshotSellerID:       ln.Listing.SellerID,
			SnapshotSellerUsername: ln.Listing.SellerUsername,
			SnapshotListingID:      ln.ListingID,
			SnapshotListingTitle:   ln.Listing.Title,
			SnapshotPriceCents:     ln.Listing.PriceCents,
		})
	}
	return items
}

// Order returns an order with its items, for the read surface.
func (s *Service) Order(ctx context.Context, orderID string) (market.Order, []market.OrderItem, error) {
	o, err := s.Store.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return market.Order{}, nil, ErrOrderNotFound
		}
		return market.Order{}, nil, err
	}
	items, err := s.Store.OrderItems(ctx, orderID)
	if err != nil {
		return market.Order{}, nil, err
	}
	return o, items, nil
}

// ResumeSecret refreshes the payment client secret for a PENDING order the
// buyer is viewing. Non-pending orders get no secret.
func (s *Service) ResumeSecret(ctx context.Context, o market.Order) (string, error) {
	if o.Status != market.OrderPending {
		return "", nil
	}
	prev := o.IntentID
	secret, err := s.Bridge.EnsureIntent(ctx, &o)
	if err != nil {
		return "", err
	}
	if o.IntentID != prev {
		if err := s.Store.SetOrderIntent(ctx, o.ID, o.IntentID); err != nil {
			return "", err
		}
	}
	return secret, nil
}
