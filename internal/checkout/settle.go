package checkout

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

// Settle applies a confirmed payment: the durable debit happens under the
// order's row lock, then each item's reservation hold is released and the
// listing status recomputed from what is actually left. Idempotent — an order
// that is no longer PENDING is a no-op, which absorbs duplicate webhook
// deliveries and races with the expiry sweep.
func (s *Service) Settle(ctx context.Context, orderID string) error {
	items, settled, err := s.Store.SettleOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	if !settled {
		return nil
	}

	for _, it := range items {
		if it.ListingID == "" {
			continue // listing gone; its counter dies by TTL
		}
		reserved, err := s.Res.Release(ctx, it.ListingID, it.Quantity)
		if err != nil {
			// counter drift; the reconciliation sweep repairs it
			s.Log.Error("release reservation at settlement", "listing_id", it.ListingID, "err", err)
			continue
		}
		listing, err := s.Store.Listing(ctx, it.ListingID)
		if err != nil {
			if !errors.Is(err, market.ErrNotFound) {
				s.Log.Error("load listing at settlement", "listing_id", it.ListingID, "err", err)
			}
			continue
		}
		status := market.ListingInStock
		if stock.Available(listing.Quantity, reserved) <= 0 {
			status = market.ListingOutOfStock
		}
		if err := s.Store.SetListingStatus(ctx, it.ListingID, status); err != nil {
			s.Log.Error("update listing status at settlement", "listing_id", it.ListingID, "err", err)
		}
	}

	if o, err := s.Store.Order(ctx, orderID); err == nil {
		s.publishPaid(o)
	}
	s.Log.Info("order settled", "order_id", orderID)
	return nil
}
