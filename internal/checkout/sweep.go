package checkout

import (
	"context"
)

// SweepExpired cancels PENDING orders older than the deadline and releases
// their reservation holds. Each order is re-checked under its row lock, so an
// order settled between the scan and the lock is left alone. One bad order is
// logged and skipped; the sweep finishes the rest.
func (s *Service) SweepExpired(ctx context.Context) error {
	cutoff := s.clock().Add(-s.deadline())
	ids, err := s.Store.ExpiredPendingOrders(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.expireOrder(ctx, id); err != nil {
			s.Log.Error("expire order", "order_id", id, "err", err)
		}
	}
	return nil
}

func (s *Service) expireOrder(ctx context.Context, orderID string) error {
	items, cancelled, err := s.Store.CancelPendingOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !cancelled {
		return nil // settled or refunded since the scan
	}
	for _, it := range items {
		if it.ListingID == "" {
			continue
		}
		if _, err := s.Res.Release(ctx, it.ListingID, it.Quantity); err != nil {
			s.Log.Error("release reservation at expiry", "listing_id", it.ListingID, "err", err)
		}
	}
	if o, err := s.Store.Order(ctx, orderID); err == nil {
		s.publishCancelled(o, "expired")
	}
	s.Log.Info("order expired", "order_id", orderID)
	return nil
}

// SweepReconcile overwrites each reservation counter with the sum recomputed
// from durable PENDING order items, refreshing TTLs. This heals any drift —
// evicted keys, crashed compensations — within one sweep interval, and is
// idempotent by construction.
func (s *Service) SweepReconcile(ctx context.Context) error {
	totals, err := s.Store.PendingReservedTotals(ctx)
	if err != nil {
		return err
	}
	for listingID, total := range totals {
		if err := s.Res.Overwrite(ctx, listingID, total); err != nil {
			s.Log.Error("reconcile reservation", "listing_id", listingID, "err", err)
		}
	}
	return nil
}
