package checkout

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

// Cancel refunds a PAID order on behalf of its buyer and restores the stock it
// consumed. PENDING orders are not refundable here — they resolve through
// expiry. The refund reaches the processor before any durable mutation, so a
// failed refund leaves the order PAID and retryable.
func (s *Service) Cancel(ctx context.Context, orderID, userID string) (market.Order, error) {
	o, err := s.Store.Order(ctx, orderID)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return market.Order{}, ErrOrderNotFound
		}
		return market.Order{}, err
	}
	if o.BuyerID != userID {
		return market.Order{}, ErrNotBuyer
	}
	if o.Status != market.OrderPaid {
		return market.Order{}, ErrNotRefundable
	}

	if err := s.Bridge.Refund(ctx, o.IntentID); err != nil {
		return market.Order{}, err
	}

	_, refunded, err := s.Store.RefundOrder(ctx, o.ID)
	if err != nil {
		return market.Order{}, err
	}
	o, err = s.Store.Order(ctx, o.ID)
	if err != nil {
		return market.Order{}, err
	}
	if refunded {
		s.publishCancelled(o, "refund")
		s.Log.Info("order refunded", "order_id", o.ID)
	}
	// refunded=false: lost the race to another resolution; return current state
	return o, nil
}

// MarkShipped moves the seller's named items to IN_TRANSIT with the tracking
// code and reports how many changed. Items not AWAITING_SHIPMENT are skipped
// silently.
func (s *Service) MarkShipped(ctx context.Context, orderID, sellerID string, itemIDs []string, trackingCode string) (int64, error) {
	if trackingCode == "" {
		return 0, ErrTrackingCodeMissing
	}
	if len(itemIDs) == 0 {
		return 0, ErrNoItems
	}
	if _, err := s.Store.Order(ctx, orderID); err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return 0, ErrOrderNotFound
		}
		return 0, err
	}
	return s.Store.MarkItemsShipped(ctx, orderID, sellerID, itemIDs, trackingCode)
}
