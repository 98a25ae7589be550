package checkout

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

// Cart returns the user's cart lines and their total. The listing data in each
// line is as of read time.
func (s *Service) Cart(ctx context.Context, userID string) ([]market.CartLine, int64, error) {
	lines, err := s.Store.CartLines(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	for _, ln := range lines {
		total += ln.Quantity * ln.Listing.PriceCents
	}
	return lines, total, nil
}

// AddToCart adds qty of a listing to the user's cart, summing with an existing
// line. The available-stock check here is best effort: the reservation counter
// at checkout is what actually enforces it.
func (s *Service) AddToCart(ctx context.Context, userID, listingID string, qty int64) (market.CartLine, error) {
	if qty <= 0 {
		return market.CartLine{}, ErrInvalidQuantity
	}
	listing, err := s.Store.Listing(ctx, listingID)
	if err != nil {
		if errors.Is(err, market.ErrNotFound) {
			return market.CartLine{}, ErrListingNotFound
		}
		return market.CartLine{}, err
	}
	if qty > listing.Quantity {
		return market.CartLine{}, ErrInsufficientStock
	}

	newQty := qty
	if existing, err := s.Store.CartLineByListing(ctx, userID, listingID); err == nil {
		newQty = existing.Quantity + qty
		if newQty > s.available(ctx, listing) {
			return market.CartLine{}, ErrInsufficientStock
		}
	} else if !errors.Is(err, market.ErrNotFound) {
		return market.CartLine{}, err
	}

	return s.Store.UpsertCartLine(ctx, userID, listingID, newQty)
}

// UpdateCartItem sets the absolute quantity of a cart line.
func (s *Service) UpdateCartItem(ctx context.Context, userID, lineID string, qty int64) (market.CartLine, error) {
	if qty <= 0 {
		return market.CartLine{}, ErrInvalidQuantity
	}
	ln, err := s.Store.CartLineByID(ctx, userID, lineID)
	if err != nil {
		return market.CartLine{}, err
	}
	if qty > ln.Quantity && qty-ln.Quantity > s.available(ctx, ln.Listing) {
		return market.CartLine{}, ErrInsufficientStock
	}
	if err := s.Store.SetCartLineQuantity(ctx, userID, lineID, qty); err != nil {
		return market.CartLine{}, err
	}
	return s.Store.CartLineByID(ctx, userID, lineID)
}

func (s *Service) RemoveCartItem(ctx context.Context, userID, lineID string) error {
	return s.Store.RemoveCartLine(ctx, userID, lineID)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.Store.ClearCart(ctx, userID)
}

func (s *Service) available(ctx context.Context, l market.Listing) int64 {
	reserved, err := s.Res.Reserved(ctx, l.ID)
	if err != nil {
		s.Log.Warn("read reservation counter", "listing_id", l.ID, "err", err)
		reserved = 0
	}
	return stock.Available(l.Quantity, reserved)
}
