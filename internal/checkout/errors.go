package checkout

import (
	"errors"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/stock"
)

// Domain conflicts: the request was well formed but the marketplace state
// forbids it. Surfaced verbatim to the caller as 4xx, always after any partial
// reservation has been compensated.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrSelfPurchase      = errors.New("you cannot buy your own listing")
	ErrInsufficientStock = stock.ErrInsufficientStock
	ErrNotBuyer          = errors.New("only the buyer can refund this order")
	ErrNotRefundable     = errors.New("order is not refundable")
	ErrOrderNotFound     = errors.New("order not found")
	ErrListingNotFound   = errors.New("listing not found")
)

// Bad input, independent of state.
var (
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrTrackingCodeMissing = errors.New("tracking code is required")
	ErrNoItems             = errors.New("no items given")
)

func IsConflict(err error) bool {
	for _, e := range []error{ErrEmptyCart, ErrSelfPurchase, ErrInsufficientStock, ErrNotBuyer, ErrNotRefundable} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func IsValidation(err error) bool {
	for _, e := range []error{ErrInvalidQuantity, ErrTrackingCodeMissing, ErrNoItems} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
