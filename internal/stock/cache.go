package stock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Reservation counters live for an hour; the reconciliation sweep refreshes the
// TTL every pass, so only counters for listings with no PENDING orders age out.
const ReservationTTL = time.Hour

var ErrInsufficientStock = errors.New("insufficient stock")

// Cache is the shared counter store backing reservations. Increments and
// decrements must be atomic at the store, not read-modify-write: two concurrent
// checkouts racing on the same listing must observe distinct post-increment
// totals.
type Cache interface {
	// Init creates key with value 0 and the given TTL if it does not exist.
	Init(ctx context.Context, key string, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, n int64) (int64, error)
	DecrBy(ctx context.Context, key string, n int64) (int64, error)
	Set(ctx context.Context, key string, val int64, ttl time.Duration) error
	// Get returns 0 for missing keys.
	Get(ctx context.Context, key string) (int64, error)
}

// Available is the derived sellable quantity: durable stock minus what PENDING
// orders currently hold. Never negative.
func Available(quantity, reserved int64) int64 {
	if reserved >= quantity {
		return 0
	}
	return quantity - reserved
}

func Key(listingID string) string {
	return fmt.Sprintf("reserved_stock:%s", listingID)
}

// Reservations tracks, per listing, the quantity held by in-flight unpaid
// orders. The counters are ephemeral: the durable set of PENDING order items is
// the source of truth and Overwrite rebuilds a counter from it.
type Reservations struct {
	C   Cache
	TTL time.Duration
}

func NewReservations(c Cache) *Reservations {
	return &Reservations{C: c, TTL: ReservationTTL}
}

// Reserve claims qty units of a listing whose durable stock is limit. The
// counter is incremented first and compared after: if the post-increment total
// exceeds the limit the increment is undone in the same call and
// ErrInsufficientStock is returned, so a failed attempt never leaves a claim
// behind. Returns the counter value after the call.
func (r *Reservations) Reserve(ctx context.Context, listingID string, qty, limit int64) (int64, error) {
	key := Key(listingID)
	if err := r.C.Init(ctx, key, r.TTL); err != nil {
		return 0, fmt.Errorf("init reservation counter: %w", err)
	}
	total, err := r.C.IncrBy(ctx, key, qty)
	if err != nil {
		return 0, fmt.Errorf("increment reservation counter: %w", err)
	}
	if total > limit {
		if _, derr := r.C.DecrBy(ctx, key, qty); derr != nil {
			return total, fmt.Errorf("revert reservation counter: %w", derr)
		}
		return total - qty, ErrInsufficientStock
	}
	return total, nil
}

// Release gives back qty units, clamping the counter at zero. A counter below
// zero means drift (lost cache entry, crashed operation); clamping keeps the
// damage bounded until the reconciliation sweep rebuilds the exact value.
func (r *Reservations) Release(ctx context.Context, listingID string, qty int64) (int64, error) {
	total, err := r.C.DecrBy(ctx, Key(listingID), qty)
	if err != nil {
		return 0, fmt.Errorf("decrement reservation counter: %w", err)
	}
	if total < 0 {
		if err := r.C.Set(ctx, Key(listingID), 0, r.TTL); err != nil {
			return 0, fmt.Errorf("clamp reservation counter: %w", err)
		}
		total = 0
	}
	return total, nil
}

func (r *Reservations) Reserved(ctx context.Context, listingID string) (int64, error) {
	return r.C.Get(ctx, Key(listingID))
}

// Overwrite replaces the counter with the value recomputed from durable state,
// refreshing its TTL.
func (r *Reservations) Overwrite(ctx context.Context, listingID string, total int64) error {
	return r.C.Set(ctx, Key(listingID), total, r.TTL)
}
