package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

func TestSweepExpiredCancelsStaleOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := time.Now().UTC()
	f.svc.Now = func() time.Time { return now }

	l := f.seedListing("bob", 500, 2)
	stale := checkoutOrder(t, f, "alice", l.ID, 2)

	now = now.Add(16 * time.Minute)
	if err := f.svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	got, _ := f.store.Order(ctx, stale.ID)
	if got.Status != market.OrderCancelled {
		t.Fatalf("order status = %s, want CANCELLED", got.Status)
	}
	if n := f.reserved(t, l.ID); n != 0 {
		t.Fatalf("reserved = %d after expiry, want 0", n)
	}
	listing, _ := f.store.Listing(ctx, l.ID)
	if listing.Quantity != 2 {
		t.Fatalf("listing quantity = %d, want 2 (expiry never debits)", listing.Quantity)
	}
	if listing.Status != market.ListingInStock {
		t.Fatalf("listing status = %s, want IN_STOCK restored", listing.Status)
	}
	items, _ := f.store.OrderItems(ctx, stale.ID)
	for _, it := range items {
		if it.Status != market.ItemCancelled {
			t.Fatalf("item status = %s, want CANCELLED", it.Status)
		}
	}
	if f.cancelled.count() != 1 {
		t.Fatalf("cancelled events = %d, want 1", f.cancelled.count())
	}
}

func TestSweepExpiredLeavesFreshOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := time.Now().UTC()
	f.svc.Now = func() time.Time { return now }

	l := f.seedListing("bob", 500, 5)
	fresh := checkoutOrder(t, f, "alice", l.ID, 1)

	now = now.Add(10 * time.Minute) // inside the deadline
	if err := f.svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	got, _ := f.store.Order(ctx, fresh.ID)
	if got.Status != market.OrderPending {
		t.Fatalf("order status = %s, want still PENDING", got.Status)
	}
	if n := f.reserved(t, l.ID); n != 1 {
		t.Fatalf("reserved = %d, want 1 untouched", n)
	}
}

func TestSweepExpiredSkipsSettledOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	now := time.Now().UTC()
	f.svc.Now = func() time.Time { return now }

	l := f.seedListing("bob", 500, 5)
	o := checkoutOrder(t, f, "alice", l.ID, 1)

	// the buyer pays late, just before the sweep runs
	if err := f.svc.Settle(ctx, o.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}
	now = now.Add(20 * time.Minute)
	if err := f.svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	got, _ := f.store.Order(ctx, o.ID)
	if got.Status != market.OrderPaid {
		t.Fatalf("order status = %s, want PAID untouched", got.Status)
	}
	if f.cancelled.count() != 0 {
		t.Fatalf("cancelled events = %d, want 0", f.cancelled.count())
	}
}

func TestSweepReconcileRebuildsCounters(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	l := f.seedListing("bob", 500, 10)
	checkoutOrder(t, f, "alice", l.ID, 3)

	// simulate drift: the counter lost its value
	if err := f.svc.Res.Overwrite(ctx, l.ID, 99); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.SweepReconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if n := f.reserved(t, l.ID); n != 3 {
		t.Fatalf("reserved = %d after reconcile, want 3", n)
	}
}
