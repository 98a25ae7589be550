package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

func settleOrder(t *testing.T, f *fixture, orderID string) {
	t.Helper()
	o, err := f.store.Order(context.Background(), orderID)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if _, _, err := f.sandbox.ConfirmIntent(o.IntentID); err != nil {
		t.Fatalf("confirm intent: %v", err)
	}
	if err := f.svc.Settle(context.Background(), orderID); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func TestCancelRefundsPaidOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	l := f.seedListing("bob", 500, 2)
	o := checkoutOrder(t, f, "alice", l.ID, 2)
	settleOrder(t, f, o.ID)

	got, err := f.svc.Cancel(ctx, o.ID, "alice")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != market.OrderCancelled {
		t.Fatalf("order status = %s, want CANCELLED", got.Status)
	}

	listing, _ := f.store.Listing(ctx, l.ID)
	if listing.Quantity != 2 {
		t.Fatalf("listing quantity = %d, want 2 restored", listing.Quantity)
	}
	if listing.Status != market.ListingInStock {
		t.Fatalf("listing status = %s, want IN_STOCK restored", listing.Status)
	}
	items, _ := f.store.OrderItems(ctx, o.ID)
	for _, it := range items {
		if it.Status != market.ItemCancelled {
			t.Fatalf("item status = %s, want CANCELLED", it.Status)
		}
	}
	if f.cancelled.count() != 1 {
		t.Fatalf("cancelled events = %d, want 1", f.cancelled.count())
	}
	ev := f.cancelled.last()
	if ev.EventType != market.EventOrderCancelled {
		t.Fatalf("event type = %s", ev.EventType)
	}
}

func TestCancelRequiresBuyer(t *testing.T) {
	f := newFixture()
	l := f.seedListing("bob", 500, 2)
	o := checkoutOrder(t, f, "alice", l.ID, 1)
	settleOrder(t, f, o.ID)

	_, err := f.svc.Cancel(context.Background(), o.ID, "eve")
	if !errors.Is(err, ErrNotBuyer) {
		t.Fatalf("err = %v, want ErrNotBuyer", err)
	}
}

func TestCancelPendingOrderNotRefundable(t *testing.T) {
	f := newFixture()
	l := f.seedListing("bob", 500, 2)
	o := checkoutOrder(t, f, "alice", l.ID, 1)

	_, err := f.svc.Cancel(context.Background(), o.ID, "alice")
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("err = %v, want ErrNotRefundable", err)
	}
}

func TestCancelTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	l := f.seedListing("bob", 500, 2)
	o := checkoutOrder(t, f, "alice", l.ID, 1)
	settleOrder(t, f, o.ID)

	if _, err := f.svc.Cancel(ctx, o.ID, "alice"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := f.svc.Cancel(ctx, o.ID, "alice")
	if !errors.Is(err, ErrNotRefundable) {
		t.Fatalf("second cancel err = %v, want ErrNotRefundable", err)
	}
	listing, _ := f.store.Listing(ctx, l.ID)
	if listing.Quantity != 2 {
		t.Fatalf("listing quantity = %d, want 2 (no double restore)", listing.Quantity)
	}
}

func TestMarkShipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	l := f.seedListing("bob", 500, 5)
	o := checkoutOrder(t, f, "alice", l.ID, 1)
	settleOrder(t, f, o.ID)

	items, _ := f.store.OrderItems(ctx, o.ID)
	ids := []string{items[0].ID}

	if _, err := f.svc.MarkShipped(ctx, o.ID, "bob", ids, ""); !errors.Is(err, ErrTrackingCodeMissing) {
		t.Fatalf("err = %v, want ErrTrackingCodeMissing", err)
	}
	if _, err := f.svc.MarkShipped(ctx, o.ID, "bob", nil, "TRK-1"); !errors.Is(err, ErrNoItems) {
		t.Fatalf("err = %v, want ErrNoItems", err)
	}

	// a different seller cannot ship bob's items
	n, err := f.svc.MarkShipped(ctx, o.ID, "carol", ids, "TRK-1")
	if err != nil {
		t.Fatalf("mark shipped: %v", err)
	}
	if n != 0 {
		t.Fatalf("updated = %d for foreign seller, want 0", n)
	}

	n, err = f.svc.MarkShipped(ctx, o.ID, "bob", ids, "TRK-1")
	if err != nil {
		t.Fatalf("mark shipped: %v", err)
	}
	if n != 1 {
		t.Fatalf("updated = %d, want 1", n)
	}
	items, _ = f.store.OrderItems(ctx, o.ID)
	if items[0].Status != market.ItemInTransit || items[0].TrackingCode != "TRK-1" {
		t.Fatalf("item = %+v, want IN_TRANSIT with tracking", items[0])
	}

	// already shipped: nothing to update
	n, _ = f.svc.MarkShipped(ctx, o.ID, "bob", ids, "TRK-2")
	if n != 0 {
		t.Fatalf("updated = %d on repeat, want 0", n)
	}
}
