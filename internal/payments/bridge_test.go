package payments

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

func testBridge() (*Bridge, *Sandbox) {
	sb := NewSandbox("whsec_test")
	return &Bridge{Processor: sb, Currency: "usd"}, sb
}

func TestEnsureIntentMintsOnce(t *testing.T) {
	ctx := context.Background()
	b, _ := testBridge()
	o := market.Order{ID: "o1", BuyerID: "alice", TotalCents: 1200}

	secret1, err := b.EnsureIntent(ctx, &o)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if o.IntentID == "" || secret1 == "" {
		t.Fatal("intent not minted")
	}

	secret2, err := b.EnsureIntent(ctx, &o)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if secret2 != secret1 {
		t.Fatal("usable intent should be reused")
	}
}

func TestEnsureIntentRemintsOnAmountChange(t *testing.T) {
	ctx := context.Background()
	b, _ := testBridge()
	o := market.Order{ID: "o1", BuyerID: "alice", TotalCents: 1200}

	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}
	prev := o.IntentID

	o.TotalCents = 1500
	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if o.IntentID == prev {
		t.Fatal("amount drift must mint a fresh intent")
	}
}

func TestEnsureIntentRemintsAfterSuccess(t *testing.T) {
	ctx := context.Background()
	b, sb := testBridge()
	o := market.Order{ID: "o1", BuyerID: "alice", TotalCents: 1200}

	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if _, _, err := sb.ConfirmIntent(o.IntentID); err != nil {
		t.Fatal(err)
	}
	prev := o.IntentID
	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if o.IntentID == prev {
		t.Fatal("a succeeded intent is not reusable")
	}
}

func TestRefundSucceededIntent(t *testing.T) {
	ctx := context.Background()
	b, sb := testBridge()
	o := market.Order{ID: "o1", BuyerID: "alice", TotalCents: 1200}
	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}
	if _, _, err := sb.ConfirmIntent(o.IntentID); err != nil {
		t.Fatal(err)
	}

	if err := b.Refund(ctx, o.IntentID); err != nil {
		t.Fatalf("refund: %v", err)
	}
	// the duplicate is tolerated as already done
	if err := b.Refund(ctx, o.IntentID); err != nil {
		t.Fatalf("duplicate refund: %v", err)
	}
}

func TestRefundUnconfirmedIntentCancelsIt(t *testing.T) {
	ctx := context.Background()
	b, sb := testBridge()
	o := market.Order{ID: "o1", BuyerID: "alice", TotalCents: 1200}
	if _, err := b.EnsureIntent(ctx, &o); err != nil {
		t.Fatal(err)
	}

	if err := b.Refund(ctx, o.IntentID); err != nil {
		t.Fatalf("refund: %v", err)
	}
	intent, err := sb.RetrieveIntent(ctx, o.IntentID)
	if err != nil {
		t.Fatal(err)
	}
	if intent.Status != IntentCanceled {
		t.Fatalf("intent status = %s, want canceled", intent.Status)
	}
}

func TestSandboxWebhookSignature(t *testing.T) {
	ctx := context.Background()
	sb := NewSandbox("whsec_test")
	intent, err := sb.CreateIntent(ctx, 500, "usd", map[string]string{"order_id": "o1"})
	if err != nil {
		t.Fatal(err)
	}
	payload, sig, err := sb.ConfirmIntent(intent.ID)
	if err != nil {
		t.Fatal(err)
	}

	ev, err := sb.VerifyWebhook(payload, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ev.Type != EventPaymentSucceeded || ev.IntentID != intent.ID {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Metadata["order_id"] != "o1" {
		t.Fatalf("metadata = %v", ev.Metadata)
	}

	if _, err := sb.VerifyWebhook(payload, "deadbeef"); err == nil {
		t.Fatal("bad signature must be rejected")
	}
	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] ^= 0xff
	if _, err := sb.VerifyWebhook(tampered, sig); err == nil {
		t.Fatal("tampered payload must be rejected")
	}
}
