package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

// Bridge owns the order <-> payment-intent relationship: one usable intent per
// order, minted for the exact total in minor units.
type Bridge struct {
	Processor Processor
	Currency  string
	Log       *slog.Logger
}

// EnsureIntent returns a client secret the buyer can pay against. The order's
// existing intent is reused when the processor still reports it awaiting a
// payment method for the same amount; otherwise a fresh intent is minted and
// written to o.IntentID for the caller to persist. Total-price drift (cart
// changed between attempts) therefore always ends in an intent matching the
// current total.
func (b *Bridge) EnsureIntent(ctx context.Context, o *market.Order) (string, error) {
	if o.IntentID != "" {
		intent, err := b.Processor.RetrieveIntent(ctx, o.IntentID)
		if err == nil && intent.Status == IntentRequiresPaymentMethod && intent.AmountCents == o.TotalCents {
			return intent.ClientSecret, nil
		}
		if err != nil && b.Log != nil {
			b.Log.Warn("existing intent unusable, minting a new one", "order_id", o.ID, "err", err)
		}
	}

	intent, err := b.Processor.CreateIntent(ctx, o.TotalCents, b.Currency, map[string]string{
		"order_id": o.ID,
		"user_id":  o.BuyerID,
	})
	if err != nil {
		return "", &IntegrationError{Op: "create intent", Err: err}
	}
	o.IntentID = intent.ID
	return intent.ClientSecret, nil
}

// Refund reverses the payment behind intentID: confirmed intents get a refund,
// unconfirmed ones are cancelled. An already-refunded intent counts as done.
func (b *Bridge) Refund(ctx context.Context, intentID string) error {
	intent, err := b.Processor.RetrieveIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, ErrAlreadyRefunded) {
			return nil
		}
		return &IntegrationError{Op: "retrieve intent", Err: err}
	}

	switch intent.Status {
	case IntentSucceeded:
		if err := b.Processor.CreateRefund(ctx, intentID); err != nil {
			if errors.Is(err, ErrAlreadyRefunded) {
				return nil
			}
			return &IntegrationError{Op: "create refund", Err: err}
		}
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation:
		if err := b.Processor.CancelIntent(ctx, intentID); err != nil {
			return &IntegrationError{Op: "cancel intent", Err: err}
		}
	}
	return nil
}
