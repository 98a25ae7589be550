package payments

import (
	"context"
	"errors"
	"fmt"
)

// Intent statuses, mirroring the processor's wire values.
const (
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentRequiresConfirmation  = "requires_confirmation"
	IntentSucceeded             = "succeeded"
	IntentCanceled              = "canceled"
)

// EventPaymentSucceeded is the only webhook event type the core acts on.
const EventPaymentSucceeded = "payment_intent.succeeded"

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

type Event struct {
	Type     string
	IntentID string
	Metadata map[string]string
}

// Processor is the external payment collaborator. Implementations talk to the
// real gateway; Sandbox keeps everything in process.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error)
	RetrieveIntent(ctx context.Context, id string) (Intent, error)
	CancelIntent(ctx context.Context, id string) error
	CreateRefund(ctx context.Context, intentID string) error
	VerifyWebhook(payload []byte, signature string) (Event, error)
}

// ErrAlreadyRefunded is how implementations report a duplicate refund; callers
// treat it as success.
var ErrAlreadyRefunded = errors.New("payment already refunded")

// IntegrationError marks a processor failure as distinct from domain errors:
// local state is never corrupted by one, and HTTP maps it to 502 rather than
// blaming the caller.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("payment processor: %s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

func IsIntegration(err error) bool {
	var ie *IntegrationError
	return errors.As(err, &ie)
}
