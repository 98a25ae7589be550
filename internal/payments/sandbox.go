package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Sandbox is an in-process Processor for development and tests: intents live
// in memory and webhook payloads are signed with HMAC-SHA256 over the raw
// body, the same shape a real gateway uses.
type Sandbox struct {
	mu       sync.Mutex
	secret   []byte
	intents  map[string]Intent
	refunded map[string]bool
}

func NewSandbox(webhookSecret string) *Sandbox {
	return &Sandbox{
		secret:   []byte(webhookSecret),
		intents:  map[string]Intent{},
		refunded: map[string]bool{},
	}
}

func (s *Sandbox) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "pi_" + uuid.NewString()
	intent := Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Status:       IntentRequiresPaymentMethod,
		AmountCents:  amountCents,
		Currency:     currency,
		Metadata:     metadata,
	}
	s.intents[id] = intent
	return intent, nil
}

func (s *Sandbox) RetrieveIntent(_ context.Context, id string) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return Intent{}, fmt.Errorf("no such intent: %s", id)
	}
	return intent, nil
}

func (s *Sandbox) CancelIntent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[id]
	if !ok {
		return fmt.Errorf("no such intent: %s", id)
	}
	intent.Status = IntentCanceled
	s.intents[id] = intent
	return nil
}

func (s *Sandbox) CreateRefund(_ context.Context, intentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	intent, ok := s.intents[intentID]
	if !ok {
		return fmt.Errorf("no such intent: %s", intentID)
	}
	if s.refunded[intentID] {
		return ErrAlreadyRefunded
	}
	if intent.Status != IntentSucceeded {
		return fmt.Errorf("intent %s not refundable in status %s", intentID, intent.Status)
	}
	s.refunded[intentID] = true
	return nil
}

type webhookWire struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (s *Sandbox) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Sandbox) VerifyWebhook(payload []byte, signature string) (Event, error) {
	if !hmac.Equal([]byte(s.sign(payload)), []byte(signature)) {
		return Event{}, errors.New("webhook signature mismatch")
	}
	var wire webhookWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return Event{}, fmt.Errorf("decode webhook payload: %w", err)
	}
	return Event{
		Type:     wire.Type,
		IntentID: wire.Data.Object.ID,
		Metadata: wire.Data.Object.Metadata,
	}, nil
}

// ConfirmIntent simulates the buyer completing payment: the intent flips to
// succeeded and a signed payment_intent.succeeded webhook is returned, ready
// to POST at the webhook endpoint.
func (s *Sandbox) ConfirmIntent(id string) (payload []byte, signature string, err error) {
	s.mu.Lock()
	intent, ok := s.intents[id]
	if !ok {
		s.mu.Unlock()
		return nil, "", fmt.Errorf("no such intent: %s", id)
	}
	intent.Status = IntentSucceeded
	s.intents[id] = intent
	s.mu.Unlock()

	var wire webhookWire
	wire.Type = EventPaymentSucceeded
	wire.Data.Object.ID = intent.ID
	wire.Data.Object.Metadata = intent.Metadata
	payload, err = json.Marshal(wire)
	if err != nil {
		return nil, "", err
	}
	return payload, s.sign(payload), nil
}
