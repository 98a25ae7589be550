package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/payments"
)

// SignatureHeader carries the processor's HMAC over the raw webhook body.
const SignatureHeader = "X-Payment-Signature"

const maxWebhookBody = 1 << 20

// WebhookHandler is the payment processor's callback endpoint. A verified
// payment_intent.succeeded settles the order named in the intent metadata;
// every other verified event is acknowledged and dropped. Settlement is
// idempotent, so redelivery is harmless.
type WebhookHandler struct {
	Svc       *checkout.Service
	Processor payments.Processor
	Log       *slog.Logger
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhooks/payment", h.handle)
}

func (h *WebhookHandler) handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	ev, err := h.Processor.VerifyWebhook(body, r.Header.Get(SignatureHeader))
	if err != nil {
		h.Log.Warn("webhook verification failed", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		return
	}

	if ev.Type != payments.EventPaymentSucceeded {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	orderID := ev.Metadata["order_id"]
	if orderID == "" {
		h.Log.Warn("payment event without order metadata", "intent_id", ev.IntentID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.Settle(ctx, orderID); err != nil {
		if errors.Is(err, checkout.ErrOrderNotFound) {
			// stale event for an order we no longer know; ack so the
			// processor stops retrying
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.Log.Error("settle from webhook", "order_id", orderID, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "settlement failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}
