package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
)

type OrdersHandler struct {
	Svc      *checkout.Service
	Validate *validator.Validate
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.checkout)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/refund", h.refund)
	r.Post("/orders/{id}/mark-shipped", h.markShipped)
}

type CheckoutReq struct {
	// OrderID resumes payment on an existing pending order instead of
	// converting the cart.
	OrderID string `json:"order_id" validate:"omitempty,uuid4"`
}

type OrderItemResp struct {
	ID             string `json:"id"`
	ListingID      string `json:"listing_id,omitempty"`
	Title          string `json:"title"`
	SellerID       string `json:"seller_id"`
	SellerUsername string `json:"seller_username"`
	Quantity       int64  `json:"quantity"`
	PriceCents     int64  `json:"price_cents"`
	Status         string `json:"status"`
	TrackingCode   string `json:"tracking_code,omitempty"`
}

type OrderResp struct {
	OrderID      string          `json:"order_id"`
	Status       string          `json:"status"`
	TotalCents   int64           `json:"total_cents"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderItemResp `json:"items,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
}

func toOrderResp(o market.Order, items []market.OrderItem, secret string) OrderResp {
	resp := OrderResp{
		OrderID:      o.ID,
		Status:       string(o.Status),
		TotalCents:   o.TotalCents,
		CreatedAt:    o.CreatedAt,
		ClientSecret: secret,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, OrderItemResp{
			ID:             it.ID,
			ListingID:      it.ListingID,
			Title:          it.SnapshotListingTitle,
			SellerID:       it.SnapshotSellerID,
			SellerUsername: it.SnapshotSellerUsername,
			Quantity:       it.Quantity,
			PriceCents:     it.SnapshotPriceCents,
			Status:         string(it.Status),
			TrackingCode:   it.TrackingCode,
		})
	}
	return resp
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	var req CheckoutReq
	if r.ContentLength > 0 {
		if err := decodeValid(r, h.Validate, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
			return
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, secret, err := h.Svc.Checkout(ctx, id.buyer(), req.OrderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o, nil, secret))
}

// getOrder serves the buyer and the sellers with items in the order. The
// payment client secret is refreshed for the buyer while the order is still
// PENDING; everyone else never sees it.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, items, err := h.Svc.Order(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}

	isBuyer := o.BuyerID == id.UserID
	isSeller := false
	for _, it := range items {
		if it.SellerID == id.UserID {
			isSeller = true
			break
		}
	}
	if !isBuyer && !isSeller {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	var secret string
	if isBuyer {
		secret, err = h.Svc.ResumeSecret(ctx, o)
		if err != nil {
			writeErr(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, toOrderResp(o, items, secret))
}

func (h *OrdersHandler) refund(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	o, err := h.Svc.Cancel(ctx, chi.URLParam(r, "id"), id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o, nil, ""))
}

type MarkShippedReq struct {
	ItemIDs      []string `json:"item_ids" validate:"required,min=1,dive,uuid4"`
	TrackingCode string   `json:"tracking_code" validate:"required"`
}

type MarkShippedResp struct {
	Updated int64 `json:"updated"`
}

func (h *OrdersHandler) markShipped(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	var req MarkShippedReq
	if err := decodeValid(r, h.Validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	n, err := h.Svc.MarkShipped(ctx, chi.URLParam(r, "id"), id.UserID, req.ItemIDs, req.TrackingCode)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MarkShippedResp{Updated: n})
}
