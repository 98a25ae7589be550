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

type CartHandler struct {
	Svc      *checkout.Service
	Validate *validator.Validate
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/items", h.addItem)
	r.Patch("/cart/items/{id}", h.updateItem)
	r.Delete("/cart/items/{id}", h.removeItem)
}

type AddCartItemReq struct {
	ListingID string `json:"listing_id" validate:"required,uuid4"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemReq struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type CartLineResp struct {
	ID            string `json:"id"`
	ListingID     string `json:"listing_id"`
	Title         string `json:"title"`
	SellerID      string `json:"seller_id"`
	PriceCents    int64  `json:"price_cents"`
	Quantity      int64  `json:"quantity"`
	SubtotalCents int64  `json:"subtotal_cents"`
}

type CartResp struct {
	Items      []CartLineResp `json:"items"`
	TotalCents int64          `json:"total_cents"`
}

func toCartLineResp(ln market.CartLine) CartLineResp {
	return CartLineResp{
		ID:            ln.ID,
		ListingID:     ln.ListingID,
		Title:         ln.Listing.Title,
		SellerID:      ln.Listing.SellerID,
		PriceCents:    ln.Listing.PriceCents,
		Quantity:      ln.Quantity,
		SubtotalCents: ln.Quantity * ln.Listing.PriceCents,
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, total, err := h.Svc.Cart(ctx, id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	resp := CartResp{Items: make([]CartLineResp, 0, len(lines)), TotalCents: total}
	for _, ln := range lines {
		resp.Items = append(resp.Items, toCartLineResp(ln))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	var req AddCartItemReq
	if err := decodeValid(r, h.Validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ln, err := h.Svc.AddToCart(ctx, id.UserID, req.ListingID, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResp(ln))
}

func (h *CartHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	var req UpdateCartItemReq
	if err := decodeValid(r, h.Validate, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ln, err := h.Svc.UpdateCartItem(ctx, id.UserID, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResp(ln))
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Svc.RemoveCartItem(ctx, id.UserID, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r)
	if !ok {
		writeUnauthorized(w)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Svc.ClearCart(ctx, id.UserID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
