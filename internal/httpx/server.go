package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/ariefcatur/go-marketplace-checkout.git/internal/checkout"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/market"
	"github.com/ariefcatur/go-marketplace-checkout.git/internal/payments"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// identity carries the authenticated user as resolved by the gateway in front
// of this service. Authentication itself is out of scope here; the gateway
// strips and re-sets these headers.
type identity struct {
	UserID  string
	Email   string
	Address string
}

func identityFrom(r *http.Request) (identity, bool) {
	id := identity{
		UserID:  r.Header.Get("X-User-Id"),
		Email:   r.Header.Get("X-User-Email"),
		Address: r.Header.Get("X-User-Address"),
	}
	return id, id.UserID != ""
}

func (id identity) buyer() market.Buyer {
	return market.Buyer{ID: id.UserID, Email: id.Email, Address: id.Address}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service errors onto status codes: bad input 400, domain
// conflicts 409, unknown resources 404, processor trouble 502, the rest 500.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case checkout.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrOrderNotFound),
		errors.Is(err, checkout.ErrListingNotFound),
		errors.Is(err, market.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case checkout.IsConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case payments.IsIntegration(err):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment processor unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
}

func decodeValid(r *http.Request, v *validator.Validate, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return v.Struct(dst)
}
