package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/marketrun/platform/internal/app/domain/promo"
	"github.com/marketrun/platform/internal/app/services/promos"
	apperrors "github.com/marketrun/platform/internal/errors"
)

func (h *handler) validatePromo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	p, err := h.app.Promos.Validate(r.Context(), payload.Code, payload.Subtotal)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":     p.Code,
		"discount": p.Discount(payload.Subtotal),
	})
}

func (h *handler) adminCreatePromo(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Code         string `json:"code"`
		DiscountType string `json:"discount_type"`
		Value        int64  `json:"value"`
		MaxDiscount  int64  `json:"max_discount"`
		MinimumOrder int64  `json:"minimum_order"`
		ExpiresAt    string `json:"expires_at"`
		UsageLimit   int    `json:"usage_limit"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	expiresAt, err := time.Parse(time.RFC3339, payload.ExpiresAt)
	if err != nil {
		writeError(w, apperrors.Validation("expires_at must be RFC 3339: %v", err))
		return
	}
	created, err := h.app.Promos.Create(r.Context(), promos.CreateInput{
		Code:         payload.Code,
		DiscountType: promo.DiscountType(payload.DiscountType),
		Value:        payload.Value,
		MaxDiscount:  payload.MaxDiscount,
		MinimumOrder: payload.MinimumOrder,
		ExpiresAt:    expiresAt,
		UsageLimit:   payload.UsageLimit,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) adminListPromos(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	list, err := h.app.Promos.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) adminDeactivatePromo(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	p, err := h.app.Promos.Deactivate(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
