package httpapi

import (
	"net/http"

	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/metrics"
	"github.com/marketrun/platform/internal/app/pricing"
	"github.com/marketrun/platform/internal/app/services/checkout"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
)

type quotePayload struct {
	AddressID string `json:"address_id"`
	Slot      string `json:"delivery_slot"`
	PromoCode string `json:"promo_code"`
}

func (p quotePayload) input() checkout.QuoteInput {
	return checkout.QuoteInput{
		AddressID: p.AddressID,
		Slot:      pricing.DeliverySlot(p.Slot),
		PromoCode: p.PromoCode,
	}
}

func (h *handler) quote(w http.ResponseWriter, r *http.Request) {
	var payload quotePayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	q, err := h.app.Checkout.Quote(r.Context(), middleware.GetUserID(r.Context()), payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *handler) beginOnlinePayment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		quotePayload
		AttemptID string `json:"attempt_id"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	init, q, err := h.app.Checkout.BeginOnlinePayment(r.Context(), middleware.GetUserID(r.Context()), payload.input(), payload.AttemptID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"reference":         init.Reference,
		"authorization_url": init.AuthorizationURL,
		"access_code":       init.AccessCode,
		"quote":             q,
	})
}

func (h *handler) place(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AttemptID        string `json:"attempt_id"`
		AddressID        string `json:"address_id"`
		Slot             string `json:"delivery_slot"`
		PromoCode        string `json:"promo_code"`
		PaymentMethod    string `json:"payment_method"`
		PaymentReference string `json:"payment_reference"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	placed, err := h.app.Checkout.Place(r.Context(), middleware.GetUserID(r.Context()), checkout.PlaceInput{
		AttemptID:        payload.AttemptID,
		AddressID:        payload.AddressID,
		Slot:             pricing.DeliverySlot(payload.Slot),
		PromoCode:        payload.PromoCode,
		PaymentMethod:    order.PaymentMethod(payload.PaymentMethod),
		PaymentReference: payload.PaymentReference,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordOrderPlaced(string(placed.PaymentMethod), placed.Total)
	writeJSON(w, http.StatusCreated, placed)
}
