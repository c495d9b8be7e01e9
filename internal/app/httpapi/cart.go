package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marketrun/platform/internal/app/services/carts"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
)

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Carts.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID      string `json:"product_id"`
		VariationID    string `json:"variation_id"`
		Quantity       int    `json:"quantity"`
		SpecialRequest string `json:"special_request"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	c, err := h.app.Carts.Add(r.Context(), middleware.GetUserID(r.Context()), carts.AddInput{
		ProductID:      payload.ProductID,
		VariationID:    payload.VariationID,
		Quantity:       payload.Quantity,
		SpecialRequest: payload.SpecialRequest,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Quantity       *int    `json:"quantity"`
		VariationID    *string `json:"variation_id"`
		SpecialRequest *string `json:"special_request"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	c, err := h.app.Carts.UpdateItem(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"], carts.UpdateInput{
		Quantity:       payload.Quantity,
		VariationID:    payload.VariationID,
		SpecialRequest: payload.SpecialRequest,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.app.Carts.RemoveItem(r.Context(), middleware.GetUserID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Carts.Clear(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
