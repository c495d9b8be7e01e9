package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marketrun/platform/internal/app/services/accounts"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
)

type addressPayload struct {
	Label     string `json:"label"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

func (p addressPayload) input() accounts.AddressInput {
	return accounts.AddressInput{
		Label:     p.Label,
		Street:    p.Street,
		City:      p.City,
		State:     p.State,
		Country:   p.Country,
		Phone:     p.Phone,
		IsDefault: p.IsDefault,
	}
}

func (h *handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	addrs, err := h.app.Accounts.ListAddresses(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addrs)
}

func (h *handler) addAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var payload addressPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	addr, err := h.app.Accounts.AddAddress(r.Context(), userID, payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addr)
}

func (h *handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	var payload addressPayload
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	addr, err := h.app.Accounts.UpdateAddress(r.Context(), userID, mux.Vars(r)["id"], payload.input())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (h *handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.app.Accounts.DeleteAddress(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
