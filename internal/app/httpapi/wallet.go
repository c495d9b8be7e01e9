package httpapi

import (
	"net/http"

	"github.com/marketrun/platform/internal/app/metrics"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
)

func (h *handler) walletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.app.Wallets.Balance(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (h *handler) walletTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.Wallets.Transactions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handler) beginTopUp(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	topUp, err := h.app.Wallets.BeginTopUp(r.Context(), actor.ID, actor.Email, payload.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordWalletOperation(string(topUp.Transaction.Type), string(topUp.Transaction.Status))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"reference":         topUp.Transaction.Reference,
		"authorization_url": topUp.AuthorizationURL,
		"access_code":       topUp.AccessCode,
	})
}

func (h *handler) verifyTopUp(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Reference string `json:"reference"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	tx, err := h.app.Wallets.VerifyTopUp(r.Context(), middleware.GetUserID(r.Context()), payload.Reference)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordWalletOperation(string(tx.Type), string(tx.Status))
	writeJSON(w, http.StatusOK, tx)
}
