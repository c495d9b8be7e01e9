package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/marketrun/platform/internal/app/domain/order"
	"github.com/marketrun/platform/internal/app/metrics"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
)

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.app.Orders.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.app.Orders.Get(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	orders, err := h.app.Orders.ListAll(r.Context(), actor, order.Status(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *handler) adminAdvanceOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	updated, err := h.app.Orders.Advance(r.Context(), actor, mux.Vars(r)["id"], order.Status(payload.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.RecordOrderTransition(string(updated.Status))
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) adminAssignAgent(w http.ResponseWriter, r *http.Request) {
	actor, err := h.requireAdmin(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var payload struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}
	updated, err := h.app.Orders.AssignAgent(r.Context(), actor, mux.Vars(r)["id"], payload.Name, payload.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// auditMiddleware records every admin request in the in-memory audit trail.
func (h *handler) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &auditRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		claims := middleware.GetClaims(r.Context())
		entry := auditEntry{
			Time:   time.Now().UTC(),
			Action: auditAction(r.Method, r.URL.Path),
			Path:   r.URL.Path,
			Method: r.Method,
			Status: rec.status,
		}
		vars := mux.Vars(r)
		if id, ok := vars["id"]; ok {
			entry.Resource = id
		} else if code, ok := vars["code"]; ok {
			entry.Resource = code
		}
		if claims != nil {
			entry.Admin = claims.UserID
			entry.Role = claims.Role
		}
		h.audit.add(entry)
	})
}

func (h *handler) adminAudit(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperrors.Validation("limit must be an integer"))
			return
		}
		limit = parsed
	}
	writeJSON(w, http.StatusOK, h.audit.recent(limit))
}

type auditRecorder struct {
	http.ResponseWriter
	status int
}

func (r *auditRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
