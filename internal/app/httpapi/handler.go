// Package httpapi exposes the REST API over the application services.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	app "github.com/marketrun/platform/internal/app"
	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/services/accounts"
	apperrors "github.com/marketrun/platform/internal/errors"
	"github.com/marketrun/platform/internal/middleware"
	"github.com/marketrun/platform/pkg/logger"
)

// Options configures the handler.
type Options struct {
	// JWTSecret signs and verifies bearer tokens.
	JWTSecret []byte
	// TokenTTL bounds issued token lifetime.
	TokenTTL time.Duration
	// AuditLogPath optionally persists admin audit entries as JSONL.
	AuditLogPath string
	Log          *logger.Logger
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	opts  Options
	log   *logger.Logger
	audit *auditLog
}

// NewHandler returns the router exposing the REST API.
func NewHandler(application *app.Application, opts Options) (http.Handler, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	sink, err := newFileAuditSink(opts.AuditLogPath)
	if err != nil {
		return nil, err
	}
	h := &handler{
		app:   application,
		opts:  opts,
		log:   log,
		audit: newAuditLog(500, sink),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Public surface: registration, login and catalog browsing.
	api.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	api.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)
	api.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", h.getProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}/variations", h.listVariations).Methods(http.MethodGet)

	authMW := middleware.NewAuthMiddleware(opts.JWTSecret, log, nil)

	// Authenticated customer surface.
	sec := api.NewRoute().Subrouter()
	sec.Use(mux.MiddlewareFunc(authMW.Handler))
	sec.HandleFunc("/me", h.me).Methods(http.MethodGet)
	sec.HandleFunc("/addresses", h.listAddresses).Methods(http.MethodGet)
	sec.HandleFunc("/addresses", h.addAddress).Methods(http.MethodPost)
	sec.HandleFunc("/addresses/{id}", h.updateAddress).Methods(http.MethodPut)
	sec.HandleFunc("/addresses/{id}", h.deleteAddress).Methods(http.MethodDelete)

	sec.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	sec.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	sec.HandleFunc("/cart/items", h.addCartItem).Methods(http.MethodPost)
	sec.HandleFunc("/cart/items/{id}", h.updateCartItem).Methods(http.MethodPatch)
	sec.HandleFunc("/cart/items/{id}", h.removeCartItem).Methods(http.MethodDelete)

	sec.HandleFunc("/promos/validate", h.validatePromo).Methods(http.MethodPost)

	sec.HandleFunc("/wallet", h.walletBalance).Methods(http.MethodGet)
	sec.HandleFunc("/wallet/transactions", h.walletTransactions).Methods(http.MethodGet)
	sec.HandleFunc("/wallet/topup", h.beginTopUp).Methods(http.MethodPost)
	sec.HandleFunc("/wallet/topup/verify", h.verifyTopUp).Methods(http.MethodPost)

	sec.HandleFunc("/checkout/quote", h.quote).Methods(http.MethodPost)
	sec.HandleFunc("/checkout/pay", h.beginOnlinePayment).Methods(http.MethodPost)
	sec.HandleFunc("/checkout", h.place).Methods(http.MethodPost)

	sec.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	sec.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	sec.HandleFunc("/orders/{id}/track", h.trackOrder).Methods(http.MethodGet)

	// Admin surface. Every mutation lands in the audit log.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(authMW.Handler), h.auditMiddleware)
	admin.HandleFunc("/users", h.adminListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/categories", h.adminCreateCategory).Methods(http.MethodPost)
	admin.HandleFunc("/products", h.adminCreateProduct).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id}", h.adminUpdateProduct).Methods(http.MethodPut)
	admin.HandleFunc("/products/{id}", h.adminDeleteProduct).Methods(http.MethodDelete)
	admin.HandleFunc("/products/{id}/variations", h.adminAddVariation).Methods(http.MethodPost)
	admin.HandleFunc("/promos", h.adminCreatePromo).Methods(http.MethodPost)
	admin.HandleFunc("/promos", h.adminListPromos).Methods(http.MethodGet)
	admin.HandleFunc("/promos/{code}", h.adminDeactivatePromo).Methods(http.MethodDelete)
	admin.HandleFunc("/orders", h.adminListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id}/status", h.adminAdvanceOrder).Methods(http.MethodPost)
	admin.HandleFunc("/orders/{id}/agent", h.adminAssignAgent).Methods(http.MethodPost)
	admin.HandleFunc("/audit", h.adminAudit).Methods(http.MethodGet)

	return r, nil
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor resolves the authenticated user from the request. Role checks read
// the stored record, not the token, so demotions take effect immediately.
func (h *handler) actor(r *http.Request) (account.User, error) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		return account.User{}, apperrors.Unauthorized("authentication required")
	}
	return h.app.Accounts.Get(r.Context(), claims.UserID)
}

// requireAdmin resolves the actor and rejects non-admins.
func (h *handler) requireAdmin(r *http.Request) (account.User, error) {
	actor, err := h.actor(r)
	if err != nil {
		return account.User{}, err
	}
	if !actor.IsAdmin() {
		return account.User{}, apperrors.Forbidden("admin access required")
	}
	return actor, nil
}

// userView is the customer-visible projection of a user record.
type userView struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Role         string `json:"role"`
	ReferralCode string `json:"referral_code"`
}

func viewUser(u account.User) userView {
	return userView{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Phone:        u.Phone,
		Role:         string(u.Role),
		ReferralCode: u.ReferralCode,
	}
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email        string `json:"email"`
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Password     string `json:"password"`
		ReferralCode string `json:"referral_code"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}

	user, err := h.app.Accounts.Register(r.Context(), accounts.RegisterInput{
		Email:          payload.Email,
		Name:           payload.Name,
		Phone:          payload.Phone,
		Password:       payload.Password,
		ReferredByCode: payload.ReferralCode,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := middleware.IssueToken(h.opts.JWTSecret, user, h.opts.TokenTTL)
	if err != nil {
		writeError(w, apperrors.Internal("issue token", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"user": viewUser(user), "token": token})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, apperrors.Validation("invalid request body: %v", err))
		return
	}

	user, err := h.app.Accounts.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	token, err := middleware.IssueToken(h.opts.JWTSecret, user, h.opts.TokenTTL)
	if err != nil {
		writeError(w, apperrors.Internal("issue token", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": viewUser(user), "token": token})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	actor, err := h.actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewUser(actor))
}

func (h *handler) adminListUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireAdmin(r); err != nil {
		writeError(w, err)
		return
	}
	users, err := h.app.Accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewUser(u))
	}
	writeJSON(w, http.StatusOK, views)
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
