package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "github.com/marketrun/platform/internal/app"
	"github.com/marketrun/platform/internal/app/domain/account"
	"github.com/marketrun/platform/internal/app/storage/memory"
	"github.com/marketrun/platform/internal/payment"
)

var testSecret = []byte("test-secret")

type stubGateway struct {
	verify payment.VerifyResult
}

func (g *stubGateway) Initialize(_ context.Context, _ string, _ int64, reference string) (payment.InitResult, error) {
	return payment.InitResult{AuthorizationURL: "https://pay.test/" + reference, Reference: reference}, nil
}

func (g *stubGateway) Verify(context.Context, string) (payment.VerifyResult, error) {
	return g.verify, nil
}

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	app     *app.Application
	gateway *stubGateway
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	gw := &stubGateway{}
	application, err := app.New(app.Stores{
		Users: store, Addresses: store, Catalog: store, Carts: store,
		Promos: store, Wallets: store, Orders: store,
	}, app.Options{Gateway: gw}, nil)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	handler, err := NewHandler(application, Options{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return &testEnv{handler: handler, store: store, app: application, gateway: gw}
}

func marshal(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(data)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, marshal(t, body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// registerUser signs up through the API and returns the user id and token.
func (e *testEnv) registerUser(t *testing.T, email string) (string, string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "long-enough-password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var out struct {
		User  struct{ ID string }
		Token string
	}
	decode(t, rec, &out)
	return out.User.ID, out.Token
}

// registerAdmin registers through the API and promotes the stored record, the
// same thing the seed command does.
func (e *testEnv) registerAdmin(t *testing.T) string {
	t.Helper()
	id, token := e.registerUser(t, "admin@example.com")
	u, err := e.store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	u.Role = account.RoleAdmin
	if _, err := e.store.UpdateUser(context.Background(), u); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	return token
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestAuthRequiredOnCustomerSurface(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/api/me", "/api/cart", "/api/wallet", "/api/orders"} {
		rec := e.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: got %d, want 401", path, rec.Code)
		}
	}
}

func TestAdminSurfaceForbiddenForCustomers(t *testing.T) {
	e := newEnv(t)
	_, token := e.registerUser(t, "ade@example.com")

	rec := e.do(t, http.MethodGet, "/api/admin/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("admin list users as customer: %d", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/admin/products", token, map[string]interface{}{
		"name": "Yam", "base_price": 1500, "in_stock": true,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create product as customer: %d", rec.Code)
	}
}

func TestLoginIssuesWorkingToken(t *testing.T) {
	e := newEnv(t)
	e.registerUser(t, "ade@example.com")

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ade@example.com", "password": "long-enough-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var out struct{ Token string }
	decode(t, rec, &out)

	rec = e.do(t, http.MethodGet, "/api/me", out.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	var me struct {
		Email        string `json:"email"`
		PasswordHash string `json:"password_hash"`
	}
	decode(t, rec, &me)
	if me.Email != "ade@example.com" {
		t.Fatalf("me email: %q", me.Email)
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ade@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
}

// TestCheckoutFlow walks the whole customer journey over HTTP: the admin
// stocks the catalog, the customer registers, fills a cart, tops up the
// wallet and places an order the admin then advances.
func TestCheckoutFlow(t *testing.T) {
	e := newEnv(t)
	adminToken := e.registerAdmin(t)
	userID, userToken := e.registerUser(t, "ade@example.com")

	// Admin stocks the catalog.
	rec := e.do(t, http.MethodPost, "/api/admin/products", adminToken, map[string]interface{}{
		"name": "Ofada Rice (5kg)", "base_price": 2500, "in_stock": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", rec.Code, rec.Body.String())
	}
	var product struct{ ID string }
	decode(t, rec, &product)

	// Customer sets a delivery address and a cart.
	rec = e.do(t, http.MethodPost, "/api/addresses", userToken, map[string]string{
		"street": "12 Adeola Odeku", "city": "Victoria Island", "state": "Lagos", "country": "Nigeria",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add address: %d %s", rec.Code, rec.Body.String())
	}
	rec = e.do(t, http.MethodPost, "/api/cart/items", userToken, map[string]interface{}{
		"product_id": product.ID, "quantity": 2,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add cart item: %d %s", rec.Code, rec.Body.String())
	}

	// Quote: 5000 + 2000 delivery + 500 soonest + 50 service fee.
	rec = e.do(t, http.MethodPost, "/api/checkout/quote", userToken, map[string]string{
		"delivery_slot": "soonest",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: %d %s", rec.Code, rec.Body.String())
	}
	var quote struct{ Total int64 }
	decode(t, rec, &quote)
	if quote.Total != 7550 {
		t.Fatalf("quote total: %d", quote.Total)
	}

	// Fund the wallet behind the API, then pay from it.
	if _, err := e.app.Wallets.Credit(context.Background(), userID, 10000, "seed", ""); err != nil {
		t.Fatalf("credit wallet: %v", err)
	}
	rec = e.do(t, http.MethodPost, "/api/checkout", userToken, map[string]string{
		"attempt_id":     "attempt-1",
		"delivery_slot":  "soonest",
		"payment_method": "wallet",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order: %d %s", rec.Code, rec.Body.String())
	}
	var placed struct {
		ID     string
		Status string
		Total  int64
	}
	decode(t, rec, &placed)
	if placed.Status != "pending" || placed.Total != 7550 {
		t.Fatalf("placed order: %+v", placed)
	}

	// The customer sees the order; a stranger gets a 404.
	rec = e.do(t, http.MethodGet, "/api/orders/"+placed.ID, userToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: %d", rec.Code)
	}
	_, strangerToken := e.registerUser(t, "stranger@example.com")
	rec = e.do(t, http.MethodGet, "/api/orders/"+placed.ID, strangerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger get order: %d", rec.Code)
	}

	// Admin advances the order; the customer may not.
	rec = e.do(t, http.MethodPost, "/api/admin/orders/"+placed.ID+"/status", userToken, map[string]string{"status": "shopping"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer advance: %d", rec.Code)
	}
	rec = e.do(t, http.MethodPost, "/api/admin/orders/"+placed.ID+"/status", adminToken, map[string]string{"status": "shopping"})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin advance: %d %s", rec.Code, rec.Body.String())
	}

	// The admin mutation landed in the audit log, naming the order it touched.
	rec = e.do(t, http.MethodGet, "/api/admin/audit", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: %d", rec.Code)
	}
	var entries []struct {
		Admin    string
		Action   string
		Resource string
		Status   int
	}
	decode(t, rec, &entries)
	if len(entries) == 0 {
		t.Fatal("audit log is empty")
	}
	var found bool
	for _, e := range entries {
		if e.Action == "orders.status" && e.Resource == placed.ID {
			found = true
			if e.Admin == "" || e.Status != http.StatusOK {
				t.Fatalf("audit entry incomplete: %+v", e)
			}
		}
	}
	if !found {
		t.Fatalf("no orders.status entry for %s in %+v", placed.ID, entries)
	}
}

func TestValidationErrorsMapToStatusCodes(t *testing.T) {
	e := newEnv(t)
	_, token := e.registerUser(t, "ade@example.com")

	// Unknown field is rejected by the strict decoder.
	rec := e.do(t, http.MethodPost, "/api/cart/items", token, map[string]interface{}{
		"product_id": "x", "quantity": 1, "bogus": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", rec.Code)
	}

	// Empty cart checkout fails the precondition.
	rec = e.do(t, http.MethodPost, "/api/checkout", token, map[string]string{
		"attempt_id": "attempt-1", "delivery_slot": "next_day", "payment_method": "wallet",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty cart: %d %s", rec.Code, rec.Body.String())
	}
}
