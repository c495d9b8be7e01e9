package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marketrun/platform/internal/app/domain/account"
)

var testSecret = []byte("test-secret")

func protectedHandler(t *testing.T, wantUserID string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := GetUserID(r.Context()); got != wantUserID {
			t.Errorf("user id in context: got %q, want %q", got, wantUserID)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestIssueAndValidateToken(t *testing.T) {
	u := account.User{ID: "user-1", Email: "ade@example.com", Role: account.RoleUser}
	token, err := IssueToken(testSecret, u, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	mw := NewAuthMiddleware(testSecret, nil, nil)
	srv := mw.Handler(protectedHandler(t, "user-1"))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestRejectsMissingAndMalformedTokens(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, nil, nil)
	srv := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	for _, header := range []string{"", "Bearer", "Bearer not.a.jwt", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status %d", header, rec.Code)
		}
	}
}

func TestRejectsWrongSecret(t *testing.T) {
	u := account.User{ID: "user-1", Email: "ade@example.com"}
	token, err := IssueToken([]byte("other-secret"), u, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	mw := NewAuthMiddleware(testSecret, nil, nil)
	srv := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestRejectsExpiredToken(t *testing.T) {
	expired := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	mw := NewAuthMiddleware(testSecret, nil, nil)
	srv := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestSkipPathsBypassAuth(t *testing.T) {
	mw := NewAuthMiddleware(testSecret, nil, []string{"/healthz"})
	srv := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestGetClaimsRoundTrip(t *testing.T) {
	claims := &Claims{UserID: "user-1", Email: "ade@example.com", Role: string(account.RoleAdmin)}
	ctx := WithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), claims)

	got := GetClaims(ctx)
	if got == nil || got.UserID != "user-1" || got.Role != string(account.RoleAdmin) {
		t.Fatalf("claims: %+v", got)
	}
}
