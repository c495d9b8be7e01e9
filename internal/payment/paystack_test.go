package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_abc"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestInitializeSendsKoboAndAuth(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"status":true,"data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"order_x"}}`))
	})

	res, err := c.Initialize(context.Background(), "ade@example.com", 7550, "order_x")
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if gotAuth != "Bearer sk_test_abc" {
		t.Fatalf("authorization header: %q", gotAuth)
	}
	// 7550 naira is sent as 755000 kobo.
	if amount, _ := gotBody["amount"].(float64); amount != 755000 {
		t.Fatalf("amount: %v", gotBody["amount"])
	}
	if gotBody["currency"] != "NGN" {
		t.Fatalf("currency: %v", gotBody["currency"])
	}
	if res.AuthorizationURL != "https://checkout.paystack.com/abc" || res.Reference != "order_x" {
		t.Fatalf("result: %+v", res)
	}
}

func TestInitializeRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"Invalid email address"}`))
	})
	_, err := c.Initialize(context.Background(), "bad", 100, "ref")
	if err == nil || !strings.Contains(err.Error(), "Invalid email address") {
		t.Fatalf("expected rejection message, got %v", err)
	}
}

func TestVerifyParsesSettlement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/order_x" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":true,"data":{"status":"success","amount":755000,"paid_at":"2026-08-28T10:00:00.000Z","channel":"card"}}`))
	})

	res, err := c.Verify(context.Background(), "order_x")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Status != VerifySuccess {
		t.Fatalf("status: %s", res.Status)
	}
	if res.AmountKobo != 755000 {
		t.Fatalf("amount: %d", res.AmountKobo)
	}
	if res.Channel != "card" {
		t.Fatalf("channel: %s", res.Channel)
	}
}

func TestVerifyUnknownStatusMapsToPending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"status":"processing","amount":100}}`))
	})
	res, err := c.Verify(context.Background(), "ref")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Status != VerifyPending {
		t.Fatalf("status: %s", res.Status)
	}
}

func TestRequestSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})
	_, err := c.Verify(context.Background(), "ref")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}
