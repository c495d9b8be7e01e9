package httpapi

import (
	"net/http"
	"testing"
	"time"
)

func TestAuditActionNaming(t *testing.T) {
	cases := []struct {
		method, path, want string
	}{
		{http.MethodPost, "/api/admin/orders/ord-1/status", "orders.status"},
		{http.MethodPost, "/api/admin/orders/ord-1/agent", "orders.agent"},
		{http.MethodPut, "/api/admin/products/prod-1/variations", "products.variations"},
		{http.MethodPost, "/api/admin/products", "products.create"},
		{http.MethodPut, "/api/admin/products/prod-1", "products.update"},
		{http.MethodDelete, "/api/admin/promos/SAVE300", "promos.delete"},
		{http.MethodGet, "/api/admin/audit", "audit.view"},
	}
	for _, c := range cases {
		if got := auditAction(c.method, c.path); got != c.want {
			t.Fatalf("auditAction(%s, %s) = %q, want %q", c.method, c.path, got, c.want)
		}
	}
}

func TestAuditLogRetainsNewestFirst(t *testing.T) {
	log := newAuditLog(3, nil)
	for _, res := range []string{"a", "b", "c", "d"} {
		log.add(auditEntry{Time: time.Now().UTC(), Action: "orders.status", Resource: res})
	}

	all := log.recent(0)
	if len(all) != 3 {
		t.Fatalf("retained %d entries, want 3", len(all))
	}
	if all[0].Resource != "d" || all[2].Resource != "b" {
		t.Fatalf("unexpected order: %+v", all)
	}

	top := log.recent(1)
	if len(top) != 1 || top[0].Resource != "d" {
		t.Fatalf("recent(1) = %+v", top)
	}
}
