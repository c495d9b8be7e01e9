package httpapi

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// auditEntry records one admin action: who did what to which resource, and
// how the request ended.
type auditEntry struct {
	Time time.Time `json:"time"`
	// Admin is the acting admin's user id.
	Admin string `json:"admin"`
	Role  string `json:"role"`
	// Action is the semantic name of the operation, e.g. "orders.status",
	// "promos.create", "products.delete".
	Action string `json:"action"`
	// Resource is the order id, promo code or product id acted on, when the
	// route names one.
	Resource string `json:"resource,omitempty"`
	Method   string `json:"method"`
	Path     string `json:"path"`
	Status   int    `json:"status"`
}

// auditAction derives the semantic action name from an admin route. Routes
// look like /api/admin/{collection}[/{id}[/{facet}]]; the facet (status,
// agent, variations) names the operation more precisely than the verb.
func auditAction(method, path string) string {
	rest := strings.TrimPrefix(path, "/api/admin/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) >= 3 {
		return parts[0] + "." + parts[2]
	}
	verb := "view"
	switch method {
	case http.MethodPost:
		verb = "create"
	case http.MethodPut, http.MethodPatch:
		verb = "update"
	case http.MethodDelete:
		verb = "delete"
	}
	return parts[0] + "." + verb
}

// auditLog keeps the most recent admin actions in memory for the admin
// surface, optionally mirroring each entry to a JSONL sink.
type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
	max     int
	sink    auditSink
}

type auditSink interface {
	Write(entry auditEntry) error
}

func newAuditLog(max int, sink auditSink) *auditLog {
	if max <= 0 {
		max = 200
	}
	return &auditLog{max: max, sink: sink}
}

func (l *auditLog) add(entry auditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; the request must not fail on sink errors.
		_ = l.sink.Write(entry)
	}
}

// recent returns up to limit entries, newest first. A non-positive limit
// returns everything retained.
func (l *auditLog) recent(limit int) []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]auditEntry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// fileAuditSink appends audit entries as JSONL.
type fileAuditSink struct {
	mu   sync.Mutex
	file *os.File
}

func newFileAuditSink(path string) (*fileAuditSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &fileAuditSink{file: f}, nil
}

func (s *fileAuditSink) Write(entry auditEntry) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}
