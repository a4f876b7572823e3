package audit

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phunnicutt1/synapse-app-sub001/internal/auth"
)

func TestFromRequestCapturesIdentity(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/v1/equipment/vav-1/signature", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 10.0.0.1")
	req.Header.Set("User-Agent", "synapsectl")
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleEngineer, "ops"))

	entry := FromRequest(req, "assign_signature", "equipment", "vav-1", map[string]string{"signature_id": "s1"})
	if entry.Actor != "ops" || entry.Role != "engineer" || entry.IP != "10.0.0.7" || entry.UserAgent != "synapsectl" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !strings.Contains(string(entry.Metadata), "s1") {
		t.Fatalf("metadata missing: %s", entry.Metadata)
	}
}

func TestFromRequestAnonymous(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:4000"
	entry := FromRequest(req, "x", "y", "z", nil)
	if entry.Actor != auth.AnonymousActor || entry.IP != "192.0.2.1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestFromRequestRealIPHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/records/R1/mapping", nil)
	req.Header.Set("X-Real-IP", " 198.51.100.4 ")
	if entry := FromRequest(req, "x", "y", "z", nil); entry.IP != "198.51.100.4" {
		t.Fatalf("unexpected ip %q", entry.IP)
	}
}

func TestMemoryLogFillsDefaults(t *testing.T) {
	log := NewMemoryLog()
	if err := log.Log(context.Background(), Entry{Action: "delete_signature", Metadata: []byte(`{"id":"s1"}`)}); err != nil {
		t.Fatalf("log: %v", err)
	}
	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry")
	}
	e := entries[0]
	if !strings.HasPrefix(e.ID, "audit-") || e.CreatedAt.IsZero() || len(e.PayloadDigest) != 64 {
		t.Fatalf("defaults not filled: %+v", e)
	}
}
