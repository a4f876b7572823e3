package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	eqmemory "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/memory"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	"github.com/phunnicutt1/synapse-app-sub001/internal/signatures/analytics"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
)

type testServer struct {
	handler   *Handler
	analytics *analytics.MemoryStore
	audit     *audit.MemoryLog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry, err := sigapp.NewRegistry(sigmemory.NewRepository())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store := analytics.NewMemoryStore()
	log := audit.NewMemoryLog()
	equip := eqmemory.NewRepository(equipment.Equipment{
		ID:            "vav-1",
		EquipmentType: "VAV",
		Points: []points.Point{
			{ID: "p1", DisplayName: "ZN-T", Kind: points.KindNumber, Unit: "°F"},
			{ID: "p2", DisplayName: "FAN-CMD", Kind: points.KindBool},
		},
	})
	handler, err := NewHandler(registry, store, equip, log)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return &testServer{handler: handler, analytics: store, audit: log}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	resp := httptest.NewRecorder()
	s.handler.ServeHTTP(resp, req)
	return resp
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v body=%s", err, resp.Body.String())
	}
	return out
}

const vavBody = `{"name":"Standard VAV","equipment_type":"VAV","points":[{"name":"ZN-T","kind":"Number","unit":"°F"},{"name":"DPR-POS","kind":"Number","unit":"%"}]}`

func TestSignatureCRUD(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/api/v1/signatures", vavBody)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", resp.Code, resp.Body.String())
	}
	created := decode[signatures.Signature](t, resp)
	if created.ID == "" || created.Confidence != 100 {
		t.Fatalf("unexpected created: %+v", created)
	}

	resp = s.do(t, http.MethodPatch, "/api/v1/signatures/"+created.ID, `{"confidence":75}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: %d %s", resp.Code, resp.Body.String())
	}
	if updated := decode[signatures.Signature](t, resp); updated.Confidence != 75 || updated.Name != "Standard VAV" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	resp = s.do(t, http.MethodGet, "/api/v1/signatures?equipment_type=VAV", "")
	if list := decode[[]signatures.Signature](t, resp); len(list) != 1 {
		t.Fatalf("expected 1 VAV signature, got %d", len(list))
	}
	resp = s.do(t, http.MethodGet, "/api/v1/signatures?equipment_type=vav", "")
	if list := decode[[]signatures.Signature](t, resp); len(list) != 0 {
		t.Fatalf("type filter must be case-sensitive, got %d", len(list))
	}

	if resp = s.do(t, http.MethodDelete, "/api/v1/signatures/"+created.ID, ""); resp.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.Code)
	}
	if resp = s.do(t, http.MethodDelete, "/api/v1/signatures/"+created.ID, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("second delete: %d", resp.Code)
	}
	if got := len(s.audit.Entries()); got != 3 {
		t.Fatalf("expected 3 audit entries, got %d", got)
	}
}

func TestSignatureValidationErrors(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{"name":"","points":[{"name":"X","kind":"Number"}]}`,
		`{"name":"No points","points":[]}`,
		`{"name":"Bad","points":[{"name":"","kind":"Number"}]}`,
		`not json`,
	}
	for i, body := range cases {
		if resp := s.do(t, http.MethodPost, "/api/v1/signatures", body); resp.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, resp.Code)
		}
	}
	if resp := s.do(t, http.MethodPatch, "/api/v1/signatures/missing", `{"name":"x"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestCreateRejectsEquipmentListing(t *testing.T) {
	s := newTestServer(t)
	body := `{"name":"Listed","equipment_type":"VAV","points":[{"name":"ZN-T","kind":"Number","unit":"°F"}],"matching_equipment_ids":["vav-1"]}`
	if resp := s.do(t, http.MethodPost, "/api/v1/signatures", body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", resp.Code, resp.Body.String())
	}
	resp := s.do(t, http.MethodGet, "/api/v1/signatures", "")
	if list := decode[[]signatures.Signature](t, resp); len(list) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(list))
	}
}

func TestSignatureAnalytics(t *testing.T) {
	s := newTestServer(t)
	created := decode[signatures.Signature](t, s.do(t, http.MethodPost, "/api/v1/signatures", vavBody))

	resp := s.do(t, http.MethodGet, "/api/v1/signatures/"+created.ID+"/analytics", "")
	if got := decode[signatures.Analytics](t, resp); got.SignatureID != created.ID || got.TotalMatches != 0 {
		t.Fatalf("unexpected empty analytics: %+v", got)
	}

	_ = s.analytics.Apply(context.Background(), signatures.SignatureDelta{
		SignatureID: created.ID,
		Delta:       signatures.AnalyticsDelta{Matches: 3, Usage: 2, Positive: 3, Negative: 1},
	})
	resp = s.do(t, http.MethodGet, "/api/v1/signatures/"+created.ID+"/analytics", "")
	if got := decode[signatures.Analytics](t, resp); got.TotalMatches != 3 || got.Accuracy != 0.75 {
		t.Fatalf("unexpected analytics: %+v", got)
	}
	if resp := s.do(t, http.MethodGet, "/api/v1/signatures/missing/analytics", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestPromote(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodPost, "/api/v1/signatures/promote", `{"equipment_id":"vav-1","name":"Reviewed VAV","point_keys":["FAN-CMD|Bool|"]}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("promote: %d %s", resp.Code, resp.Body.String())
	}
	sig := decode[signatures.Signature](t, resp)
	if len(sig.Points) != 1 || sig.Points[0].Name != "FAN-CMD" || sig.EquipmentType != "VAV" {
		t.Fatalf("unexpected promoted signature: %+v", sig)
	}
	if resp := s.do(t, http.MethodPost, "/api/v1/signatures/promote", `{"equipment_id":"missing","name":"x"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := s.do(t, http.MethodPost, "/api/v1/signatures/promote", `{"equipment_id":"vav-1","name":"x","point_keys":["bad"]}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestLibraryImport(t *testing.T) {
	s := newTestServer(t)
	doc := "signatures:\n  - name: Fan Coil\n    equipment_type: FCU\n    points:\n      - {name: FAN-CMD, kind: Bool}\n"
	resp := s.do(t, http.MethodPost, "/api/v1/library/import", doc)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "created") {
		t.Fatalf("import: %d %s", resp.Code, resp.Body.String())
	}
	if resp := s.do(t, http.MethodPost, "/api/v1/library/import", "signatures: [{name: Bad, points: []}]"); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
