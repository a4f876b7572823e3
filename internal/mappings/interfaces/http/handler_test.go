package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phunnicutt1/synapse-app-sub001/internal/audit"
	"github.com/phunnicutt1/synapse-app-sub001/internal/auth"
	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	eqmemory "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/infrastructure/memory"
	mapapp "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/application"
	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	mapmemory "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/infrastructure/memory"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
)

type env struct {
	handler  *Handler
	registry *sigapp.Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	sigRepo := sigmemory.NewRepository()
	uow, err := mapmemory.NewUnitOfWork(sigRepo, mapmemory.NewStore())
	if err != nil {
		t.Fatalf("uow: %v", err)
	}
	equip := eqmemory.NewRepository(
		equipment.Equipment{ID: "E1", EquipmentType: "VAV", Points: []points.Point{{ID: "p", DisplayName: "ZN-T", Kind: points.KindNumber}}},
		equipment.Equipment{ID: "E2", EquipmentType: "VAV", Points: []points.Point{{ID: "p", DisplayName: "ZN-T", Kind: points.KindNumber}}},
	)
	manager, err := mapapp.NewManager(uow, mapapp.WithEquipmentLookup(equip))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	handler, err := NewHandler(manager, audit.NewMemoryLog())
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	registry, err := sigapp.NewRegistry(sigRepo)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return &env{handler: handler, registry: registry}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.RoleEngineer, "reviewer@example.com"))
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func (e *env) signature(t *testing.T, name string) string {
	t.Helper()
	sig, err := e.registry.Create(context.Background(), sigapp.Draft{
		Name:          name,
		EquipmentType: "VAV",
		Points:        []signatures.SignaturePoint{{Name: "ZN-T", Kind: points.KindNumber}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return sig.ID
}

func TestAssignSignatureEndpoint(t *testing.T) {
	e := newEnv(t)
	s1 := e.signature(t, "S1")

	resp := e.do(t, http.MethodPut, "/api/v1/equipment/E1/signature", `{"signature_id":"`+s1+`"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("assign: %d %s", resp.Code, resp.Body.String())
	}
	var state mappings.SignatureState
	_ = json.NewDecoder(resp.Body).Decode(&state)
	if state.Status != mappings.StatusAssigned || state.SignatureID != s1 {
		t.Fatalf("unexpected state: %+v", state)
	}

	if resp := e.do(t, http.MethodPut, "/api/v1/equipment/E1/signature", `{"signature_id":"missing"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if resp := e.do(t, http.MethodPut, "/api/v1/equipment/nope/signature", `{"signature_id":"`+s1+`"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown equipment, got %d", resp.Code)
	}
	if resp := e.do(t, http.MethodPut, "/api/v1/equipment/E1/signature", `{}`); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	resp = e.do(t, http.MethodDelete, "/api/v1/equipment/E1/signature", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("unassign: %d", resp.Code)
	}
	resp = e.do(t, http.MethodGet, "/api/v1/equipment/E1/signature", "")
	_ = json.NewDecoder(resp.Body).Decode(&state)
	if state.Status != mappings.StatusUnassigned {
		t.Fatalf("expected unassigned, got %+v", state)
	}
}

func TestRecordMappingEndpoints(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, http.MethodPut, "/api/v1/equipment/E1/record", `{"record_id":"R1"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("assign record: %d %s", resp.Code, resp.Body.String())
	}
	var view mappings.MappingView
	_ = json.NewDecoder(resp.Body).Decode(&view)
	if view.MappedBy != "reviewer@example.com" {
		t.Fatalf("expected token subject as mapped_by, got %q", view.MappedBy)
	}

	if resp := e.do(t, http.MethodPut, "/api/v1/equipment/E2/record", `{"record_id":"R1"}`); resp.Code != http.StatusOK {
		t.Fatalf("move record: %d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/v1/equipment/E1/mapping", ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected E1 unmapped, got %d", resp.Code)
	}
	resp = e.do(t, http.MethodGet, "/api/v1/records/R1/mapping", "")
	_ = json.NewDecoder(resp.Body).Decode(&view)
	if view.EquipmentID != "E2" {
		t.Fatalf("expected R1 on E2, got %+v", view)
	}

	if resp := e.do(t, http.MethodDelete, "/api/v1/records/R1/mapping", ""); resp.Code != http.StatusNoContent {
		t.Fatalf("unmap: %d", resp.Code)
	}
	if resp := e.do(t, http.MethodDelete, "/api/v1/equipment/E2/record", ""); resp.Code != http.StatusNoContent {
		t.Fatalf("no-op unmap: %d", resp.Code)
	}
}

func TestDanglingSignatureSurfaced(t *testing.T) {
	e := newEnv(t)
	s1 := e.signature(t, "S1")
	e.do(t, http.MethodPut, "/api/v1/equipment/E1/signature", `{"signature_id":"`+s1+`"}`)
	e.do(t, http.MethodPut, "/api/v1/equipment/E1/record", `{"record_id":"R1"}`)
	if err := e.registry.Delete(context.Background(), s1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	resp := e.do(t, http.MethodGet, "/api/v1/records/R1/mapping", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("mapping must survive signature delete, got %d", resp.Code)
	}
	var view mappings.MappingView
	_ = json.NewDecoder(resp.Body).Decode(&view)
	if !view.DanglingSignature || view.SignatureID != s1 {
		t.Fatalf("expected dangling signature, got %+v", view)
	}
}

func TestOwns(t *testing.T) {
	cases := map[string]bool{
		"/api/v1/equipment/E1/signature":  true,
		"/api/v1/equipment/E1/record":     true,
		"/api/v1/equipment/E1/mapping":    true,
		"/api/v1/equipment/E1/candidates": false,
		"/api/v1/equipment//signature":    false,
	}
	for path, want := range cases {
		if got := Owns(path); got != want {
			t.Fatalf("Owns(%q) = %v, want %v", path, got, want)
		}
	}
}
