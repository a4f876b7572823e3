package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mappings "github.com/phunnicutt1/synapse-app-sub001/internal/mappings/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: blank name", signatures.ErrValidation), http.StatusBadRequest},
		{points.ErrMalformedKey, http.StatusBadRequest},
		{fmt.Errorf("%w: eq-1", mappings.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: %w", mappings.ErrConflict, signatures.ErrVersionConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Fatalf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWriteErrorHidesInternal(t *testing.T) {
	resp := httptest.NewRecorder()
	WriteError(resp, errors.New("pq: connection refused"))
	if resp.Code != http.StatusInternalServerError || strings.Contains(resp.Body.String(), "pq") {
		t.Fatalf("unexpected response: %d %s", resp.Code, resp.Body.String())
	}
}

func TestCategorizeHandler(t *testing.T) {
	handler := NewCategorizeHandler(0)
	body := `{"points":[
		{"id":"p1","dis":"ZN-T","kind":"Number","unit":"°F","reasoning":["Zone Temperature"],"normalization_confidence":92},
		{"id":"p2","dis":"SP","kind":"Number","writable":true,"normalization_confidence":75},
		{"id":"p3","dis":"OCC","kind":"Bool"}
	]}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/points/categorize", bytes.NewBufferString(body)))
	if resp.Code != http.StatusOK {
		t.Fatalf("categorize: %d %s", resp.Code, resp.Body.String())
	}
	var got categorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []points.Category{points.CategoryTemperature, points.CategorySetpoint, points.CategoryStatus}
	for i, c := range got.Classifications {
		if c.Category != want[i] {
			t.Fatalf("point %d: got %s want %s", i, c.Category, want[i])
		}
	}
	if got.Classifications[1].Tier != points.TierMedium || got.Classifications[1].ReviewBucket != points.ReviewNeeded {
		t.Fatalf("unexpected buckets: %+v", got.Classifications[1])
	}
	if got.Summary.TotalPoints != 3 || got.Summary.ScoredPoints != 2 {
		t.Fatalf("unexpected summary: %+v", got.Summary)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/points/categorize", bytes.NewBufferString(`{"points":[{"id":"x","kind":"Float"}]}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", resp.Code)
	}
}

type stubLister struct {
	records []mappings.ExternalRecord
	err     error
	project string
}

func (s *stubLister) ListEquipment(ctx context.Context, projectID string) ([]mappings.ExternalRecord, error) {
	s.project = projectID
	return s.records, s.err
}

func TestRecordsHandler(t *testing.T) {
	lister := &stubLister{records: []mappings.ExternalRecord{{ID: "101", Name: "VAV-1"}}}
	handler, err := NewRecordsHandler(lister, "42", log.New(&bytes.Buffer{}, "", 0))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	if resp.Code != http.StatusOK || lister.project != "42" {
		t.Fatalf("unexpected: %d project=%s", resp.Code, lister.project)
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records?project_id=7", nil))
	if lister.project != "7" {
		t.Fatalf("query project not used: %s", lister.project)
	}

	lister.err = errors.New("timeout")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}

	noDefault, _ := NewRecordsHandler(lister, "", nil)
	resp = httptest.NewRecorder()
	noDefault.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/records", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), log.New(&buf, "", 0))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	if resp.Code != http.StatusTeapot || !strings.Contains(buf.String(), "GET /x 418") {
		t.Fatalf("unexpected log %q", buf.String())
	}
}
