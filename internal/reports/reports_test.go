package reports

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
)

type stubSource struct {
	items []equipment.Equipment
	err   error
}

func (s stubSource) ListByType(ctx context.Context, equipmentType string) ([]equipment.Equipment, error) {
	return s.items, s.err
}

type stubCandidates struct{}

func (stubCandidates) CandidateSignatures(ctx context.Context, item equipment.Equipment) ([]sigapp.Candidate, error) {
	return []sigapp.Candidate{{
		Signature: signatures.Signature{Name: "Standard VAV"},
		Coverage:  sigapp.Coverage{MatchedCount: 1, TotalSignaturePoints: 2},
	}}, nil
}

func intPtr(v int) *int { return &v }

func sampleSource() stubSource {
	return stubSource{items: []equipment.Equipment{{
		ID:            "vav-1",
		EquipmentType: "VAV",
		Points: []points.Point{
			{ID: "p1", DisplayName: "ZN-T", Kind: points.KindNumber, Unit: "°F", NormalizedName: "Zone Temp", NormalizationConfidence: intPtr(95)},
			{ID: "p2", DisplayName: "DPR-POS", Kind: points.KindNumber, Unit: "%", NormalizationConfidence: intPtr(60)},
			{ID: "p3", DisplayName: "FAN-CMD", Kind: points.KindBool},
		},
	}}}
}

func TestBuild(t *testing.T) {
	builder, err := NewBuilder(sampleSource(), stubCandidates{}, 0)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	report, err := builder.Build(context.Background(), "VAV")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.ReviewHighMin != points.ReviewHighMin {
		t.Fatalf("expected default threshold, got %d", report.ReviewHighMin)
	}
	if len(report.Equipment) != 1 || report.Equipment[0].BestSignature != "Standard VAV" || report.Equipment[0].BestCoverage != 0.5 {
		t.Fatalf("unexpected equipment rows: %+v", report.Equipment)
	}
	if len(report.Points) != 3 {
		t.Fatalf("expected 3 point rows, got %d", len(report.Points))
	}
	review := report.NeedsReview()
	if len(review) != 2 || review[0].PointID != "p2" || review[1].ReviewBucket != points.ReviewUnscored {
		t.Fatalf("unexpected review rows: %+v", review)
	}
}

func TestBuildReviewXLSX(t *testing.T) {
	builder, _ := NewBuilder(sampleSource(), nil, 90)
	report, err := builder.Build(context.Background(), "")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := BuildReviewXLSX(report)
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	if got, _ := f.GetCellValue("summary", "B3"); got != "all" {
		t.Fatalf("unexpected scope %q", got)
	}
	if got, _ := f.GetCellValue("points", "C2"); got != "ZN-T" {
		t.Fatalf("unexpected first point %q", got)
	}
	if got, _ := f.GetCellValue("points", "G4"); got != "" {
		t.Fatalf("unscored confidence should be blank, got %q", got)
	}
	rows, err := f.GetRows("points")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
}

func TestHandler(t *testing.T) {
	builder, _ := NewBuilder(sampleSource(), stubCandidates{}, 0)
	handler, err := NewHandler(builder, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/review.pdf?equipment_type=VAV", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf: %d %s", resp.Code, resp.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected pdf payload")
	}

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/review.csv", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	failing, _ := NewBuilder(stubSource{err: errors.New("db down")}, nil, 0)
	handler, _ = NewHandler(failing, nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/reports/review.xlsx", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}
