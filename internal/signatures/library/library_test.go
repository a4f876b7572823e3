package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	sigapp "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/application"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
)

const sample = `
signatures:
  - name: Standard VAV
    equipment_type: VAV
    confidence: 90
    points:
      - {name: ZN-T, kind: Number, unit: "°F"}
      - {name: DPR-POS, kind: Number, unit: "%"}
      - {name: ZN-T, kind: Number, unit: "°F"}
  - name: Fan Coil
    equipment_type: FCU
    source: auto-generated
    points:
      - {name: FAN-CMD, kind: Bool}
`

func TestParse(t *testing.T) {
	drafts, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}
	vav := drafts[0]
	if vav.Source != signatures.SourceUserValidated || *vav.Confidence != 90 || len(vav.Points) != 2 {
		t.Fatalf("unexpected VAV draft: %+v", vav)
	}
	if drafts[1].Points[0].Kind != points.KindBool || drafts[1].Points[0].Unit != "" {
		t.Fatalf("unexpected FCU point: %+v", drafts[1].Points[0])
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{
		"signatures:\n  - name: ''\n    points: [{name: X, kind: Number}]\n",
		"signatures:\n  - name: Empty\n    points: []\n",
		"signatures:\n  - name: Bad\n    points: [{name: X, kind: Float}]\n",
		"signatures:\n  - name: Extra\n    colour: red\n    points: [{name: X, kind: Number}]\n",
	}
	for i, doc := range cases {
		if _, err := Parse(strings.NewReader(doc)); !errors.Is(err, signatures.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestImportIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	drafts, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	registry, err := sigapp.NewRegistry(sigmemory.NewRepository())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	ctx := context.Background()

	first, err := Import(ctx, registry, drafts)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(first.Created) != 2 || len(first.Skipped) != 0 {
		t.Fatalf("unexpected first import: %+v", first)
	}
	second, err := Import(ctx, registry, drafts)
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if len(second.Created) != 0 || len(second.Skipped) != 2 {
		t.Fatalf("unexpected second import: %+v", second)
	}
	all, _ := registry.List(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(all))
	}
}
