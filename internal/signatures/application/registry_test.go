package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	equipment "github.com/phunnicutt1/synapse-app-sub001/internal/equipment/domain"
	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
	signatures "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/domain"
	sigmemory "github.com/phunnicutt1/synapse-app-sub001/internal/signatures/infrastructure/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestRegistry(t *testing.T) (*Registry, *sigmemory.Repository) {
	t.Helper()
	repo := sigmemory.NewRepository()
	seq := 0
	registry, err := NewRegistry(repo,
		WithClock(fixedClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("sig-%d", seq)
		}),
	)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry, repo
}

func zoneTemp() signatures.SignaturePoint {
	return signatures.SignaturePoint{Name: "ZN-T", Kind: points.KindNumber, Unit: "°F"}
}

func TestCreateDefaults(t *testing.T) {
	registry, _ := newTestRegistry(t)
	sig, err := registry.Create(context.Background(), Draft{
		Name:          "  Standard VAV ",
		EquipmentType: "VAV",
		Points:        []signatures.SignaturePoint{zoneTemp(), zoneTemp()},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sig.ID != "sig-1" || sig.Name != "Standard VAV" {
		t.Fatalf("unexpected identity: %+v", sig)
	}
	if sig.Source != signatures.SourceUserCreated || sig.Confidence != 100 {
		t.Fatalf("unexpected defaults: source=%s confidence=%d", sig.Source, sig.Confidence)
	}
	if len(sig.Points) != 1 {
		t.Fatalf("expected duplicate points collapsed, got %d", len(sig.Points))
	}
	if sig.Version != 1 {
		t.Fatalf("expected version 1, got %d", sig.Version)
	}
	if len(sig.MatchingEquipmentIDs) != 0 {
		t.Fatalf("expected no equipment listed, got %v", sig.MatchingEquipmentIDs)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	registry, repo := newTestRegistry(t)
	ctx := context.Background()
	cases := []Draft{
		{Name: "", EquipmentType: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}},
		{Name: "No points", EquipmentType: "VAV"},
		{Name: "Bad kind", EquipmentType: "VAV", Points: []signatures.SignaturePoint{{Name: "X", Kind: "Float"}}},
		{Name: "Bad unit", EquipmentType: "VAV", Points: []signatures.SignaturePoint{{Name: "ZN-T", Kind: points.KindNumber, Unit: "a|b"}}},
		{Name: "Bad source", EquipmentType: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}, Source: "imported"},
	}
	for i, draft := range cases {
		if _, err := registry.Create(ctx, draft); !errors.Is(err, signatures.ErrValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	all, _ := repo.List(ctx)
	if len(all) != 0 {
		t.Fatalf("rejected drafts must not be stored")
	}
}

func TestCreateClampsConfidence(t *testing.T) {
	registry, _ := newTestRegistry(t)
	high := 140
	sig, err := registry.Create(context.Background(), Draft{
		Name:       "Clamp",
		Points:     []signatures.SignaturePoint{zoneTemp()},
		Source:     signatures.SourceAutoGenerated,
		Confidence: &high,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sig.Confidence != 100 {
		t.Fatalf("expected clamp to 100, got %d", sig.Confidence)
	}
}

func TestUpdateValidatesOnlyPatchedFields(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()
	sig, err := registry.Create(ctx, Draft{Name: "VAV", EquipmentType: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	empty := ""
	if _, err := registry.Update(ctx, sig.ID, Patch{Name: &empty}); !errors.Is(err, signatures.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	unchanged, _ := registry.Get(ctx, sig.ID)
	if unchanged.Name != "VAV" {
		t.Fatalf("failed update must not change state")
	}

	updated, err := registry.SetConfidence(ctx, sig.ID, -5)
	if err != nil {
		t.Fatalf("set confidence: %v", err)
	}
	if updated.Confidence != 0 || updated.Name != "VAV" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	renamed, err := registry.Rename(ctx, sig.ID, "Renamed")
	if err != nil || renamed.Name != "Renamed" {
		t.Fatalf("rename: %+v %v", renamed, err)
	}
}

func TestPointEdits(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()
	sig, err := registry.Create(ctx, Draft{Name: "VAV", EquipmentType: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	damper := signatures.SignaturePoint{Name: "DPR-POS", Kind: points.KindNumber, Unit: "%"}

	sig, err = registry.AddPoints(ctx, sig.ID, []signatures.SignaturePoint{damper, zoneTemp()})
	if err != nil {
		t.Fatalf("add points: %v", err)
	}
	if len(sig.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(sig.Points))
	}

	sig, err = registry.RetypePoint(ctx, sig.ID, damper.Key(), points.KindNumber, "percent")
	if err != nil {
		t.Fatalf("retype: %v", err)
	}
	if sig.Points[1].Unit != "percent" {
		t.Fatalf("unexpected retype result: %+v", sig.Points)
	}
	if _, err := registry.RetypePoint(ctx, sig.ID, damper.Key(), points.KindBool, ""); !errors.Is(err, signatures.ErrNotFound) {
		t.Fatalf("expected not found for stale key, got %v", err)
	}

	sig, err = registry.RemovePoints(ctx, sig.ID, []points.PointKey{zoneTemp().Key()})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(sig.Points) != 1 {
		t.Fatalf("expected 1 point left, got %d", len(sig.Points))
	}
	if _, err := registry.RemovePoints(ctx, sig.ID, []points.PointKey{sig.Points[0].Key()}); !errors.Is(err, signatures.ErrValidation) {
		t.Fatalf("removing every point must fail validation, got %v", err)
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()
	sig, err := registry.Create(ctx, Draft{Name: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := registry.Delete(ctx, sig.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := registry.Delete(ctx, sig.ID); !errors.Is(err, signatures.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := registry.Get(ctx, sig.ID); !errors.Is(err, signatures.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStaleSaveConflicts(t *testing.T) {
	registry, repo := newTestRegistry(t)
	ctx := context.Background()
	sig, err := registry.Create(ctx, Draft{Name: "VAV", Points: []signatures.SignaturePoint{zoneTemp()}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stale, _ := repo.Get(ctx, sig.ID)
	if _, err := registry.Rename(ctx, sig.ID, "Fresh"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	stale.Name = "Stale"
	if err := repo.Save(ctx, stale); !errors.Is(err, signatures.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestListByEquipmentTypeIsExact(t *testing.T) {
	registry, _ := newTestRegistry(t)
	ctx := context.Background()
	for _, typ := range []string{"VAV", "vav", "AHU"} {
		if _, err := registry.Create(ctx, Draft{Name: typ, EquipmentType: typ, Points: []signatures.SignaturePoint{zoneTemp()}}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	list, err := registry.ListByEquipmentType(ctx, "VAV")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].EquipmentType != "VAV" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestPromoteEquipment(t *testing.T) {
	registry, _ := newTestRegistry(t)
	item := equipment.Equipment{
		ID:            "vav-1",
		EquipmentType: "VAV",
		Points: []points.Point{
			{ID: "p1", DisplayName: "ZN-T", Kind: points.KindNumber, Unit: "°F"},
			{ID: "p2", DisplayName: "ZN-T", Kind: points.KindNumber, Unit: "°F"},
			{ID: "p3", DisplayName: "FAN-CMD", Kind: points.KindBool},
		},
	}
	sig, err := registry.PromoteEquipment(context.Background(), item, "Reviewed VAV", nil)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if sig.EquipmentType != "VAV" || len(sig.Points) != 2 || sig.Confidence != 100 {
		t.Fatalf("unexpected promoted signature: %+v", sig)
	}

	only, err := registry.PromoteEquipment(context.Background(), item, "Fan only", []points.PointKey{points.EncodeKey("FAN-CMD", points.KindBool, "")})
	if err != nil {
		t.Fatalf("promote subset: %v", err)
	}
	if len(only.Points) != 1 || only.Points[0].Name != "FAN-CMD" {
		t.Fatalf("unexpected subset: %+v", only.Points)
	}
}
