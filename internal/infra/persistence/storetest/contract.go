// Package storetest holds the behavioural contract every domain.LayerStore
// implementation is tested against.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"realvision/pkg/domain"
)

// Fixture returns two sheets that exercise every query of the layer reader.
func Fixture() []domain.Sheet {
	return []domain.Sheet{
		{
			Breed: "shire",
			Orders: []domain.BreedOrder{
				{Breed: "shire", Sex: domain.SexStallion, Parts: []string{"body", "mane", "tail"}},
				{Breed: "shire", Sex: domain.SexMare, Parts: []string{"tail", "body", "mane"}},
			},
			Colors: []domain.ColorLayer{
				{Breed: "shire", Dilution: "No Dilution", BodyPart: "body", StallionID: "s1", MareID: "m1", FoalID: "f1", BaseGenes: "ee", Color: "Chestnut"},
				{Breed: "shire", Dilution: "No Dilution", BodyPart: "mane", StallionID: "s2", MareID: "m2", FoalID: "f2", BaseGenes: "ee", Color: "Chestnut"},
				{Breed: "shire", Dilution: "No Dilution", BodyPart: "tail", StallionID: "s3", MareID: "", FoalID: "f3", BaseGenes: "ee", Color: "Chestnut"},
				{Breed: "shire", BodyPart: "body", StallionID: "s4", MareID: "m4", FoalID: "f4"},
			},
			Whites: []domain.WhiteLayer{
				{Breed: "shire", BodyPart: "body", StallionID: "ws1", MareID: "wm1", FoalID: "wf1"},
				{Breed: "shire", BodyPart: "body", StallionID: "ws1", MareID: "wm1", FoalID: "wr1", Roan: true},
			},
			TestableWhites: []domain.TestableWhiteLayer{
				{WhiteLayer: domain.WhiteLayer{Breed: "shire", BodyPart: "body", StallionID: "ts1", MareID: "tm1", FoalID: "tf1"}, WhiteGene: "TO", Color: "Tobiano"},
				{WhiteLayer: domain.WhiteLayer{Breed: "shire", BodyPart: "mane", StallionID: "ts2", MareID: "tm2", FoalID: "tf2", Rab: true}, WhiteGene: "TO", Color: "Tobiano"},
				{WhiteLayer: domain.WhiteLayer{Breed: "shire", BodyPart: "body", StallionID: "rs1", MareID: "rm1", FoalID: "rf1"}, WhiteGene: "RN"},
			},
		},
		{
			Breed: "welsh_pony",
			Colors: []domain.ColorLayer{
				{Breed: "welsh_pony", Dilution: "Cream", BodyPart: "body", StallionID: "s1", MareID: "m1", FoalID: "f1", BaseGenes: "E A", Color: "Buckskin"},
			},
		},
	}
}

// Run exercises open() against the layer store contract. Each subtest gets a
// fresh store loaded with Fixture.
func Run(t *testing.T, open func(t *testing.T) domain.LayerStore) {
	t.Helper()
	ctx := context.Background()
	load := func(t *testing.T) domain.LayerStore {
		t.Helper()
		store := open(t)
		t.Cleanup(func() { _ = store.Close() })
		if err := store.ReplaceAll(ctx, Fixture()); err != nil {
			t.Fatalf("replace all: %v", err)
		}
		return store
	}

	t.Run("breed_order", func(t *testing.T) {
		store := load(t)
		order, ok, err := store.BreedOrder(ctx, "shire", domain.SexMare)
		if err != nil || !ok {
			t.Fatalf("breed order: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff([]string{"tail", "body", "mane"}, order.Parts); diff != "" {
			t.Fatalf("parts mismatch (-want +got):\n%s", diff)
		}
		if _, ok, err := store.BreedOrder(ctx, "welsh_pony", domain.SexMare); err != nil || ok {
			t.Fatalf("expected no order for welsh_pony: ok=%v err=%v", ok, err)
		}
	})

	t.Run("colors_by_foal_ids_are_breed_scoped_and_ordered", func(t *testing.T) {
		store := load(t)
		got, err := store.ColorLayersByFoalIDs(ctx, "shire", []string{"f3", "f1", "missing"})
		if err != nil {
			t.Fatalf("colors by foal: %v", err)
		}
		want := []domain.ColorLayer{Fixture()[0].Colors[0], Fixture()[0].Colors[2]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("colors mismatch (-want +got):\n%s", diff)
		}
		if got, _ := store.ColorLayersByFoalIDs(ctx, "shire", nil); len(got) != 0 {
			t.Fatalf("empty id list should match nothing: %+v", got)
		}
	})

	t.Run("colors_by_color", func(t *testing.T) {
		store := load(t)
		got, err := store.ColorLayersByColor(ctx, "shire", "Chestnut")
		if err != nil {
			t.Fatalf("colors by color: %v", err)
		}
		if len(got) != 3 || got[0].BodyPart != "body" || got[2].BodyPart != "tail" {
			t.Fatalf("unexpected rows %+v", got)
		}
	})

	t.Run("named_colors_match_any_id_and_require_names", func(t *testing.T) {
		store := load(t)
		got, err := store.NamedColorLayersByAnyID(ctx, "shire", []string{"m2", "s4"})
		if err != nil {
			t.Fatalf("named colors: %v", err)
		}
		want := []domain.ColorLayer{Fixture()[0].Colors[1]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("named colors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty_ids_round_trip_as_missing", func(t *testing.T) {
		store := load(t)
		got, err := store.ColorLayersByFoalIDs(ctx, "shire", []string{"f3"})
		if err != nil || len(got) != 1 {
			t.Fatalf("colors by foal: %v %+v", err, got)
		}
		if got[0].MareID != "" || got[0].AdultID(domain.SexMare) != "" {
			t.Fatalf("expected missing mare artwork, got %q", got[0].MareID)
		}
		if got, _ := store.NamedColorLayersByAnyID(ctx, "shire", []string{""}); len(got) != 0 {
			t.Fatalf("blank id must not match missing artwork: %+v", got)
		}
	})

	t.Run("whites_by_foal_ids", func(t *testing.T) {
		store := load(t)
		got, err := store.WhiteLayersByFoalIDs(ctx, "shire", []string{"wr1"})
		if err != nil {
			t.Fatalf("whites: %v", err)
		}
		want := []domain.WhiteLayer{Fixture()[0].Whites[1]}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("whites mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("testable_whites", func(t *testing.T) {
		store := load(t)
		byFoal, err := store.TestableWhiteLayersByFoalIDs(ctx, "shire", []string{"tf2"})
		if err != nil {
			t.Fatalf("testables by foal: %v", err)
		}
		if diff := cmp.Diff([]domain.TestableWhiteLayer{Fixture()[0].TestableWhites[1]}, byFoal); diff != "" {
			t.Fatalf("testables mismatch (-want +got):\n%s", diff)
		}
		byColor, err := store.TestableWhiteLayersByColors(ctx, "shire", []string{"Tobiano"})
		if err != nil {
			t.Fatalf("testables by color: %v", err)
		}
		if len(byColor) != 2 || byColor[0].FoalID != "tf1" || byColor[1].FoalID != "tf2" {
			t.Fatalf("unexpected testables by color %+v", byColor)
		}
		named, err := store.NamedTestableWhiteLayersByAnyID(ctx, "shire", []string{"ts1", "rs1"})
		if err != nil {
			t.Fatalf("named testables: %v", err)
		}
		if len(named) != 1 || named[0].WhiteGene != "TO" {
			t.Fatalf("rows without a colour must be excluded: %+v", named)
		}
	})

	t.Run("replace_all_discards_previous_rows", func(t *testing.T) {
		store := load(t)
		next := []domain.Sheet{{Breed: "shire", Colors: []domain.ColorLayer{
			{Breed: "shire", Dilution: "Dun", BodyPart: "body", StallionID: "n1", MareID: "n2", FoalID: "n3", BaseGenes: "ee", Color: "Red Dun"},
		}}}
		if err := store.ReplaceAll(ctx, next); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if got, _ := store.ColorLayersByFoalIDs(ctx, "shire", []string{"f1"}); len(got) != 0 {
			t.Fatalf("old rows survived replace: %+v", got)
		}
		if _, ok, _ := store.BreedOrder(ctx, "shire", domain.SexStallion); ok {
			t.Fatal("old orders survived replace")
		}
		got, err := store.ColorLayersByFoalIDs(ctx, "shire", []string{"n3"})
		if err != nil || len(got) != 1 {
			t.Fatalf("new rows missing: %v %+v", err, got)
		}
	})

	t.Run("replace_all_rejects_duplicate_breed_orders", func(t *testing.T) {
		store := load(t)
		order := domain.BreedOrder{Breed: "shire", Sex: domain.SexMare, Parts: []string{"body"}}
		dup := []domain.Sheet{
			{Breed: "shire", Orders: []domain.BreedOrder{order}},
			{Breed: "shire", Orders: []domain.BreedOrder{order}},
		}
		err := store.ReplaceAll(ctx, dup)
		var se *domain.StoreError
		if !errors.As(err, &se) {
			t.Fatalf("expected store error, got %v", err)
		}
		got, ok, err := store.BreedOrder(ctx, "shire", domain.SexMare)
		if err != nil || !ok || !cmp.Equal(got.Parts, []string{"tail", "body", "mane"}) {
			t.Fatalf("previous orders must survive a failed replace: %v %v %+v", err, ok, got)
		}
	})
}
