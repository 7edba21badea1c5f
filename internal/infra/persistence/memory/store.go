// Package memory provides an in-memory layer store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"realvision/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.LayerStore = (*Store)(nil)

// Snapshot is a point-in-time copy of every record set.
type Snapshot struct {
	Orders         []domain.BreedOrder         `json:"orders"`
	Colors         []domain.ColorLayer         `json:"colors"`
	Whites         []domain.WhiteLayer         `json:"whites"`
	TestableWhites []domain.TestableWhiteLayer `json:"testable_whites"`
}

// Store keeps an immutable snapshot behind a RWMutex. ReplaceAll swaps the
// whole snapshot, so readers never observe a half-replaced table set.
type Store struct {
	mu    sync.RWMutex
	state Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{} }

// ReplaceAll implements domain.LayerStore.
func (s *Store) ReplaceAll(ctx context.Context, sheets []domain.Sheet) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapStore("replace", err)
	}
	next := SnapshotOf(sheets)
	if err := checkOrderKeys(next.Orders); err != nil {
		return domain.WrapStore("replace", err)
	}
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return nil
}

// checkOrderKeys mirrors the (breed, sex) primary key of the SQL stores.
func checkOrderKeys(orders []domain.BreedOrder) error {
	type key struct {
		breed string
		sex   domain.Sex
	}
	seen := make(map[key]bool, len(orders))
	for _, o := range orders {
		k := key{o.Breed, o.Sex}
		if seen[k] {
			return fmt.Errorf("duplicate breed order %s/%s", o.Breed, o.Sex)
		}
		seen[k] = true
	}
	return nil
}

// ExportState returns a deep copy of the current snapshot.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// ImportState replaces the current snapshot with a copy of snap.
func (s *Store) ImportState(snap Snapshot) {
	next := snap.clone()
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Close implements domain.LayerStore.
func (s *Store) Close() error { return nil }

// SnapshotOf flattens sheets into a snapshot in ingestion order.
func SnapshotOf(sheets []domain.Sheet) Snapshot {
	var snap Snapshot
	for _, sh := range sheets {
		snap.Orders = append(snap.Orders, sh.Orders...)
		snap.Colors = append(snap.Colors, sh.Colors...)
		snap.Whites = append(snap.Whites, sh.Whites...)
		snap.TestableWhites = append(snap.TestableWhites, sh.TestableWhites...)
	}
	return snap.clone()
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{
		Orders:         make([]domain.BreedOrder, len(s.Orders)),
		Colors:         append([]domain.ColorLayer(nil), s.Colors...),
		Whites:         append([]domain.WhiteLayer(nil), s.Whites...),
		TestableWhites: append([]domain.TestableWhiteLayer(nil), s.TestableWhites...),
	}
	for i, o := range s.Orders {
		o.Parts = append([]string(nil), o.Parts...)
		out.Orders[i] = o
	}
	return out
}

func (s *Store) view() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// slices are never mutated after ReplaceAll, sharing them is safe
	return s.state
}

// BreedOrder implements domain.LayerReader.
func (s *Store) BreedOrder(_ context.Context, breed string, sex domain.Sex) (domain.BreedOrder, bool, error) {
	for _, o := range s.view().Orders {
		if o.Breed == breed && o.Sex == sex {
			o.Parts = append([]string(nil), o.Parts...)
			return o, true, nil
		}
	}
	return domain.BreedOrder{}, false, nil
}

// ColorLayersByFoalIDs implements domain.LayerReader.
func (s *Store) ColorLayersByFoalIDs(_ context.Context, breed string, ids []string) ([]domain.ColorLayer, error) {
	set := toSet(ids)
	return filter(s.view().Colors, func(c domain.ColorLayer) bool {
		return c.Breed == breed && set.has(c.FoalID)
	}), nil
}

// ColorLayersByColor implements domain.LayerReader.
func (s *Store) ColorLayersByColor(_ context.Context, breed, color string) ([]domain.ColorLayer, error) {
	return filter(s.view().Colors, func(c domain.ColorLayer) bool {
		return c.Breed == breed && color != "" && c.Color == color
	}), nil
}

// NamedColorLayersByAnyID implements domain.LayerReader.
func (s *Store) NamedColorLayersByAnyID(_ context.Context, breed string, ids []string) ([]domain.ColorLayer, error) {
	set := toSet(ids)
	return filter(s.view().Colors, func(c domain.ColorLayer) bool {
		if c.Breed != breed || c.Dilution == "" || c.Color == "" || c.BaseGenes == "" {
			return false
		}
		return set.has(c.StallionID) || set.has(c.MareID) || set.has(c.FoalID)
	}), nil
}

// WhiteLayersByFoalIDs implements domain.LayerReader.
func (s *Store) WhiteLayersByFoalIDs(_ context.Context, breed string, ids []string) ([]domain.WhiteLayer, error) {
	set := toSet(ids)
	return filter(s.view().Whites, func(w domain.WhiteLayer) bool {
		return w.Breed == breed && set.has(w.FoalID)
	}), nil
}

// TestableWhiteLayersByFoalIDs implements domain.LayerReader.
func (s *Store) TestableWhiteLayersByFoalIDs(_ context.Context, breed string, ids []string) ([]domain.TestableWhiteLayer, error) {
	set := toSet(ids)
	return filter(s.view().TestableWhites, func(w domain.TestableWhiteLayer) bool {
		return w.Breed == breed && set.has(w.FoalID)
	}), nil
}

// TestableWhiteLayersByColors implements domain.LayerReader.
func (s *Store) TestableWhiteLayersByColors(_ context.Context, breed string, colors []string) ([]domain.TestableWhiteLayer, error) {
	set := toSet(colors)
	return filter(s.view().TestableWhites, func(w domain.TestableWhiteLayer) bool {
		return w.Breed == breed && set.has(w.Color)
	}), nil
}

// NamedTestableWhiteLayersByAnyID implements domain.LayerReader.
func (s *Store) NamedTestableWhiteLayersByAnyID(_ context.Context, breed string, ids []string) ([]domain.TestableWhiteLayer, error) {
	set := toSet(ids)
	return filter(s.view().TestableWhites, func(w domain.TestableWhiteLayer) bool {
		if w.Breed != breed || w.WhiteGene == "" || w.Color == "" {
			return false
		}
		return set.has(w.StallionID) || set.has(w.MareID) || set.has(w.FoalID)
	}), nil
}

type stringSet map[string]struct{}

func toSet(values []string) stringSet {
	set := make(stringSet, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// has never matches "": an empty id is a missing artwork, which SQL stores as NULL.
func (s stringSet) has(v string) bool {
	if v == "" {
		return false
	}
	_, ok := s[v]
	return ok
}

func filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
