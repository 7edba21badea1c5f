package domain

import "context"

// LayerReader exposes the read queries the prediction and naming engines issue.
// Every list is returned in ingestion order; gap filling depends on it.
type LayerReader interface {
	// BreedOrder returns the stacking order for breed and sex.
	BreedOrder(ctx context.Context, breed string, sex Sex) (BreedOrder, bool, error)
	// ColorLayersByFoalIDs matches colour rows whose foal_id is any of ids.
	ColorLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]ColorLayer, error)
	// ColorLayersByColor returns every colour row carrying the display colour.
	ColorLayersByColor(ctx context.Context, breed, color string) ([]ColorLayer, error)
	// NamedColorLayersByAnyID matches colour rows whose stallion, mare or foal
	// id is any of ids and whose dilution, colour and base genes are all set.
	NamedColorLayersByAnyID(ctx context.Context, breed string, ids []string) ([]ColorLayer, error)
	// WhiteLayersByFoalIDs matches untestable white rows by foal_id.
	WhiteLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]WhiteLayer, error)
	// TestableWhiteLayersByFoalIDs matches testable white rows by foal_id.
	TestableWhiteLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]TestableWhiteLayer, error)
	// TestableWhiteLayersByColors returns testable white rows whose colour is any of colors.
	TestableWhiteLayersByColors(ctx context.Context, breed string, colors []string) ([]TestableWhiteLayer, error)
	// NamedTestableWhiteLayersByAnyID matches testable rows on any id column
	// whose gene and colour are both set.
	NamedTestableWhiteLayersByAnyID(ctx context.Context, breed string, ids []string) ([]TestableWhiteLayer, error)
}

// LayerStore is the durable home of ingested sheets.
type LayerStore interface {
	LayerReader
	// ReplaceAll truncates all four record sets and inserts sheets atomically.
	// Readers observe either the previous or the new data, never a mix.
	ReplaceAll(ctx context.Context, sheets []Sheet) error
	Close() error
}
