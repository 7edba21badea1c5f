package core

import (
	"context"
	"path/filepath"
	"testing"

	"realvision/internal/config"
	"realvision/internal/infra/persistence/memory"
	"realvision/internal/infra/persistence/sqlite"
)

func TestOpenLayerStoreMemory(t *testing.T) {
	store, err := OpenLayerStore(context.Background(), config.Config{StorageDriver: string(StorageMemory)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenLayerStoreSQLiteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.db")
	store, err := OpenLayerStore(context.Background(), config.Config{SQLitePath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	if s.Path() != path {
		t.Fatalf("unexpected path %s", s.Path())
	}
}

func TestOpenLayerStoreUnknown(t *testing.T) {
	store, err := OpenLayerStore(context.Background(), config.Config{StorageDriver: "cassandra"})
	if err == nil || store != nil {
		t.Fatalf("expected error for unknown driver, got %v %v", store, err)
	}
}
