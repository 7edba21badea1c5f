// Package sqlite provides the SQLite-backed layer store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"realvision/internal/entitymodel/sqlbundle"
	"realvision/internal/infra/persistence/sqlstore"
	"realvision/pkg/domain"
)

var _ domain.LayerStore = (*Store)(nil)

const (
	defaultPath = "realvision.db"
	memoryPath  = ":memory:"
)

// Store persists layer records to a single SQLite file.
type Store struct {
	*sqlstore.Store
	path string
}

// NewStore opens (creating if needed) the database at path and applies the
// layer store DDL.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	dsn := memoryPath
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
		// busy_timeout lets concurrent prediction reads wait out an ingestion commit
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := sqlstore.ApplyDDL(context.Background(), db, sqlbundle.SQLite()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: sqlstore.New(db, sqlstore.SQLite), path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
