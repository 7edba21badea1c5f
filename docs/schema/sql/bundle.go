// Package sqldocs exposes the layer store SQL bundles directly from the docs tree.
package sqldocs

import _ "embed"

// SQLite contains the layer store SQLite DDL bundle.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the layer store Postgres DDL bundle.
//
//go:embed postgres.sql
var Postgres string
