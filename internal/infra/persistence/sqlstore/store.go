// Package sqlstore implements the layer store over database/sql. The SQLite
// and Postgres adapters share it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"realvision/internal/entitymodel/sqlbundle"
	"realvision/pkg/domain"
)

// Compile-time contract assertion ensuring sqlstore.Store adheres to the domain persistence interface.
var _ domain.LayerStore = (*Store)(nil)

// Dialect captures the syntax differences between the supported databases.
type Dialect struct {
	Name string
	// Numbered selects $n placeholders and array binding ("col = ANY($n)")
	// instead of ? placeholders with expanded IN lists.
	Numbered bool
	// Truncate is a format string taking the table name.
	Truncate string
}

var (
	// SQLite is the dialect of modernc.org/sqlite.
	SQLite = Dialect{Name: "sqlite", Truncate: "DELETE FROM %s"}
	// Postgres is the dialect of the pgx stdlib driver.
	Postgres = Dialect{Name: "postgres", Numbered: true, Truncate: "TRUNCATE TABLE %s RESTART IDENTITY"}
)

var tables = []string{"breed_orders", "color_layers", "white_layers", "testable_white_layers"}

const (
	colorColumns    = "breed, dilution, body_part, stallion_id, mare_id, foal_id, base_genes, color"
	whiteColumns    = "breed, body_part, stallion_id, mare_id, foal_id, roan, rab"
	testableColumns = "breed, white_gene, body_part, stallion_id, mare_id, foal_id, roan, rab, color"
)

// Store is a LayerStore over an open database handle.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps db. The schema must already exist; see ApplyDDL.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect reports the dialect the store renders queries in.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close implements domain.LayerStore.
func (s *Store) Close() error { return s.db.Close() }

// Execer is the subset of *sql.DB used to apply DDL.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ApplyDDL executes each statement of ddl in order.
func ApplyDDL(ctx context.Context, db Execer, ddl string) error {
	for _, stmt := range sqlbundle.SplitStatements(ddl) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// ReplaceAll implements domain.LayerStore. All four tables are truncated and
// reloaded inside one transaction.
func (s *Store) ReplaceAll(ctx context.Context, sheets []domain.Sheet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapStore("replace", fmt.Errorf("begin tx: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(s.dialect.Truncate, table)); err != nil {
			return domain.WrapStore("replace", fmt.Errorf("truncate %s: %w", table, err))
		}
	}
	for _, sh := range sheets {
		if err := s.insertSheet(ctx, tx, sh); err != nil {
			return domain.WrapStore("replace", fmt.Errorf("sheet %s: %w", sh.Breed, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapStore("replace", fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}

func (s *Store) insertSheet(ctx context.Context, tx *sql.Tx, sh domain.Sheet) error {
	for _, o := range sh.Orders {
		q := s.query()
		stmt := fmt.Sprintf("INSERT INTO breed_orders (breed, sex, parts) VALUES (%s)", q.args(o.Breed, string(o.Sex), strings.Join(o.Parts, ",")))
		if _, err := tx.ExecContext(ctx, stmt, q.values...); err != nil {
			return fmt.Errorf("insert breed order: %w", err)
		}
	}
	for _, c := range sh.Colors {
		q := s.query()
		stmt := fmt.Sprintf("INSERT INTO color_layers (%s) VALUES (%s)", colorColumns, q.args(
			c.Breed, null(c.Dilution), c.BodyPart, null(c.StallionID), null(c.MareID), null(c.FoalID), null(c.BaseGenes), null(c.Color)))
		if _, err := tx.ExecContext(ctx, stmt, q.values...); err != nil {
			return fmt.Errorf("insert color layer: %w", err)
		}
	}
	for _, w := range sh.Whites {
		q := s.query()
		stmt := fmt.Sprintf("INSERT INTO white_layers (%s) VALUES (%s)", whiteColumns, q.args(
			w.Breed, w.BodyPart, null(w.StallionID), null(w.MareID), null(w.FoalID), w.Roan, w.Rab))
		if _, err := tx.ExecContext(ctx, stmt, q.values...); err != nil {
			return fmt.Errorf("insert white layer: %w", err)
		}
	}
	for _, w := range sh.TestableWhites {
		q := s.query()
		stmt := fmt.Sprintf("INSERT INTO testable_white_layers (%s) VALUES (%s)", testableColumns, q.args(
			w.Breed, null(w.WhiteGene), w.BodyPart, null(w.StallionID), null(w.MareID), null(w.FoalID), w.Roan, w.Rab, null(w.Color)))
		if _, err := tx.ExecContext(ctx, stmt, q.values...); err != nil {
			return fmt.Errorf("insert testable white layer: %w", err)
		}
	}
	return nil
}

// BreedOrder implements domain.LayerReader.
func (s *Store) BreedOrder(ctx context.Context, breed string, sex domain.Sex) (domain.BreedOrder, bool, error) {
	q := s.query()
	stmt := fmt.Sprintf("SELECT breed, sex, parts FROM breed_orders WHERE breed = %s AND sex = %s", q.arg(breed), q.arg(string(sex)))
	var (
		order         domain.BreedOrder
		rawSex, parts string
	)
	err := s.db.QueryRowContext(ctx, stmt, q.values...).Scan(&order.Breed, &rawSex, &parts)
	if err == sql.ErrNoRows {
		return domain.BreedOrder{}, false, nil
	}
	if err != nil {
		return domain.BreedOrder{}, false, domain.WrapStore("breed order", err)
	}
	order.Sex = domain.Sex(rawSex)
	if parts != "" {
		order.Parts = strings.Split(parts, ",")
	}
	return order, true, nil
}

// ColorLayersByFoalIDs implements domain.LayerReader.
func (s *Store) ColorLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]domain.ColorLayer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND %s", q.arg(breed), q.anyOf("foal_id", ids))
	return s.colors(ctx, "colors by foal", where, q)
}

// ColorLayersByColor implements domain.LayerReader.
func (s *Store) ColorLayersByColor(ctx context.Context, breed, color string) ([]domain.ColorLayer, error) {
	if color == "" {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND color = %s", q.arg(breed), q.arg(color))
	return s.colors(ctx, "colors by color", where, q)
}

// NamedColorLayersByAnyID implements domain.LayerReader.
func (s *Store) NamedColorLayersByAnyID(ctx context.Context, breed string, ids []string) ([]domain.ColorLayer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND (%s) AND dilution IS NOT NULL AND color IS NOT NULL AND base_genes IS NOT NULL",
		q.arg(breed), q.anyID(ids))
	return s.colors(ctx, "named colors", where, q)
}

// WhiteLayersByFoalIDs implements domain.LayerReader.
func (s *Store) WhiteLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]domain.WhiteLayer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.query()
	stmt := fmt.Sprintf("SELECT %s FROM white_layers WHERE breed = %s AND %s ORDER BY id", whiteColumns, q.arg(breed), q.anyOf("foal_id", ids))
	rows, err := s.db.QueryContext(ctx, stmt, q.values...)
	if err != nil {
		return nil, domain.WrapStore("whites by foal", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.WhiteLayer
	for rows.Next() {
		var (
			w        domain.WhiteLayer
			st, m, f sql.NullString
		)
		if err := rows.Scan(&w.Breed, &w.BodyPart, &st, &m, &f, &w.Roan, &w.Rab); err != nil {
			return nil, domain.WrapStore("whites by foal", fmt.Errorf("scan: %w", err))
		}
		w.StallionID, w.MareID, w.FoalID = st.String, m.String, f.String
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore("whites by foal", err)
	}
	return out, nil
}

// TestableWhiteLayersByFoalIDs implements domain.LayerReader.
func (s *Store) TestableWhiteLayersByFoalIDs(ctx context.Context, breed string, ids []string) ([]domain.TestableWhiteLayer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND %s", q.arg(breed), q.anyOf("foal_id", ids))
	return s.testables(ctx, "testables by foal", where, q)
}

// TestableWhiteLayersByColors implements domain.LayerReader.
func (s *Store) TestableWhiteLayersByColors(ctx context.Context, breed string, colors []string) ([]domain.TestableWhiteLayer, error) {
	if len(colors) == 0 {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND %s", q.arg(breed), q.anyOf("color", colors))
	return s.testables(ctx, "testables by color", where, q)
}

// NamedTestableWhiteLayersByAnyID implements domain.LayerReader.
func (s *Store) NamedTestableWhiteLayersByAnyID(ctx context.Context, breed string, ids []string) ([]domain.TestableWhiteLayer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.query()
	where := fmt.Sprintf("breed = %s AND (%s) AND white_gene IS NOT NULL AND color IS NOT NULL", q.arg(breed), q.anyID(ids))
	return s.testables(ctx, "named testables", where, q)
}

func (s *Store) colors(ctx context.Context, op, where string, q *query) ([]domain.ColorLayer, error) {
	stmt := fmt.Sprintf("SELECT %s FROM color_layers WHERE %s ORDER BY id", colorColumns, where)
	rows, err := s.db.QueryContext(ctx, stmt, q.values...)
	if err != nil {
		return nil, domain.WrapStore(op, err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.ColorLayer
	for rows.Next() {
		var (
			c                         domain.ColorLayer
			dil, st, m, f, genes, col sql.NullString
		)
		if err := rows.Scan(&c.Breed, &dil, &c.BodyPart, &st, &m, &f, &genes, &col); err != nil {
			return nil, domain.WrapStore(op, fmt.Errorf("scan: %w", err))
		}
		c.Dilution, c.StallionID, c.MareID, c.FoalID = dil.String, st.String, m.String, f.String
		c.BaseGenes, c.Color = genes.String, col.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore(op, err)
	}
	return out, nil
}

func (s *Store) testables(ctx context.Context, op, where string, q *query) ([]domain.TestableWhiteLayer, error) {
	stmt := fmt.Sprintf("SELECT %s FROM testable_white_layers WHERE %s ORDER BY id", testableColumns, where)
	rows, err := s.db.QueryContext(ctx, stmt, q.values...)
	if err != nil {
		return nil, domain.WrapStore(op, err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.TestableWhiteLayer
	for rows.Next() {
		var (
			w                   domain.TestableWhiteLayer
			gene, st, m, f, col sql.NullString
		)
		if err := rows.Scan(&w.Breed, &gene, &w.BodyPart, &st, &m, &f, &w.Roan, &w.Rab, &col); err != nil {
			return nil, domain.WrapStore(op, fmt.Errorf("scan: %w", err))
		}
		w.WhiteGene, w.StallionID, w.MareID, w.FoalID, w.Color = gene.String, st.String, m.String, f.String, col.String
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStore(op, err)
	}
	return out, nil
}

// query accumulates bind values and renders placeholders in dialect order.
type query struct {
	dialect Dialect
	values  []any
}

func (s *Store) query() *query { return &query{dialect: s.dialect} }

func (q *query) arg(v any) string {
	q.values = append(q.values, v)
	if q.dialect.Numbered {
		return "$" + strconv.Itoa(len(q.values))
	}
	return "?"
}

func (q *query) args(vs ...any) string {
	marks := make([]string, len(vs))
	for i, v := range vs {
		marks[i] = q.arg(v)
	}
	return strings.Join(marks, ", ")
}

// anyOf renders a membership test of col against values.
func (q *query) anyOf(col string, values []string) string {
	if q.dialect.Numbered {
		return fmt.Sprintf("%s = ANY(%s)", col, q.arg(values))
	}
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", col, q.args(vs...))
}

func (q *query) anyID(ids []string) string {
	return strings.Join([]string{
		q.anyOf("stallion_id", ids),
		q.anyOf("mare_id", ids),
		q.anyOf("foal_id", ids),
	}, " OR ")
}

// null maps "" to SQL NULL.
func null(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
