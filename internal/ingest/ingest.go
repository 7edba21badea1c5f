// Package ingest loads every breed sheet from blob storage, parses it and
// replaces the layer store contents in one step.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"realvision/internal/blob/core"
	"realvision/internal/logging"
	"realvision/internal/sheet"
	"realvision/pkg/domain"
)

const sheetExt = ".csv"

// defaultParallelism bounds how many sheets are downloaded and parsed at once.
const defaultParallelism = 4

// ErrNoSheets is returned when the prefix holds no sheets. The store is left
// untouched.
var ErrNoSheets = errors.New("ingest: no sheets found")

// BreedStats summarises the records produced from one sheet.
type BreedStats struct {
	Breed          string `json:"breed"`
	Key            string `json:"key"`
	Orders         int    `json:"orders"`
	Colors         int    `json:"colors"`
	Whites         int    `json:"whites"`
	TestableWhites int    `json:"testable_whites"`
}

// Report describes a completed ingestion.
type Report struct {
	Breeds   []BreedStats  `json:"breeds"`
	Duration time.Duration `json:"duration"`
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithPrefix restricts ingestion to keys under prefix.
func WithPrefix(prefix string) Option { return func(i *Ingester) { i.prefix = prefix } }

// WithParser replaces the default sheet parser.
func WithParser(p *sheet.Parser) Option {
	return func(i *Ingester) {
		if p != nil {
			i.parser = p
		}
	}
}

// WithLogger sets the ingestion logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Ingester) {
		if l != nil {
			i.log = l
		}
	}
}

// WithParallelism bounds concurrent sheet parsing. Values below one are ignored.
func WithParallelism(n int) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.parallelism = n
		}
	}
}

// Ingester moves sheets from a blob store into a layer store.
type Ingester struct {
	blobs       core.Store
	store       domain.LayerStore
	parser      *sheet.Parser
	prefix      string
	parallelism int
	log         logging.Logger
	now         func() time.Time
}

// New returns an Ingester reading from blobs and writing to store.
func New(blobs core.Store, store domain.LayerStore, opts ...Option) *Ingester {
	i := &Ingester{
		blobs:       blobs,
		store:       store,
		parser:      sheet.NewParser(nil),
		parallelism: defaultParallelism,
		log:         logging.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// BreedFromKey derives the breed identifier from a sheet key such as
// "sheets/Welsh Pony.csv".
func BreedFromKey(key string) string {
	base := path.Base(key)
	return domain.NormalizeBreed(strings.TrimSuffix(base, path.Ext(base)))
}

// IsSheetKey reports whether key names a CSV sheet.
func IsSheetKey(key string) bool { return strings.EqualFold(path.Ext(key), sheetExt) }

// SheetKey is the canonical key a breed's sheet is stored under.
func SheetKey(prefix, breed string) string {
	return prefix + domain.NormalizeBreed(breed) + sheetExt
}

// Run parses every sheet under the prefix and replaces all layer records.
// Any parse failure aborts the run before the store is written.
func (i *Ingester) Run(ctx context.Context) (Report, error) {
	start := i.now()
	objs, err := i.blobs.List(ctx, i.prefix)
	if err != nil {
		return Report{}, fmt.Errorf("list sheets: %w", err)
	}
	var keys []string
	for _, o := range objs {
		if IsSheetKey(o.Key) {
			keys = append(keys, o.Key)
		}
	}
	if len(keys) == 0 {
		return Report{}, fmt.Errorf("%w under %q", ErrNoSheets, i.prefix)
	}
	if err := checkDistinctBreeds(keys); err != nil {
		return Report{}, err
	}

	sheets := make([]domain.Sheet, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.parallelism)
	for idx, key := range keys {
		g.Go(func() error {
			sh, err := i.parseKey(gctx, key)
			if err != nil {
				return err
			}
			sheets[idx] = sh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if err := i.store.ReplaceAll(ctx, sheets); err != nil {
		return Report{}, err
	}

	report := Report{Breeds: make([]BreedStats, 0, len(sheets))}
	for idx, sh := range sheets {
		stats := BreedStats{
			Breed:          sh.Breed,
			Key:            keys[idx],
			Orders:         len(sh.Orders),
			Colors:         len(sh.Colors),
			Whites:         len(sh.Whites),
			TestableWhites: len(sh.TestableWhites),
		}
		report.Breeds = append(report.Breeds, stats)
		i.log.Info("ingested sheet", "breed", stats.Breed, "key", stats.Key,
			"colors", stats.Colors, "whites", stats.Whites, "testable_whites", stats.TestableWhites)
	}
	report.Duration = i.now().Sub(start)
	return report, nil
}

// checkDistinctBreeds rejects sheet sets where two keys name the same breed.
// The stores key orders by breed and sex, so both sheets cannot be kept.
func checkDistinctBreeds(keys []string) error {
	seen := make(map[string]string, len(keys))
	for _, key := range keys {
		breed := BreedFromKey(key)
		if prev, ok := seen[breed]; ok {
			return &domain.ValidationError{
				Reason:  domain.ReasonSheetDuplicate,
				Message: fmt.Sprintf("sheets %s and %s both describe breed %s", prev, key, breed),
			}
		}
		seen[breed] = key
	}
	return nil
}

func (i *Ingester) parseKey(ctx context.Context, key string) (domain.Sheet, error) {
	_, rc, err := i.blobs.Get(ctx, key)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("read sheet %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	sh, err := i.parser.ParseCSV(BreedFromKey(key), rc)
	if err != nil {
		i.log.Warn("sheet rejected", "key", key, "error", err)
		return domain.Sheet{}, fmt.Errorf("sheet %s: %w", key, err)
	}
	return sh, nil
}
