package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"realvision/internal/infra/blob/memory"
	persistmem "realvision/internal/infra/persistence/memory"
	"realvision/internal/infra/persistence/sqlite"
	"realvision/pkg/domain"
)

const ponySheet = `,,E A,,
,,stallion,mare,foal
Cream,body,s1,m1,f1
,mane,s2,m2,f2
,color,Buckskin,,
`

const horseSheet = `,,ee,,
,,stallion,mare,foal
No Dilution,body,hs1,hm1,hf1
,color,Chestnut,,
`

type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, msg)
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.record(msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.record(msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.record(msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.record(msg) }

func putSheets(t *testing.T, blobs *memory.Store, sheets map[string]string) {
	t.Helper()
	for key, body := range sheets {
		if _, err := blobs.Put(context.Background(), key, strings.NewReader(body), "text/csv"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
}

func TestRunReplacesStore(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	putSheets(t, blobs, map[string]string{
		"sheets/Welsh Pony.csv":     ponySheet,
		"sheets/quarter_horse.CSV":  horseSheet,
		"sheets/readme.txt":         "not a sheet",
		"elsewhere/shire_horse.csv": horseSheet,
	})
	store := persistmem.NewStore()
	logger := &captureLogger{}

	report, err := New(blobs, store, WithPrefix("sheets/"), WithLogger(logger), WithParallelism(1)).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Breeds) != 2 {
		t.Fatalf("expected two breeds, got %+v", report.Breeds)
	}
	if report.Breeds[0].Breed != "welsh_pony" || report.Breeds[0].Colors != 2 || report.Breeds[0].Orders != 2 {
		t.Fatalf("unexpected welsh pony stats %+v", report.Breeds[0])
	}
	if report.Breeds[1].Breed != "quarter_horse" {
		t.Fatalf("unexpected second breed %+v", report.Breeds[1])
	}

	rows, err := store.ColorLayersByFoalIDs(ctx, "welsh_pony", []string{"f1"})
	if err != nil || len(rows) != 1 || rows[0].Color != "Buckskin" {
		t.Fatalf("welsh pony rows: %v %+v", err, rows)
	}
	if _, ok, _ := store.BreedOrder(ctx, "welsh_pony", domain.SexMare); !ok {
		t.Fatal("expected breed order for welsh_pony")
	}
	if rows, _ := store.ColorLayersByFoalIDs(ctx, "shire_horse", []string{"hf1"}); len(rows) != 0 {
		t.Fatalf("sheet outside prefix was ingested: %+v", rows)
	}
	if len(logger.msgs) != 2 {
		t.Fatalf("expected one log line per breed, got %v", logger.msgs)
	}
}

func TestRunAbortsOnInvalidSheet(t *testing.T) {
	ctx := context.Background()
	store := persistmem.NewStore()
	if err := store.ReplaceAll(ctx, []domain.Sheet{{Breed: "old", Colors: []domain.ColorLayer{
		{Breed: "old", BodyPart: "body", StallionID: "s", MareID: "m", FoalID: "f", Color: "Bay"},
	}}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	blobs := memory.New()
	putSheets(t, blobs, map[string]string{
		"good.csv": ponySheet,
		"bad.csv":  ",\n",
	})

	_, err := New(blobs, store).Run(ctx)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.csv") {
		t.Fatalf("error should name the sheet: %v", err)
	}
	if rows, _ := store.ColorLayersByFoalIDs(ctx, "old", []string{"f"}); len(rows) != 1 {
		t.Fatal("previous data must survive a failed ingestion")
	}
}

func TestRunWithoutSheets(t *testing.T) {
	_, err := New(memory.New(), persistmem.NewStore(), WithPrefix("none/")).Run(context.Background())
	if !errors.Is(err, ErrNoSheets) {
		t.Fatalf("expected ErrNoSheets, got %v", err)
	}
}

func TestBreedFromKey(t *testing.T) {
	cases := map[string]string{
		"sheets/Akhal-Teke.csv": "akhal_teke",
		"welsh_pony.csv":        "welsh_pony",
		"a/b/Quarter Horse.CSV": "quarter_horse",
	}
	for key, want := range cases {
		if got := BreedFromKey(key); got != want {
			t.Fatalf("%s: got %q want %q", key, got, want)
		}
	}
}

func TestRunRejectsDuplicateBreeds(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "layers.db"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.ReplaceAll(ctx, []domain.Sheet{{Breed: "old", Colors: []domain.ColorLayer{
		{Breed: "old", BodyPart: "body", StallionID: "s", MareID: "m", FoalID: "f", Color: "Bay"},
	}}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	blobs := memory.New()
	putSheets(t, blobs, map[string]string{
		"Welsh Pony.csv":     ponySheet,
		"old/welsh_pony.csv": ponySheet,
	})

	_, err = New(blobs, store).Run(ctx)
	if domain.ReasonOf(err) != domain.ReasonSheetDuplicate {
		t.Fatalf("expected duplicate breed error, got %v", err)
	}
	for _, key := range []string{"Welsh Pony.csv", "old/welsh_pony.csv"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error should name %s: %v", key, err)
		}
	}
	if rows, _ := store.ColorLayersByFoalIDs(ctx, "old", []string{"f"}); len(rows) != 1 {
		t.Fatal("previous data must survive a rejected ingestion")
	}
}
