package core

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"realvision/internal/infra/blob/memory"
	persistmem "realvision/internal/infra/persistence/memory"
	"realvision/internal/naming"
	"realvision/pkg/domain"
)

const ponySheet = `,,E A,,
,,stallion,mare,foal
Cream,body,s1,m1,f1
,mane,s2,m2,f2
,color,Buckskin,,
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

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

// newIngestedService returns a service whose store holds the welsh pony sheet.
func newIngestedService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	blobs := memory.New()
	if _, err := blobs.Put(context.Background(), "sheets/Welsh Pony.csv", strings.NewReader(ponySheet), "text/csv"); err != nil {
		t.Fatalf("put sheet: %v", err)
	}
	opts = append([]Option{WithSheetSource(blobs, "sheets/")}, opts...)
	svc := NewService(persistmem.NewStore(), opts...)
	if _, err := svc.Ingest(context.Background()); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return svc
}

func TestServiceIngest(t *testing.T) {
	blobs := memory.New()
	if _, err := blobs.Put(context.Background(), "Welsh Pony.csv", strings.NewReader(ponySheet), "text/csv"); err != nil {
		t.Fatalf("put sheet: %v", err)
	}
	svc := NewService(persistmem.NewStore(), WithSheetSource(blobs, ""))
	report, err := svc.Ingest(context.Background())
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(report.Breeds) != 1 || report.Breeds[0].Breed != "welsh_pony" || report.Breeds[0].Colors != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestServiceIngestWithoutSource(t *testing.T) {
	svc := NewService(persistmem.NewStore())
	if _, err := svc.Ingest(context.Background()); !errors.Is(err, ErrNoSheetSource) {
		t.Fatalf("expected ErrNoSheetSource, got %v", err)
	}
}

func TestServicePredict(t *testing.T) {
	svc := newIngestedService(t)
	res, err := svc.Predict(context.Background(), PredictInput{
		Breed: "Welsh Pony",
		Sex:   "Mare",
		Layers: []string{
			"https://www.horsereality.com/upload/colours/foals/body/large/f1.png",
			"colours/foals/mane/large/f2",
		},
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if res.Color != "Buckskin" || res.Dilution != "E A Cream" {
		t.Fatalf("unexpected names %q %q", res.Color, res.Dilution)
	}
	got := make([]string, len(res.Layers))
	for i, k := range res.Layers {
		got[i] = k.String()
	}
	want := []string{"colours/mares/body/large/m1", "colours/mares/mane/large/m2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("layers mismatch (-want +got):\n%s", diff)
	}
}

func TestServicePredictGeldingUsesStallionArt(t *testing.T) {
	svc := newIngestedService(t)
	res, err := svc.Predict(context.Background(), PredictInput{
		Breed:  "welsh_pony",
		Sex:    "gelding",
		Layers: []string{"colours/foals/body/large/f1"},
	})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Layers) == 0 || res.Layers[0].ID != "s1" || res.Layers[0].HorseType != "stallions" {
		t.Fatalf("expected stallion body art, got %+v", res.Layers)
	}
}

func TestServicePredictRejectsInput(t *testing.T) {
	svc := newIngestedService(t)
	cases := []struct {
		name   string
		in     PredictInput
		reason string
	}{
		{"bad_sex", PredictInput{Breed: "welsh_pony", Sex: "filly", Layers: []string{"colours/foals/body/large/f1"}}, domain.ReasonSexInvalid},
		{"no_layers", PredictInput{Breed: "welsh_pony", Sex: "mare"}, domain.ReasonLayersType},
		{"malformed", PredictInput{Breed: "welsh_pony", Sex: "mare", Layers: []string{"colours/foals/f1"}}, domain.ReasonLayersInvalid},
		{"mixed", PredictInput{Breed: "welsh_pony", Sex: "mare", Layers: []string{"colours/foals/body/large/f1", "colours/mares/mane/large/m2"}}, domain.ReasonLayersUnmatched},
		{"adult", PredictInput{Breed: "welsh_pony", Sex: "mare", Layers: []string{"colours/mares/body/large/m1"}}, domain.ReasonLayersNotFoal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), tc.in)
			if !domain.IsValidation(err) || domain.ReasonOf(err) != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, err)
			}
		})
	}
}

func TestServicePredictUnknownBreed(t *testing.T) {
	svc := newIngestedService(t)
	_, err := svc.Predict(context.Background(), PredictInput{Breed: "shire_horse", Sex: "mare", Layers: []string{"colours/foals/body/large/f1"}})
	if !domain.IsNotFound(err) || domain.ReasonOf(err) != domain.ReasonNoOrders {
		t.Fatalf("expected no_data_orders, got %v", err)
	}
}

func TestServiceColor(t *testing.T) {
	svc := newIngestedService(t)
	info, err := svc.Color(context.Background(), "Welsh Pony", []string{"colours/mares/body/large/m1", "colours/mares/mane/large/m2"})
	if err != nil {
		t.Fatalf("color: %v", err)
	}
	want := &naming.Info{Dilution: "E A Cream", Color: "Buckskin", LayerColor: "Buckskin"}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}

	_, err = svc.Color(context.Background(), "welsh_pony", []string{"colours/mares/body/large/unknown"})
	if !domain.IsNotFound(err) || domain.ReasonOf(err) != domain.ReasonNoColorInfo {
		t.Fatalf("expected colors_no_info_available, got %v", err)
	}
	_, err = svc.Color(context.Background(), "welsh_pony", []string{"colours/mares/body/large/m1", "colours/foals/mane/large/f2"})
	if domain.ReasonOf(err) != domain.ReasonLayersUnmatched {
		t.Fatalf("expected layers_unmatching, got %v", err)
	}
}

func TestServiceParseSheetLeavesStoreUntouched(t *testing.T) {
	store := persistmem.NewStore()
	svc := NewService(store)
	sh, err := svc.ParseSheet(context.Background(), "Welsh Pony", strings.NewReader(ponySheet))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sh.Breed != "welsh_pony" || len(sh.Colors) != 2 || len(sh.Orders) != 2 {
		t.Fatalf("unexpected sheet %+v", sh)
	}
	if rows, _ := store.ColorLayersByFoalIDs(context.Background(), "welsh_pony", []string{"f1"}); len(rows) != 0 {
		t.Fatalf("parse must not write to the store: %+v", rows)
	}
	if _, err := svc.ParseSheet(context.Background(), "x", strings.NewReader("")); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty sheet, got %v", err)
	}
}

func TestServiceObservability(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	logger := &captureLogger{}
	svc := newIngestedService(t, WithMetricsRecorder(metrics), WithTracer(tracer), WithLogger(logger))

	_, _ = svc.Predict(context.Background(), PredictInput{Breed: "welsh_pony", Sex: "mare", Layers: []string{"colours/foals/body/large/f1"}})
	_, _ = svc.Color(context.Background(), "welsh_pony", []string{"colours/mares/body/large/none"})

	want := []metricsCall{{OpIngest, true}, {OpPredict, true}, {OpColor, false}}
	if diff := cmp.Diff(want, metrics.calls, cmp.AllowUnexported(metricsCall{})); diff != "" {
		t.Fatalf("metrics mismatch (-want +got):\n%s", diff)
	}
	entries := tracer.Entries()
	if len(entries) != 3 || entries[2].Status != "error" || entries[2].Error == "" {
		t.Fatalf("unexpected spans %+v", entries)
	}
	if strings.Count(buf.String(), "\n") != 3 {
		t.Fatalf("expected three JSON lines, got %q", buf.String())
	}
	for _, msg := range logger.msgs {
		if msg == "operation failed" {
			t.Fatal("not-found results must not be logged as failures")
		}
	}
}

func TestServiceClockDrivesDurations(t *testing.T) {
	var durations []time.Duration
	rec := observeFunc(func(_ string, d time.Duration) { durations = append(durations, d) })
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	svc := NewService(persistmem.NewStore(), WithMetricsRecorder(rec), WithClock(clock))
	_, _ = svc.ParseSheet(context.Background(), "x", strings.NewReader(ponySheet))
	if len(durations) != 1 || durations[0] != time.Second {
		t.Fatalf("unexpected durations %v", durations)
	}
}

type observeFunc func(op string, d time.Duration)

func (f observeFunc) Observe(_ context.Context, op string, _ bool, d time.Duration) { f(op, d) }

func TestServiceSheetSourceOperations(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	for _, key := range []string{"sheets/Welsh Pony.csv", "sheets/notes.txt"} {
		if _, err := blobs.Put(ctx, key, strings.NewReader(ponySheet), "text/csv"); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	log := &captureLogger{}
	svc := NewService(persistmem.NewStore(), WithSheetSource(blobs, "sheets/"), WithLogger(log))

	obj, sh, err := svc.PutSheet(ctx, "Welsh Pony", strings.NewReader(ponySheet))
	if err != nil {
		t.Fatalf("put sheet: %v", err)
	}
	if obj.Key != "sheets/welsh_pony.csv" || sh.Breed != "welsh_pony" || len(sh.Colors) != 2 {
		t.Fatalf("unexpected put result %+v %+v", obj, sh)
	}
	if !slices.Contains(log.msgs, "replaced sheet") {
		t.Fatalf("expected replacement log, got %v", log.msgs)
	}

	objs, err := svc.ListSheets(ctx)
	if err != nil {
		t.Fatalf("list sheets: %v", err)
	}
	if len(objs) != 1 || objs[0].Key != "sheets/welsh_pony.csv" {
		t.Fatalf("unexpected sheets %+v", objs)
	}
	if _, err := svc.Ingest(ctx); err != nil {
		t.Fatalf("ingest after put: %v", err)
	}

	if _, _, err := svc.PutSheet(ctx, "Shire Horse", strings.NewReader(",\n")); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, _, err := svc.PutSheet(ctx, "  ", strings.NewReader(ponySheet)); domain.ReasonOf(err) != domain.ReasonBreedMissing {
		t.Fatalf("expected missing breed, got %v", err)
	}
	if objs, _ := svc.ListSheets(ctx); len(objs) != 1 {
		t.Fatalf("rejected sheets must not be stored: %+v", objs)
	}

	removed, err := svc.DeleteSheet(ctx, "welsh pony")
	if err != nil {
		t.Fatalf("delete sheet: %v", err)
	}
	if diff := cmp.Diff([]string{"sheets/welsh_pony.csv"}, removed); diff != "" {
		t.Fatalf("removed keys mismatch (-want +got):\n%s", diff)
	}
	if _, err := svc.DeleteSheet(ctx, "welsh_pony"); domain.ReasonOf(err) != domain.ReasonNoSheet {
		t.Fatalf("expected sheet_not_found, got %v", err)
	}
}

func TestServiceSheetOperationsWithoutSource(t *testing.T) {
	ctx := context.Background()
	svc := NewService(persistmem.NewStore())
	if _, _, err := svc.PutSheet(ctx, "welsh_pony", strings.NewReader(ponySheet)); !errors.Is(err, ErrNoSheetSource) {
		t.Fatalf("put: expected ErrNoSheetSource, got %v", err)
	}
	if _, err := svc.ListSheets(ctx); !errors.Is(err, ErrNoSheetSource) {
		t.Fatalf("list: expected ErrNoSheetSource, got %v", err)
	}
	if _, err := svc.DeleteSheet(ctx, "welsh_pony"); !errors.Is(err, ErrNoSheetSource) {
		t.Fatalf("delete: expected ErrNoSheetSource, got %v", err)
	}
}
