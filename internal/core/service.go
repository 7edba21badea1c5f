// Package core exposes the coat colour operations behind one Service facade
// shared by the HTTP adapter and the CLI.
package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"realvision/internal/blob"
	"realvision/internal/ingest"
	"realvision/internal/layer"
	"realvision/internal/logging"
	"realvision/internal/naming"
	"realvision/internal/predict"
	"realvision/internal/sheet"
	"realvision/pkg/domain"
)

// Operation names reported to metrics and tracers.
const (
	OpIngest     = "ingest"
	OpPredict    = "predict"
	OpColor      = "color"
	OpParseSheet = "parse_sheet"
	OpPutSheet   = "put_sheet"
	OpListSheets = "list_sheets"
	OpDelSheet   = "delete_sheet"
)

const sheetContentType = "text/csv"

// ErrNoSheetSource is returned by the sheet source operations when the
// service has no blob store.
var ErrNoSheetSource = errors.New("core: no sheet source configured")

// PredictInput is the raw prediction request as received from clients.
type PredictInput struct {
	Breed  string            `json:"breed"`
	Sex    string            `json:"sex"`
	Layers []string          `json:"layers"`
	Genes  map[string]string `json:"genes,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the span source.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithParser replaces the default sheet parser, typically to apply breed
// order overrides.
func WithParser(p *sheet.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithSheetSource enables Ingest from blobs. Keys are filtered by prefix.
func WithSheetSource(blobs blob.Store, prefix string) Option {
	return func(s *Service) {
		s.blobs = blobs
		s.prefix = prefix
	}
}

// WithPredictOptions forwards options to the prediction engine.
func WithPredictOptions(opts ...predict.Option) Option {
	return func(s *Service) {
		s.predictOpts = append(s.predictOpts, opts...)
	}
}

// Service wires the layer store to the parser, the prediction engine and the
// naming engine.
type Service struct {
	store       domain.LayerStore
	blobs       blob.Store
	prefix      string
	parser      *sheet.Parser
	engine      *predict.Engine
	namer       *naming.Namer
	predictOpts []predict.Option
	log         logging.Logger
	metrics     MetricsRecorder
	tracer      Tracer
	now         func() time.Time
}

// NewService constructs a service reading from and ingesting into store.
func NewService(store domain.LayerStore, opts ...Option) *Service {
	s := &Service{
		store:   store,
		parser:  sheet.NewParser(nil),
		log:     logging.Nop(),
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	engineOpts := append([]predict.Option{predict.WithLogger(s.log)}, s.predictOpts...)
	s.engine = predict.New(store, engineOpts...)
	s.namer = naming.New(store)
	return s
}

// Store returns the underlying layer store.
func (s *Service) Store() domain.LayerStore { return s.store }

// Close releases the layer store.
func (s *Service) Close() error { return s.store.Close() }

func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, s.now().Sub(start))
	if err != nil && !domain.IsNotFound(err) && !domain.IsValidation(err) {
		s.log.Error("operation failed", "operation", op, "error", err)
	}
	return err
}

// Ingest reloads every sheet from the configured blob store.
func (s *Service) Ingest(ctx context.Context) (ingest.Report, error) {
	var report ingest.Report
	err := s.observe(ctx, OpIngest, func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoSheetSource
		}
		var err error
		report, err = ingest.New(s.blobs, s.store,
			ingest.WithPrefix(s.prefix),
			ingest.WithParser(s.parser),
			ingest.WithLogger(s.log),
		).Run(ctx)
		return err
	})
	return report, err
}

// Predict validates a raw request and predicts the adult appearance.
func (s *Service) Predict(ctx context.Context, in PredictInput) (*predict.Result, error) {
	var res *predict.Result
	err := s.observe(ctx, OpPredict, func(ctx context.Context) error {
		sex, err := domain.ParseSex(in.Sex)
		if err != nil {
			return err
		}
		keys, err := layer.ParseAll(in.Layers)
		if err != nil {
			return err
		}
		if err := layer.ValidateFoal(keys); err != nil {
			return err
		}
		res, err = s.engine.Predict(ctx, predict.Request{
			Breed:  domain.NormalizeBreed(in.Breed),
			Sex:    sex,
			Layers: keys,
			Genes:  in.Genes,
		})
		return err
	})
	return res, err
}

// Color names the coat described by layers without predicting. Foal and adult
// layers are both accepted as long as they share a horse type.
func (s *Service) Color(ctx context.Context, breed string, layers []string) (*naming.Info, error) {
	var info *naming.Info
	err := s.observe(ctx, OpColor, func(ctx context.Context) error {
		keys, err := layer.ParseAll(layers)
		if err != nil {
			return err
		}
		if _, err := layer.HorseTypeOf(keys); err != nil {
			return err
		}
		info, err = s.namer.Name(ctx, domain.NormalizeBreed(breed), keys)
		if err != nil {
			return domain.WrapStore("color", err)
		}
		if info == nil {
			return &domain.NotFoundError{Reason: domain.ReasonNoColorInfo, Message: "no colour information available for these layers"}
		}
		return nil
	})
	return info, err
}

// ParseSheet parses one uploaded sheet without touching the store.
func (s *Service) ParseSheet(ctx context.Context, breed string, r io.Reader) (domain.Sheet, error) {
	var sh domain.Sheet
	err := s.observe(ctx, OpParseSheet, func(context.Context) error {
		var err error
		sh, err = s.parser.ParseCSV(domain.NormalizeBreed(breed), r)
		return err
	})
	return sh, err
}

// PutSheet parses a sheet and, when it is valid, stores it in the sheet source
// under the breed's canonical key. Other keys holding the same breed are
// removed so the next Ingest sees one sheet per breed. The layer store is not
// touched.
func (s *Service) PutSheet(ctx context.Context, breed string, r io.Reader) (blob.Object, domain.Sheet, error) {
	var (
		obj blob.Object
		sh  domain.Sheet
	)
	err := s.observe(ctx, OpPutSheet, func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoSheetSource
		}
		name := domain.NormalizeBreed(breed)
		if name == "" {
			return &domain.ValidationError{Reason: domain.ReasonBreedMissing, Message: "breed is required to store a sheet"}
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("read sheet: %w", err)
		}
		if sh, err = s.parser.ParseCSV(name, bytes.NewReader(data)); err != nil {
			return err
		}
		key := ingest.SheetKey(s.prefix, name)
		if obj, err = s.blobs.Put(ctx, key, bytes.NewReader(data), sheetContentType); err != nil {
			return fmt.Errorf("store sheet %s: %w", key, err)
		}
		stale, err := s.breedKeys(ctx, name)
		if err != nil {
			return err
		}
		for _, k := range stale {
			if k == key {
				continue
			}
			if _, err := s.blobs.Delete(ctx, k); err != nil {
				return fmt.Errorf("remove sheet %s: %w", k, err)
			}
			s.log.Info("replaced sheet", "breed", name, "old_key", k, "key", key)
		}
		return nil
	})
	return obj, sh, err
}

// ListSheets returns the sheets Ingest would read.
func (s *Service) ListSheets(ctx context.Context) ([]blob.Object, error) {
	var out []blob.Object
	err := s.observe(ctx, OpListSheets, func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoSheetSource
		}
		objs, err := s.blobs.List(ctx, s.prefix)
		if err != nil {
			return fmt.Errorf("list sheets: %w", err)
		}
		out = make([]blob.Object, 0, len(objs))
		for _, o := range objs {
			if ingest.IsSheetKey(o.Key) {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}

// DeleteSheet removes every sheet of breed from the sheet source and returns
// the removed keys. Data already ingested stays until the next Ingest.
func (s *Service) DeleteSheet(ctx context.Context, breed string) ([]string, error) {
	var removed []string
	err := s.observe(ctx, OpDelSheet, func(ctx context.Context) error {
		if s.blobs == nil {
			return ErrNoSheetSource
		}
		name := domain.NormalizeBreed(breed)
		keys, err := s.breedKeys(ctx, name)
		if err != nil {
			return err
		}
		for _, k := range keys {
			ok, err := s.blobs.Delete(ctx, k)
			if err != nil {
				return fmt.Errorf("remove sheet %s: %w", k, err)
			}
			if ok {
				removed = append(removed, k)
			}
		}
		if len(removed) == 0 {
			return &domain.NotFoundError{Reason: domain.ReasonNoSheet, Message: fmt.Sprintf("no sheet stored for breed %s", name)}
		}
		return nil
	})
	return removed, err
}

func (s *Service) breedKeys(ctx context.Context, breed string) ([]string, error) {
	objs, err := s.blobs.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("list sheets: %w", err)
	}
	var keys []string
	for _, o := range objs {
		if ingest.IsSheetKey(o.Key) && ingest.BreedFromKey(o.Key) == breed {
			keys = append(keys, o.Key)
		}
	}
	return keys, nil
}
