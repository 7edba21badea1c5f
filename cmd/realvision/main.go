// Command realvision ingests breed sheets, serves the prediction API and runs
// one-off predictions from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"realvision/internal/adapters/httpapi"
	"realvision/internal/blob"
	"realvision/internal/config"
	"realvision/internal/core"
	"realvision/internal/infra/persistence/memory"
	"realvision/internal/ingest"
	"realvision/internal/logging"
	"realvision/internal/predict"
	"realvision/internal/sheet"
)

const shutdownTimeout = 10 * time.Second

var exitFunc = os.Exit

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitFunc(1)
	}
}

type flags struct {
	storage    string
	sqlitePath string
	blobRoot   string
	logLevel   string
	addr       string
}

func newRootCmd() *cobra.Command {
	var (
		f   flags
		cfg config.Config
	)
	root := &cobra.Command{
		Use:          "realvision",
		Short:        "Predict adult horse coat artwork from foal layers",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = applyFlags(cmd, loaded, f)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.storage, "storage", "", "layer store driver: memory|sqlite|postgres")
	pf.StringVar(&f.sqlitePath, "sqlite-path", "", "sqlite database file")
	pf.StringVar(&f.blobRoot, "sheets", "", "directory holding breed sheets (fs blob driver)")
	pf.StringVar(&f.logLevel, "log-level", "", "debug|info|warn|error")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serveCmd.Flags().StringVar(&f.addr, "addr", "", "listen address")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Replace the layer store contents with every sheet in the sheet source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	var parseBreed string
	parseCmd := &cobra.Command{
		Use:   "parse <sheet.csv>",
		Short: "Parse one sheet and print its records without storing them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), cfg, args[0], parseBreed, cmd.OutOrStdout())
		},
	}
	parseCmd.Flags().StringVar(&parseBreed, "breed", "", "breed identifier (default: derived from the file name)")

	var in core.PredictInput
	predictCmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the adult layers of a foal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd.Context(), cfg, in, cmd.OutOrStdout())
		},
	}
	predictCmd.Flags().StringVar(&in.Breed, "breed", "", "breed name")
	predictCmd.Flags().StringVar(&in.Sex, "sex", "", "stallion|mare|gelding")
	predictCmd.Flags().StringArrayVar(&in.Layers, "layer", nil, "foal layer key or URL (repeatable)")
	predictCmd.Flags().StringToStringVar(&in.Genes, "gene", nil, "gene hint such as tobiano=TO (repeatable)")
	_ = predictCmd.MarkFlagRequired("breed")
	_ = predictCmd.MarkFlagRequired("sex")

	var (
		colorBreed  string
		colorLayers []string
	)
	colorCmd := &cobra.Command{
		Use:   "color",
		Short: "Name the coat described by a set of layers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runColor(cmd.Context(), cfg, colorBreed, colorLayers, cmd.OutOrStdout())
		},
	}
	colorCmd.Flags().StringVar(&colorBreed, "breed", "", "breed name")
	colorCmd.Flags().StringArrayVar(&colorLayers, "layer", nil, "layer key or URL (repeatable)")
	_ = colorCmd.MarkFlagRequired("breed")

	root.AddCommand(serveCmd, ingestCmd, parseCmd, predictCmd, colorCmd, newSheetsCmd(&cfg))
	return root
}

// applyFlags overrides environment configuration with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg config.Config, f flags) config.Config {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("storage") {
		cfg.StorageDriver = f.storage
	}
	if changed("sqlite-path") {
		cfg.SQLitePath = f.sqlitePath
	}
	if changed("sheets") {
		cfg.Blob.Driver = string(blob.DriverFilesystem)
		cfg.Blob.FSRoot = f.blobRoot
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("addr") {
		cfg.HTTPAddr = f.addr
	}
	return cfg
}

type app struct {
	cfg      config.Config
	log      *logging.Zap
	svc      *core.Service
	registry *prometheus.Registry
}

func openApp(ctx context.Context, cfg config.Config, withMetrics bool) (*app, error) {
	log, err := logging.NewZap(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	orders, err := sheet.LoadOrders(cfg.OrdersFile)
	if err != nil {
		return nil, err
	}
	store, err := core.OpenLayerStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open layer store: %w", err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open sheet source: %w", err)
	}
	opts := []core.Option{
		core.WithLogger(log),
		core.WithParser(sheet.NewParser(orders)),
		core.WithSheetSource(blobs, cfg.SheetPrefix),
		core.WithPredictOptions(predictOptions(cfg)...),
	}
	a := &app{cfg: cfg, log: log}
	if withMetrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rec, err := core.NewPrometheusMetricsRecorder(a.registry)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		opts = append(opts, core.WithMetricsRecorder(rec))
	}
	a.svc = core.NewService(store, opts...)
	return a, nil
}

// predictOptions maps the prediction settings onto engine options.
func predictOptions(cfg config.Config) []predict.Option {
	return []predict.Option{
		predict.WithPatternGenes(cfg.PatternGenes...),
		predict.WithRoanOverlayBreeds(cfg.RoanOverlayBreeds...),
	}
}

func (a *app) Close() {
	if err := a.svc.Close(); err != nil {
		a.log.Warn("close layer store", "error", err)
	}
	a.log.Sync()
}

func runServe(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.IngestOnStart {
		report, err := a.svc.Ingest(ctx)
		switch {
		case errors.Is(err, ingest.ErrNoSheets):
			a.log.Warn("no sheets to ingest, serving existing data", "prefix", cfg.SheetPrefix)
		case err != nil:
			return err
		default:
			a.log.Info("ingestion complete", "breeds", len(report.Breeds), "duration", report.Duration)
		}
	}

	h := httpapi.NewHandler(a.svc)
	h.BaseURL = cfg.LayerBaseURL
	h.Gatherer = a.registry
	h.Log = a.log
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runIngest(ctx context.Context, cfg config.Config, out io.Writer) error {
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	report, err := a.svc.Ingest(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, report)
}

func runParse(ctx context.Context, cfg config.Config, path, breed string, out io.Writer) error {
	orders, err := sheet.LoadOrders(cfg.OrdersFile)
	if err != nil {
		return err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if breed == "" {
		breed = ingest.BreedFromKey(filepath.ToSlash(path))
	}
	svc := core.NewService(memory.NewStore(), core.WithParser(sheet.NewParser(orders)))
	sh, err := svc.ParseSheet(ctx, breed, f)
	if err != nil {
		return err
	}
	return printJSON(out, sh)
}

func newSheetsCmd(cfg *config.Config) *cobra.Command {
	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage breed sheets in the sheet source",
	}

	var putBreed string
	putCmd := &cobra.Command{
		Use:   "put <sheet.csv>",
		Short: "Validate a sheet and store it under its breed key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSheetPut(cmd.Context(), *cfg, args[0], putBreed, cmd.OutOrStdout())
		},
	}
	putCmd.Flags().StringVar(&putBreed, "breed", "", "breed identifier (default: derived from the file name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the sheets the next ingestion would read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *cfg, func(a *app) error {
				objs, err := a.svc.ListSheets(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), objs)
			})
		},
	}

	rmCmd := &cobra.Command{
		Use:   "rm <breed>",
		Short: "Remove every sheet of a breed from the sheet source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), *cfg, func(a *app) error {
				removed, err := a.svc.DeleteSheet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), removed)
			})
		},
	}

	sheetsCmd.AddCommand(putCmd, listCmd, rmCmd)
	return sheetsCmd
}

func withApp(ctx context.Context, cfg config.Config, fn func(*app) error) error {
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runSheetPut(ctx context.Context, cfg config.Config, path, breed string, out io.Writer) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if breed == "" {
		breed = ingest.BreedFromKey(filepath.ToSlash(path))
	}
	return withApp(ctx, cfg, func(a *app) error {
		obj, _, err := a.svc.PutSheet(ctx, breed, f)
		if err != nil {
			return err
		}
		return printJSON(out, obj)
	})
}

type predictOutput struct {
	Color    string   `json:"color"`
	Dilution string   `json:"dilution"`
	Notes    []string `json:"notes,omitempty"`
	Layers   []string `json:"layers"`
}

func runPredict(ctx context.Context, cfg config.Config, in core.PredictInput, out io.Writer) error {
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	res, err := a.svc.Predict(ctx, in)
	if err != nil {
		return err
	}
	po := predictOutput{Color: res.Color, Dilution: res.Dilution, Notes: res.Notes, Layers: make([]string, len(res.Layers))}
	for i, k := range res.Layers {
		po.Layers[i] = k.URL(cfg.LayerBaseURL)
	}
	return printJSON(out, po)
}

func runColor(ctx context.Context, cfg config.Config, breed string, layers []string, out io.Writer) error {
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()
	info, err := a.svc.Color(ctx, breed, layers)
	if err != nil {
		return err
	}
	return printJSON(out, info)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
