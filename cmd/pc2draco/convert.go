package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/pc2draco/internal/config"
	"github.com/banshee-data/pc2draco/internal/geometry"
	"github.com/banshee-data/pc2draco/internal/monitoring"
	"github.com/banshee-data/pc2draco/internal/paramstore"
	"github.com/banshee-data/pc2draco/internal/pcd"
	"github.com/banshee-data/pc2draco/internal/pointcloud"
	"github.com/banshee-data/pc2draco/internal/storage/sqlite"
)

// convertResult is the outcome of converting one file.
type convertResult struct {
	path    string
	run     *sqlite.ConversionRun
	stats   []geometry.AttributeStats
	meta    map[string]int64
	err     error
	elapsed time.Duration
}

func runConvertCommand(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to converter config JSON (default "+config.DefaultConfigPath+" if present)")
	namespace := fs.String("namespace", "", "Parameter namespace for attribute overrides")
	dedup := fs.Bool("dedup", false, "Merge points that are identical in every attribute")
	override := fs.Bool("override", false, "Read attribute types from the parameter store")
	paramFile := fs.String("params", "", "JSON parameter file for override mode")
	dbPath := fs.String("db", "", "SQLite database for parameters and the run log")
	workers := fs.Int("workers", 0, "Concurrent conversions (0 = GOMAXPROCS)")
	metricsListen := fs.String("metrics-listen", "", "Serve /metrics on this address after converting, until interrupted")
	debug := fs.Bool("debug", false, "Log per-field conversion details to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("convert: no input files")
	}

	cfg := config.EmptyConverterConfig()
	path := *configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			path = config.DefaultConfigPath
		}
	}
	if path != "" {
		loaded, err := config.LoadConverterConfig(path)
		if err != nil {
			return err
		}
		cfg.Merge(loaded)
	}

	// Flags given explicitly win over the config file.
	flags := config.EmptyConverterConfig()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "namespace":
			flags.Namespace = namespace
		case "dedup":
			flags.Deduplicate = dedup
		case "override":
			flags.OverrideMode = override
		case "params":
			flags.ParamFile = paramFile
		case "db":
			flags.Database = dbPath
		case "workers":
			flags.Workers = workers
		case "metrics-listen":
			flags.MetricsListen = metricsListen
		}
	})
	cfg.Merge(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *debug {
		pointcloud.SetDebugLogger(os.Stderr)
		pcd.SetDebugLogger(os.Stderr)
		geometry.SetDebugLogger(os.Stderr)
	}

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	results, err := convertFiles(ctx, cfg, fs.Args(), metrics)
	if err != nil {
		return err
	}
	failed := printResults(out, results)

	if addr := cfg.GetMetricsListen(); addr != "" {
		if err := serveMetrics(ctx, addr, reg); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

// convertFiles converts every path with at most cfg.GetWorkers() in flight.
// Per-file failures are reported in the results, not as the returned error.
func convertFiles(ctx context.Context, cfg *config.ConverterConfig, paths []string, obs pointcloud.Observer) ([]convertResult, error) {
	var (
		params paramstore.Chain
		runs   *sqlite.RunStore
	)
	if f := cfg.GetParamFile(); f != "" {
		store, err := paramstore.LoadJSONFile(f)
		if err != nil {
			return nil, err
		}
		params = append(params, store)
	}
	if p := cfg.GetDatabase(); p != "" {
		db, err := sqlite.Open(p)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		params = append(params, sqlite.NewParamStore(db.DB))
		runs = sqlite.NewRunStore(db.DB)
	}

	conv := pointcloud.NewConverter(cfg.GetNamespace(), params)
	conv.Observer = obs
	opts := pointcloud.Options{
		Deduplicate:  cfg.GetDeduplicate(),
		OverrideMode: cfg.GetOverrideMode(),
	}

	results := make([]convertResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.GetWorkers())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = convertOne(conv, opts, path)
			results[i].run.Namespace = cfg.GetNamespace()
			if runs != nil {
				if err := runs.Insert(results[i].run); err != nil {
					log.Printf("record run for %s: %v", path, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func convertOne(conv *pointcloud.Converter, opts pointcloud.Options, path string) convertResult {
	start := time.Now()
	res := convertResult{path: path}
	res.run = &sqlite.ConversionRun{
		SourcePath:   path,
		Deduplicate:  opts.Deduplicate,
		OverrideMode: opts.OverrideMode,
	}

	rec, _, err := pcd.ReadFile(path)
	if err == nil {
		res.run.InputPoints = rec.PointCount()
		var pc *geometry.PointCloud
		pc, err = conv.Convert(rec, opts)
		if err == nil {
			res.stats = geometry.Describe(pc)
			res.meta = pc.Metadata()
			res.run.OutputPoints = pc.NumPoints()
			res.run.AttributeCount = len(pc.Attributes())
		}
	}
	res.elapsed = time.Since(start)
	res.run.Duration = res.elapsed
	if err != nil {
		res.err = err
		res.run.Error = err.Error()
	}
	return res
}

// printResults writes a summary per file and returns the number of failures.
func printResults(out io.Writer, results []convertResult) int {
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED: %v\n", r.path, r.err)
			continue
		}
		fmt.Fprintf(out, "%s: %d -> %d points, %d attributes, deduplicate=%d (%s) run=%s\n",
			r.path, r.run.InputPoints, r.run.OutputPoints, r.run.AttributeCount,
			r.meta[pointcloud.MetadataDeduplicate], r.elapsed.Round(time.Microsecond), r.run.RunID)
		for _, s := range r.stats {
			fmt.Fprintf(out, "  [%d] %-9s %-7s x%d", s.ID, s.Type, s.DataType, len(s.Components))
			for _, c := range s.Components {
				fmt.Fprintf(out, " (%.4g..%.4g)", c.Min, c.Max)
			}
			fmt.Fprintln(out)
		}
	}
	return failed
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics server shutdown: %v", err)
		}
	}()

	log.Printf("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
