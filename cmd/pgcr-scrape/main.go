// Command pgcr-scrape fetches a range of post-game carnage reports through a
// rate-limited worker pool and writes the flattened rows to a sink.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vnykmshr/ratepool/internal/config"
	"github.com/vnykmshr/ratepool/internal/pgcr"
	"github.com/vnykmshr/ratepool/pkg/logx"
	"github.com/vnykmshr/ratepool/pkg/metrics"
	"github.com/vnykmshr/ratepool/pkg/ratelimit/smooth"
	"github.com/vnykmshr/ratepool/pkg/results"
	"github.com/vnykmshr/ratepool/pkg/scheduling/progress"
	"github.com/vnykmshr/ratepool/pkg/scheduling/scheduler"
	"github.com/vnykmshr/ratepool/pkg/scheduling/workerpool"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

// flags holds command-line overrides. Only flags that were set replace
// config values.
type flags struct {
	configPath string
	start      int64
	count      int64
	filter     string
	out        string
	cron       string
	manifest   string
	set        map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fs := flag.NewFlagSet("pgcr-scrape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to YAML config")
	fs.Int64Var(&f.start, "start", 0, "first activity instance id")
	fs.Int64Var(&f.count, "count", 0, "number of instance ids to fetch")
	fs.StringVar(&f.filter, "filter", "", "keep only this activity name, e.g. Gambit")
	fs.StringVar(&f.out, "out", "", "output path (csv or sqlite driver)")
	fs.StringVar(&f.cron, "cron", "", "run on a six-field cron schedule instead of once")
	fs.StringVar(&f.manifest, "manifest", "", "activity manifest (.json index or world content database)")
	if err := fs.Parse(args); err != nil {
		return flags{}, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

func (f flags) apply(cfg *config.Config) {
	if f.set["start"] {
		cfg.Batch.Start = f.start
	}
	if f.set["count"] {
		cfg.Batch.Count = f.count
	}
	if f.set["filter"] {
		cfg.Batch.Filter = f.filter
	}
	if f.set["out"] {
		cfg.Output.Path = f.out
	}
	if f.set["cron"] {
		cfg.Batch.Cron = f.cron
	}
	if f.set["manifest"] {
		cfg.Batch.Manifest = f.manifest
	}
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logx.New(logx.Config{Level: cfg.Logging.Level, Console: cfg.Logging.Console, Out: stderr})

	var registry *metrics.Registry
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		registry = metrics.Config{Enabled: true, Registry: reg, Namespace: cfg.Metrics.Namespace}.Build()
		stop := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer stop()
	}

	var manifest *pgcr.Manifest
	if cfg.Batch.Manifest != "" {
		manifest, err = pgcr.LoadManifest(ctx, cfg.Batch.Manifest)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		log.Info("manifest loaded", logx.Int("activities", manifest.Len()))
	} else {
		log.Warn("no manifest configured, activity names will be empty")
	}

	client, err := pgcr.NewClient(pgcr.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		APIKey:  cfg.API.Key,
		Timeout: cfg.API.Timeout,
	})
	if err != nil {
		return err
	}

	b := &batcher{
		cfg: cfg,
		log: log,
		scraper: &pgcr.Scraper{
			Fetcher:  client,
			Manifest: manifest,
			Filter:   cfg.Batch.Filter,
			Pool:     poolConfig(cfg, stderr, log),
			Metrics:  registry,
			Log:      log,
		},
	}

	if cfg.Batch.Cron == "" {
		return b.run(ctx)
	}

	runner, err := scheduler.NewRunner(scheduler.Config{Schedule: cfg.Batch.Cron, Logger: log}, b.run)
	if err != nil {
		return err
	}
	if err := runner.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	<-runner.Stop()
	log.Info("scheduler stopped", logx.Int64("batches", runner.Runs()), logx.Int64("skipped", runner.Skipped()))
	return nil
}

func poolConfig(cfg config.Config, stderr io.Writer, log logx.Logger) workerpool.Config {
	pc := workerpool.Config{
		Workers:          cfg.Pool.Workers,
		RateCapacity:     cfg.Pool.RateCapacity,
		RateInterval:     cfg.Pool.RateInterval,
		ProgressInterval: cfg.Pool.ProgressInterval,
		JobTimeout:       cfg.Pool.JobTimeout,
	}
	if cfg.Logging.Console {
		pc.Progress = progress.NewBar(stderr, 0)
	} else {
		pc.Progress = progress.LogSink{Log: log}
	}
	return pc
}

// batcher runs one scrape per call, advancing the id range each time.
type batcher struct {
	cfg     config.Config
	log     logx.Logger
	scraper *pgcr.Scraper
	batches atomic.Int64
}

func (b *batcher) run(ctx context.Context) error {
	n := b.batches.Add(1) - 1
	runID := uuid.NewString()
	r := pgcr.Range{
		Start: b.cfg.Batch.Start + n*b.cfg.Batch.Count,
		Count: b.cfg.Batch.Count,
	}
	log := b.log.With(logx.String("run_id", runID))

	scraper := *b.scraper
	scraper.Log = log
	if b.cfg.Pool.Limiter == "smooth" {
		limiter, err := smooth.NewSafe(b.cfg.Pool.RateCapacity, b.cfg.Pool.RateInterval)
		if err != nil {
			return err
		}
		defer limiter.Close()
		scraper.Pool.Limiter = limiter
	}

	wallStart := time.Now()
	cpuStart := cpuTime()

	collector, scrapeErr := scraper.Scrape(ctx, r)
	if collector == nil {
		return scrapeErr
	}

	out := b.cfg.Output
	path := out.Path
	if b.cfg.Batch.Cron != "" {
		path = withRunID(path, runID)
	}
	sink, err := results.Open(ctx, results.Config{
		Driver:      out.Driver,
		Path:        path,
		RedisAddr:   out.RedisAddr,
		RedisPrefix: out.RedisPrefix,
		TTL:         out.TTL,
		RunID:       runID,
	})
	if err != nil {
		return err
	}
	rows := results.Values(collector.OK())
	writeErr := sink.Write(context.WithoutCancel(ctx), rows)
	if err := sink.Close(); writeErr == nil {
		writeErr = err
	}

	log.Info("batch written",
		logx.Int("rows", len(rows)),
		logx.Int("failed", len(collector.Failed())),
		logx.String("driver", out.Driver),
		logx.String("path", path),
		logx.Duration("elapsed", time.Since(wallStart)),
		logx.Duration("cpu", cpuTime()-cpuStart),
	)
	return errors.Join(scrapeErr, writeErr)
}

// withRunID inserts runID before the extension of path.
func withRunID(path, runID string) string {
	if path == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + runID + ext
}

func serveMetrics(addr string, reg *prometheus.Registry, log logx.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", logx.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", logx.Err(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
