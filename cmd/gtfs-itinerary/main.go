// Command gtfs-itinerary matches recorded GPS trajectories against a GTFS
// schedule and writes the resulting itineraries.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/config"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/internal"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/internal/metrics"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/pipeline"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/store"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

func main() {
	configPath := flag.String("config", "", "path to config YAML (default: ./config.yml or ./config.yaml)")
	feedName := flag.String("feed", "", "feed name from config.feeds[]")
	gtfsPath := flag.String("gtfs", "", "GTFS static zip (overrides config)")
	catalogCache := flag.String("catalog-cache", "", "catalog cache file (overrides config)")
	trajectories := flag.String("trajectories", "", "CSV of trip_id,timestamp,lat,lon[,route_id]")
	vehiclePositions := flag.String("vehicle-positions", "", "comma-separated GTFS-RT VehiclePositions files, globs or URLs")
	workers := flag.Int("workers", -1, "worker goroutines (0 = NumCPU, -1 = config)")
	out := flag.String("out", "", "output file (.json or .gpx); stdout when empty")
	sqlitePath := flag.String("sqlite", "", "SQLite database for results (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on host:port (overrides config)")
	modeFilter := flag.String("mode", "", "only output segments of this mode (transit|walking)")
	routeFilter := flag.String("route", "", "only output segments whose route id or name contains this")
	stopFilter := flag.String("stop", "", "only output segments boarding or alighting at a stop id containing this")
	flag.Parse()

	internal.InitLogging()

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		if *configPath != "" || !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("config: %v", err)
		}
		log.Printf("no config file found, using defaults")
		if cfg, err = config.ParseAppConfig([]byte("{}")); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	gtfsCfg := cfg.SelectFeed(*feedName)
	if *gtfsPath != "" {
		gtfsCfg.StaticPath = *gtfsPath
	}
	if *catalogCache != "" {
		gtfsCfg.CachePath = *catalogCache
	}
	if gtfsCfg.StaticPath == "" && gtfsCfg.CachePath == "" {
		log.Fatalf("no GTFS source: set gtfs.staticPath or pass -gtfs")
	}
	if *workers >= 0 {
		cfg.Batch.Workers = *workers
	}
	if *sqlitePath != "" {
		cfg.Output.SQLitePath = *sqlitePath
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *out != "" {
		cfg.Output.JSONPath = *out
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := gtfs.LoadFromConfig(gtfsCfg)
	if err != nil {
		log.Fatalf("gtfs: %v", err)
	}
	log.Printf("catalog: %d routes, %d stops", len(catalog.Routes), len(catalog.Stops))

	trips, err := loadTrips(ctx, *trajectories, *vehiclePositions, gtfsrt.KeyStrategy(cfg.Realtime.TripKeyStrategy))
	if err != nil {
		log.Fatalf("input: %v", err)
	}
	log.Printf("input: %d trips", len(trips))

	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = runtime.NumCPU()
	}
	collector := metrics.NewCollector(len(catalog.Routes), cfg.Batch.Workers)
	if cfg.Metrics.Addr != "" {
		srv := collector.Serve(cfg.Metrics.Addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	conditions := pipeline.NewConditionAggregator()
	p := pipeline.New(catalog, cfg.Matching,
		pipeline.WithMetrics(collector),
		pipeline.WithConditionAggregator(conditions),
	)

	started := time.Now()
	results, err := p.Run(ctx, trips, cfg.Batch.Workers)
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	eval := pipeline.Evaluate(results)
	log.Printf("run: %d trips in %s, %d failed", eval.Trips, time.Since(started).Round(time.Millisecond), eval.Failed)
	if eval.Labelled > 0 {
		log.Printf("evaluation: %d/%d labelled trips agree with observed route (%.1f%%)",
			eval.Agreeing, eval.Labelled, 100*eval.AgreementRate())
	}

	runID := ""
	if cfg.Output.SQLitePath != "" {
		runID, err = persist(ctx, cfg.Output.SQLitePath, catalog.AgencyID, started, results, conditions)
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
	}

	batch := buildBatch(results, eval, conditions.Counts(), catalog.AgencyID, runID, time.Now())
	batch = segmentFilter{mode: *modeFilter, route: *routeFilter, stop: *stopFilter}.apply(batch)
	if err := writeBatch(cfg.Output.JSONPath, os.Stdout, batch); err != nil {
		log.Fatalf("output: %v", err)
	}
	conditions.LogAll(catalog.AgencyID)
}

func loadTrips(ctx context.Context, csvPath, vpSources string, strategy gtfsrt.KeyStrategy) ([]trajectory.RawTrip, error) {
	var trips []trajectory.RawTrip
	if csvPath != "" {
		t, err := readTrajectoryFile(csvPath)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t...)
	}
	if vpSources != "" {
		var patterns []string
		for _, s := range strings.Split(vpSources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				patterns = append(patterns, s)
			}
		}
		archive := gtfsrt.NewArchive(strategy)
		if err := archive.LoadFiles(ctx, gtfsrt.NewClient(), patterns...); err != nil {
			return nil, err
		}
		trips = append(trips, archive.Trips()...)
	}
	if len(trips) == 0 {
		return nil, errors.New("no trajectories: pass -trajectories or -vehicle-positions")
	}
	return trips, nil
}

func persist(ctx context.Context, path, agencyID string, started time.Time, results []pipeline.TripResult, conditions *pipeline.ConditionAggregator) (string, error) {
	db, err := store.Connect(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = db.Close() }()

	if err := db.EnsureSchema(ctx); err != nil {
		return "", err
	}
	runID, err := db.CreateRun(ctx, agencyID, started)
	if err != nil {
		return "", err
	}
	if err := db.WriteTrips(ctx, runID, results); err != nil {
		return "", err
	}
	if err := db.FinishRun(ctx, runID, time.Now(), conditions.Counts()); err != nil {
		return "", err
	}
	log.Printf("sqlite: stored run %s in %s", runID, path)
	return runID, nil
}
