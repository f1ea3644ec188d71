package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg    *prometheus.Registry
	health *Health

	TripsProcessed prometheus.Counter
	TripsFailed    *prometheus.CounterVec // reason label: empty|insufficient_data|error
	TripsInFlight  prometheus.Gauge

	Legs       *prometheus.CounterVec // outcome label: matched|walking|degenerate
	Segments   *prometheus.CounterVec // mode label: transit|walking
	Conditions *prometheus.CounterVec // condition label

	TripDuration prometheus.Histogram
	LegScore     prometheus.Histogram

	CatalogRoutes prometheus.Gauge
	Workers       prometheus.Gauge
}

func NewCollector(catalogRoutes, workers int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg:    reg,
		health: NewHealth(catalogRoutes),
		TripsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_trips_processed_total",
			Help: "Total trips turned into an itinerary.",
		}),
		TripsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_trips_failed_total",
			Help: "Trips rejected before matching.",
		}, []string{"reason"}),
		TripsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "itinerary_trips_in_flight",
			Help: "Trips currently being processed.",
		}),
		Legs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_legs_total",
			Help: "Trip legs by matching outcome.",
		}, []string{"outcome"}),
		Segments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_segments_total",
			Help: "Merged itinerary segments by mode.",
		}, []string{"mode"}),
		Conditions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_conditions_total",
			Help: "Recoverable modeling conditions raised while matching.",
		}, []string{"condition"}),
		TripDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "itinerary_trip_duration_seconds",
			Help:    "Wall time to process one trip.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		LegScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "itinerary_leg_best_score",
			Help:    "Best normalized LCSS score per leg with candidates.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		CatalogRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "itinerary_catalog_routes",
			Help: "Route variants in the loaded catalog.",
		}),
		Workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "itinerary_workers",
			Help: "Size of the trip worker pool.",
		}),
	}

	reg.MustRegister(
		c.TripsProcessed, c.TripsFailed, c.TripsInFlight,
		c.Legs, c.Segments, c.Conditions,
		c.TripDuration, c.LegScore,
		c.CatalogRoutes, c.Workers,
	)

	c.CatalogRoutes.Set(float64(catalogRoutes))
	c.Workers.Set(float64(workers))

	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Health returns the liveness tracker served on /health.
func (c *Collector) Health() *Health { return c.health }

// Serve starts an HTTP server exposing /metrics and /health on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	mux.Handle("/health", c.health)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
