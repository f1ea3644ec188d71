package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/config"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/internal/metrics"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/matcher"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/spatial"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/staypoint"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/stops"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// Pipeline matches trips against one catalog.
type Pipeline struct {
	catalog    *gtfs.Catalog
	index      *spatial.Index
	cfg        config.MatchingConfig
	conditions *ConditionAggregator
	metrics    *metrics.Collector
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMetrics records batch metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithConditionAggregator shares an aggregator between pipelines.
func WithConditionAggregator(a *ConditionAggregator) Option {
	return func(p *Pipeline) { p.conditions = a }
}

// New builds the spatial index for c. Zero fields of cfg take their defaults.
func New(c *gtfs.Catalog, cfg config.MatchingConfig, opts ...Option) *Pipeline {
	cfg = cfg.WithDefaults()
	p := &Pipeline{
		catalog:    c,
		index:      spatial.NewIndex(c, cfg.ShapeSpacing),
		cfg:        cfg,
		conditions: NewConditionAggregator(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Catalog returns the catalog the pipeline matches against.
func (p *Pipeline) Catalog() *gtfs.Catalog { return p.catalog }

// Config returns the effective matching configuration.
func (p *Pipeline) Config() config.MatchingConfig { return p.cfg }

// Conditions returns the aggregator fed by this pipeline.
func (p *Pipeline) Conditions() *ConditionAggregator { return p.conditions }

func (p *Pipeline) trajectoryConfig() trajectory.Config {
	return trajectory.Config{
		SpeedLimit:       p.cfg.SpeedLimit,
		DistanceLimit:    p.cfg.DistanceLimit,
		Interval:         p.cfg.ResampleInterval,
		MaxGap:           p.cfg.MaxGap,
		ProcessNoise:     p.cfg.KalmanProcessNoise,
		MeasurementNoise: p.cfg.KalmanMeasurementNoise,
	}
}

func (p *Pipeline) staypointConfig() staypoint.Config {
	return staypoint.Config{
		DistanceThreshold: p.cfg.StayDistanceThreshold,
		DurationThreshold: p.cfg.StayDurationThreshold,
		MinLegPoints:      p.cfg.MinLegPoints,
	}
}

func (p *Pipeline) matcherConfig() matcher.Config {
	return matcher.Config{Epsilon: p.cfg.LCSSEpsilon, MinScore: p.cfg.LCSSMinScore}
}

// ProcessTrip turns one raw trip into an itinerary. Errors are returned only
// for structurally invalid input (trajectory.ErrEmptyTrajectory,
// trajectory.ErrInsufficientData) or when ctx is cancelled.
func (p *Pipeline) ProcessTrip(ctx context.Context, trip trajectory.RawTrip) (itinerary.Itinerary, error) {
	started := time.Now()
	if p.metrics != nil {
		p.metrics.TripsInFlight.Inc()
		defer p.metrics.TripsInFlight.Dec()
	}

	traj, err := trajectory.Preprocess(trip, p.trajectoryConfig())
	if err != nil {
		p.recordFailure(trip.TripID, err)
		return itinerary.Itinerary{}, err
	}

	seg := staypoint.Split(traj, p.staypointConfig())
	for _, d := range seg.Degenerate {
		p.conditions.Add(itinerary.DegenerateLeg, fmt.Sprintf("%s@%d", trip.TripID, d.Start))
	}

	results := make([]itinerary.MatchResult, len(seg.Legs))
	g, gctx := errgroup.WithContext(ctx)
	for i, leg := range seg.Legs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.MatchLeg(leg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return itinerary.Itinerary{}, fmt.Errorf("trip %s: %w", trip.TripID, err)
	}

	it := itinerary.Itinerary{
		TripID:          trip.TripID,
		ObservedRouteID: trip.ObservedRouteID,
		Segments:        itinerary.Merge(results, itinerary.MergeConfig{StopBuffer: p.cfg.StopBuffer}),
		Stays:           seg.Stays,
		Results:         results,
		Degenerate:      len(seg.Degenerate),
	}
	p.record(it, time.Since(started))
	return it, nil
}

// MatchLeg selects a route for leg and resolves its stops. Legs without an
// acceptable route become walking.
func (p *Pipeline) MatchLeg(leg staypoint.TripLeg) itinerary.MatchResult {
	pts := trajectory.Locations(leg.Points)
	cands := p.index.Candidates(geo.BoundsOf(pts), p.cfg.CandidateBBoxBuffer)
	sel := matcher.Select(pts, cands, p.index, p.matcherConfig())
	if p.metrics != nil && len(sel.Scores) > 0 {
		p.metrics.LegScore.Observe(sel.Scores[0].Score)
	}
	if sel.Best == nil {
		best := 0.0
		if len(sel.Scores) > 0 {
			best = sel.Scores[0].Score
		}
		return walking(leg, sel.Reason, best)
	}

	// A catalog read from a cache skips builder validation, so a route may
	// have no resolvable stops; the next route above the threshold takes over.
	first, last := pts[0], pts[len(pts)-1]
	best := sel.Best
	res, err := stops.ResolveRoute(p.catalog, best.Route, first, last, p.cfg.StopBuffer)
	for k := 1; err != nil && k < len(sel.Scores) && sel.Scores[k].Score >= p.cfg.LCSSMinScore; k++ {
		log.Printf("route %s: %v, trying %s", best.Key, err, sel.Scores[k].Key)
		best = &sel.Scores[k]
		res, err = stops.ResolveRoute(p.catalog, best.Route, first, last, p.cfg.StopBuffer)
	}
	if err != nil {
		log.Printf("route %s: %v, no usable candidate left", best.Key, err)
		return walking(leg, itinerary.NoCandidateRoutes, sel.Best.Score)
	}
	if res.InOrder {
		return p.matched(leg, best.Route, best.Score, res, false)
	}

	if sib, ok := p.catalog.Sibling(best.Route); ok {
		score := matcher.ScoreRoute(pts, p.index.Shape(sib), p.cfg.LCSSEpsilon)
		if score >= p.cfg.LCSSMinScore {
			sres, err := stops.ResolveRoute(p.catalog, sib, first, last, p.cfg.StopBuffer)
			if err == nil && sres.InOrder {
				return p.matched(leg, sib, score, sres, true)
			}
		}
	}
	r := p.matched(leg, best.Route, best.Score, res, false)
	r.Conditions = append(r.Conditions, itinerary.DirectionAmbiguous)
	return r
}

func (p *Pipeline) matched(leg staypoint.TripLeg, route int, score float64, res stops.Resolution, reversed bool) itinerary.MatchResult {
	r := p.catalog.Route(route)
	return itinerary.MatchResult{
		Leg: leg,
		Outcome: itinerary.Matched{
			RouteIndex:    route,
			RouteKey:      r.Key,
			RouteID:       r.RouteID,
			RouteName:     r.DisplayName(),
			Score:         score,
			Boarding:      res.Boarding,
			Alighting:     res.Alighting,
			RouteGeometry: geo.SubLine(r.Shape, res.Boarding.Location, res.Alighting.Location),
			Reversed:      reversed,
		},
		Conditions: res.Conditions(),
	}
}

func walking(leg staypoint.TripLeg, reason itinerary.Condition, best float64) itinerary.MatchResult {
	return itinerary.MatchResult{
		Leg:        leg,
		Outcome:    itinerary.Walking{Reason: reason, BestScore: best},
		Conditions: []itinerary.Condition{reason},
	}
}

func (p *Pipeline) recordFailure(tripID string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, trajectory.ErrEmptyTrajectory):
		reason = "empty"
	case errors.Is(err, trajectory.ErrInsufficientData):
		reason = string(itinerary.InsufficientData)
		p.conditions.Add(itinerary.InsufficientData, tripID)
	}
	if p.metrics != nil {
		p.metrics.TripsFailed.WithLabelValues(reason).Inc()
	}
}

func (p *Pipeline) record(it itinerary.Itinerary, elapsed time.Duration) {
	for _, r := range it.Results {
		for _, c := range r.Conditions {
			p.conditions.Add(c, fmt.Sprintf("%s#%d", it.TripID, r.Leg.Index))
		}
	}
	if p.metrics == nil {
		return
	}
	p.metrics.TripsProcessed.Inc()
	p.metrics.Health().TripDone(time.Now())
	p.metrics.TripDuration.Observe(elapsed.Seconds())
	p.metrics.Legs.WithLabelValues("degenerate").Add(float64(it.Degenerate))
	for _, r := range it.Results {
		switch r.Outcome.(type) {
		case itinerary.Matched:
			p.metrics.Legs.WithLabelValues("matched").Inc()
		default:
			p.metrics.Legs.WithLabelValues("walking").Inc()
		}
		for _, c := range r.Conditions {
			p.metrics.Conditions.WithLabelValues(string(c)).Inc()
		}
	}
	if it.Degenerate > 0 {
		p.metrics.Conditions.WithLabelValues(string(itinerary.DegenerateLeg)).Add(float64(it.Degenerate))
	}
	for _, s := range it.Segments {
		p.metrics.Segments.WithLabelValues(string(s.Mode)).Inc()
	}
}
