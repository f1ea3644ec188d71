package matcher

import (
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
)

// Config holds the similarity parameters.
type Config struct {
	Epsilon  float64 // degrees
	MinScore float64
}

// Routes is the read-only route source the matcher scores against;
// *spatial.Index implements it.
type Routes interface {
	Shape(i int) []geo.Point
	Catalog() *gtfs.Catalog
}

// Candidate is one scored route.
type Candidate struct {
	Route int
	Key   string
	Score float64
	Area  float64
}

// Selection is the ranked outcome of Select. Best is nil when no route is
// acceptable, and Reason tells why.
type Selection struct {
	Best   *Candidate
	Scores []Candidate
	Reason itinerary.Condition
}

// Select scores leg against every candidate route. Candidates are ranked by
// score, then smaller bounding box area, then route key; the first one wins
// if it reaches cfg.MinScore.
func Select(leg []geo.Point, candidates []int, routes Routes, cfg Config) Selection {
	if len(candidates) == 0 {
		return Selection{Reason: itinerary.NoCandidateRoutes}
	}
	legBox := geo.BoundsOf(leg)
	cat := routes.Catalog()

	scores := make([]Candidate, 0, len(candidates))
	for _, i := range candidates {
		r := cat.Route(i)
		shape := routes.Shape(i)
		scores = append(scores, Candidate{
			Route: i,
			Key:   r.Key,
			Score: scoreRoute(leg, legBox, shape, cfg.Epsilon),
			Area:  r.BBox.Area(),
		})
	}
	sort.SliceStable(scores, func(a, b int) bool {
		x, y := scores[a], scores[b]
		if x.Score != y.Score {
			return x.Score > y.Score
		}
		if x.Area != y.Area {
			return x.Area < y.Area
		}
		return x.Key < y.Key
	})

	sel := Selection{Scores: scores}
	if scores[0].Score >= cfg.MinScore && scores[0].Score > 0 {
		sel.Best = &sel.Scores[0]
		return sel
	}
	sel.Reason = itinerary.BelowSimilarityThreshold
	return sel
}

// ScoreRoute scores leg against a single route shape.
func ScoreRoute(leg, shape []geo.Point, eps float64) float64 {
	return scoreRoute(leg, geo.BoundsOf(leg), shape, eps)
}

func scoreRoute(leg []geo.Point, legBox geo.BBox, shape []geo.Point, eps float64) float64 {
	n := min(len(leg), len(shape))
	if n == 0 {
		return 0
	}
	return float64(LCSS(leg, prune(shape, legBox, eps), eps)) / float64(n)
}
