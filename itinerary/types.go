package itinerary

import (
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/staypoint"
)

// Condition is a recoverable modeling outcome attached to a result.
type Condition string

const (
	InsufficientData          Condition = "insufficient_data"
	DegenerateLeg             Condition = "degenerate_leg"
	NoCandidateRoutes         Condition = "no_candidate_routes"
	BelowSimilarityThreshold  Condition = "below_similarity_threshold"
	ApproximateStopResolution Condition = "approximate_stop_resolution"
	DirectionAmbiguous        Condition = "direction_ambiguous"
)

// AllConditions lists every condition in pipeline stage order.
var AllConditions = []Condition{
	InsufficientData, DegenerateLeg, NoCandidateRoutes,
	BelowSimilarityThreshold, ApproximateStopResolution, DirectionAmbiguous,
}

// SortConditions orders cs in place by AllConditions. Unknown values go last,
// alphabetically.
func SortConditions(cs []Condition) {
	rank := func(c Condition) int {
		for i, k := range AllConditions {
			if k == c {
				return i
			}
		}
		return len(AllConditions)
	}
	sort.SliceStable(cs, func(i, j int) bool {
		ri, rj := rank(cs[i]), rank(cs[j])
		if ri != rj {
			return ri < rj
		}
		return cs[i] < cs[j]
	})
}

// Mode is the travel mode of a segment.
type Mode string

const (
	ModeTransit Mode = "transit"
	ModeWalking Mode = "walking"
)

// StopRef identifies a resolved stop. Sequence is the position in the
// route's stop list. Approximate is set when no stop lay within the buffer.
type StopRef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    geo.Point `json:"location"`
	Sequence    int       `json:"sequence"`
	Distance    float64   `json:"distance_m"`
	Approximate bool      `json:"approximate,omitempty"`
}

// Outcome is implemented by Matched and Walking only.
type Outcome interface {
	isOutcome()
}

// Matched is a leg ridden on a catalog route.
type Matched struct {
	RouteIndex    int
	RouteKey      string
	RouteID       string
	RouteName     string
	Score         float64
	Boarding      StopRef
	Alighting     StopRef
	RouteGeometry []geo.Point
	// Reversed is set when the opposite-direction variant replaced the first pick.
	Reversed bool
}

// Walking is a leg no route explained.
type Walking struct {
	Reason    Condition
	BestScore float64
}

func (Matched) isOutcome() {}
func (Walking) isOutcome() {}

// MatchResult is the outcome for one leg.
type MatchResult struct {
	Leg        staypoint.TripLeg
	Outcome    Outcome
	Conditions []Condition
}

// Segment is one itinerary entry covering one or more consecutive legs.
// Route fields, stops and RouteGeometry are empty for walking segments.
type Segment struct {
	Mode          Mode
	RouteKey      string
	RouteID       string
	RouteName     string
	Boarding      StopRef
	Alighting     StopRef
	LegGeometry   []geo.Point
	RouteGeometry []geo.Point
	LegCount      int
	LegIndices    []int
	Start         time.Time
	End           time.Time
	Conditions    []Condition
}

// Itinerary is the full result for one trip.
type Itinerary struct {
	TripID          string
	ObservedRouteID string
	Segments        []Segment
	Stays           []staypoint.StayPoint
	Results         []MatchResult
	// Degenerate counts legs too short to match.
	Degenerate int
}

// HasCondition reports whether c is among conds.
func HasCondition(conds []Condition, c Condition) bool {
	for _, x := range conds {
		if x == c {
			return true
		}
	}
	return false
}

func addConditions(dst []Condition, src ...Condition) []Condition {
	for _, c := range src {
		if !HasCondition(dst, c) {
			dst = append(dst, c)
		}
	}
	return dst
}
