package itinerary

import (
	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// MergeConfig holds the continuity tolerance of the merger.
type MergeConfig struct {
	StopBuffer float64 // meters
}

// Merge folds leg results, in leg order, into segments. A matched result
// extends the open segment when it rides the same route and boards where the
// open segment alighted (same stop id, or within StopBuffer). Consecutive
// walking results merge when the open walk ends within StopBuffer of where
// the next one starts. Anything else closes the open segment.
func Merge(results []MatchResult, cfg MergeConfig) []Segment {
	segs := make([]Segment, 0, len(results))
	for _, r := range results {
		segs = append(segs, FromResult(r))
	}
	return MergeSegments(segs, cfg)
}

// MergeSegments applies the Merge rule to already built segments. The result
// is stable: merging it again changes nothing.
func MergeSegments(segs []Segment, cfg MergeConfig) []Segment {
	var out []Segment
	var open *Segment
	for i := range segs {
		next := segs[i]
		if open != nil && continues(open, &next, cfg) {
			extend(open, &next)
			continue
		}
		if open != nil {
			out = append(out, *open)
		}
		s := cloneSegment(next)
		open = &s
	}
	if open != nil {
		out = append(out, *open)
	}
	return out
}

// FromResult converts a single leg result into a one-leg segment.
func FromResult(r MatchResult) Segment {
	s := Segment{
		LegGeometry: trajectory.Locations(r.Leg.Points),
		LegCount:    1,
		LegIndices:  []int{r.Leg.Index},
		Conditions:  addConditions(nil, r.Conditions...),
	}
	if n := len(r.Leg.Points); n > 0 {
		s.Start = r.Leg.Points[0].Time
		s.End = r.Leg.Points[n-1].Time
	}
	switch o := r.Outcome.(type) {
	case Matched:
		s.Mode = ModeTransit
		s.RouteKey = o.RouteKey
		s.RouteID = o.RouteID
		s.RouteName = o.RouteName
		s.Boarding = o.Boarding
		s.Alighting = o.Alighting
		s.RouteGeometry = append([]geo.Point(nil), o.RouteGeometry...)
	case Walking:
		s.Mode = ModeWalking
		if o.Reason != "" {
			s.Conditions = addConditions(s.Conditions, o.Reason)
		}
	default:
		s.Mode = ModeWalking
	}
	return s
}

func continues(open, next *Segment, cfg MergeConfig) bool {
	if open.Mode != next.Mode {
		return false
	}
	switch open.Mode {
	case ModeTransit:
		if open.RouteKey != next.RouteKey {
			return false
		}
		if open.Alighting.ID == next.Boarding.ID {
			return true
		}
		return geo.Meters(open.Alighting.Location, next.Boarding.Location) <= cfg.StopBuffer
	default:
		if len(open.LegGeometry) == 0 || len(next.LegGeometry) == 0 {
			return false
		}
		end := open.LegGeometry[len(open.LegGeometry)-1]
		return geo.Meters(end, next.LegGeometry[0]) <= cfg.StopBuffer
	}
}

func extend(open, next *Segment) {
	open.LegGeometry = append(open.LegGeometry, next.LegGeometry...)
	open.RouteGeometry = append(open.RouteGeometry, next.RouteGeometry...)
	open.LegCount += next.LegCount
	open.LegIndices = append(open.LegIndices, next.LegIndices...)
	open.Conditions = addConditions(open.Conditions, next.Conditions...)
	if open.Mode == ModeTransit {
		open.Alighting = next.Alighting
	}
	if next.End.After(open.End) {
		open.End = next.End
	}
}

func cloneSegment(s Segment) Segment {
	s.LegGeometry = append([]geo.Point(nil), s.LegGeometry...)
	s.RouteGeometry = append([]geo.Point(nil), s.RouteGeometry...)
	s.LegIndices = append([]int(nil), s.LegIndices...)
	s.Conditions = append([]Condition(nil), s.Conditions...)
	return s
}
