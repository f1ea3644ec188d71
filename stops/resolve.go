// Package stops maps the endpoints of a matched leg to the boarding and
// alighting stops of the matched route.
package stops

import (
	"errors"
	"math"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
)

// ErrNoStops is returned for a route without resolvable stops.
var ErrNoStops = errors.New("stops: route has no stops")

// Resolution holds the stops bracketing a leg on one route.
type Resolution struct {
	Boarding  itinerary.StopRef
	Alighting itinerary.StopRef
	// InOrder is false when the boarding stop comes after the alighting stop
	// in the route's stop sequence.
	InOrder bool
}

// Approximate reports whether either stop lay outside the buffer.
func (r Resolution) Approximate() bool {
	return r.Boarding.Approximate || r.Alighting.Approximate
}

// Conditions returns the conditions implied by the resolution.
func (r Resolution) Conditions() []itinerary.Condition {
	if r.Approximate() {
		return []itinerary.Condition{itinerary.ApproximateStopResolution}
	}
	return nil
}

// Resolve picks, for the leg's first and last points, the nearest stop of the
// ordered sequence seq within bufferMeters. Without any stop in the buffer the
// nearest stop overall is used and flagged Approximate. When several stops
// qualify for alighting (loop routes), those after the boarding stop are
// preferred.
func Resolve(seq []gtfs.Stop, first, last geo.Point, bufferMeters float64) (Resolution, error) {
	if len(seq) == 0 {
		return Resolution{}, ErrNoStops
	}
	board := nearest(seq, first, bufferMeters, 0)
	alight := nearest(seq, last, bufferMeters, board.Sequence)
	if alight.Approximate || alight.Sequence < board.Sequence {
		// fall back to the unconstrained nearest
		alight = nearest(seq, last, bufferMeters, 0)
	}
	return Resolution{
		Boarding:  board,
		Alighting: alight,
		InOrder:   board.Sequence <= alight.Sequence,
	}, nil
}

// ResolveRoute resolves against route i of c.
func ResolveRoute(c *gtfs.Catalog, i int, first, last geo.Point, bufferMeters float64) (Resolution, error) {
	return Resolve(c.RouteStops(i), first, last, bufferMeters)
}

// nearest returns the closest stop at sequence >= from that lies within
// buffer, or the closest stop of the whole sequence flagged Approximate.
// Ties go to the lower sequence.
func nearest(seq []gtfs.Stop, p geo.Point, buffer float64, from int) itinerary.StopRef {
	bestIn, bestAll := -1, 0
	dIn, dAll := math.Inf(1), math.Inf(1)
	for k, s := range seq {
		d := geo.Meters(p, s.Location)
		if d < dAll {
			bestAll, dAll = k, d
		}
		if k >= from && d <= buffer && d < dIn {
			bestIn, dIn = k, d
		}
	}
	if bestIn >= 0 {
		return ref(seq[bestIn], bestIn, dIn, false)
	}
	return ref(seq[bestAll], bestAll, dAll, dAll > buffer)
}

func ref(s gtfs.Stop, seq int, d float64, approx bool) itinerary.StopRef {
	return itinerary.StopRef{
		ID:          s.ID,
		Name:        s.Name,
		Location:    s.Location,
		Sequence:    seq,
		Distance:    d,
		Approximate: approx,
	}
}
