package formatter

import (
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/utils"
)

// BuildDocument converts an itinerary into its output document.
func BuildDocument(it itinerary.Itinerary, agencyID string, generated time.Time) Document {
	doc := Document{
		TripID:          it.TripID,
		AgencyID:        agencyID,
		GeneratedAt:     utils.Iso8601(generated),
		ObservedRouteID: it.ObservedRouteID,
		Segments:        make([]SegmentDoc, 0, len(it.Segments)),
		Stays:           make([]StayDoc, 0, len(it.Stays)),
	}
	for _, s := range it.Segments {
		doc.Segments = append(doc.Segments, buildSegment(s))
	}
	for _, s := range it.Stays {
		doc.Stays = append(doc.Stays, StayDoc{
			Center:          lonLat(s.Center),
			Arrival:         utils.Iso8601(s.Arrival),
			Departure:       utils.Iso8601(s.Departure),
			DurationSeconds: int64(s.Duration().Seconds()),
		})
	}

	counts := map[string]int{}
	for _, r := range it.Results {
		for _, c := range r.Conditions {
			counts[string(c)]++
		}
	}
	if it.Degenerate > 0 {
		counts[string(itinerary.DegenerateLeg)] += it.Degenerate
	}
	if len(counts) > 0 {
		doc.Conditions = counts
	}
	return doc
}

func buildSegment(s itinerary.Segment) SegmentDoc {
	length := geo.LengthMeters(s.LegGeometry)
	d := SegmentDoc{
		Mode:            string(s.Mode),
		RouteID:         s.RouteID,
		RouteKey:        s.RouteKey,
		RouteName:       s.RouteName,
		Start:           utils.Iso8601(s.Start),
		End:             utils.Iso8601(s.End),
		DurationSeconds: int64(s.End.Sub(s.Start).Seconds()),
		DistanceMeters:  length,
		Distance:        utils.PresentableDistance(length),
		LegCount:        s.LegCount,
		LegIndices:      s.LegIndices,
		LegGeometry:     lonLats(s.LegGeometry),
	}
	if s.Mode == itinerary.ModeTransit {
		d.Boarding = stopDoc(s.Boarding)
		d.Alighting = stopDoc(s.Alighting)
		if n := s.Alighting.Sequence - s.Boarding.Sequence; n >= 0 {
			d.StopsPassed = utils.PresentableStops(n)
		}
		d.RouteGeometry = lonLats(s.RouteGeometry)
	}
	for _, c := range s.Conditions {
		d.Conditions = append(d.Conditions, string(c))
	}
	return d
}

func stopDoc(s itinerary.StopRef) *StopDoc {
	return &StopDoc{
		ID:          s.ID,
		Name:        s.Name,
		Location:    lonLat(s.Location),
		Sequence:    s.Sequence,
		Distance:    s.Distance,
		Approximate: s.Approximate,
	}
}

func lonLat(p geo.Point) [2]float64 { return [2]float64{p.Lon, p.Lat} }

func lonLats(pts []geo.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = lonLat(p)
	}
	return out
}

// FilterSegments keeps the segments matching mode, route and stop references.
// Empty references match everything; route and stop match by substring,
// case-insensitively.
func FilterSegments(doc Document, mode, routeRef, stopRef string) Document {
	mode = strings.ToLower(strings.TrimSpace(mode))
	routeRef = strings.ToLower(strings.TrimSpace(routeRef))
	stopRef = strings.ToLower(strings.TrimSpace(stopRef))

	filtered := doc
	filtered.Segments = []SegmentDoc{}
	for _, s := range doc.Segments {
		// Filter by mode
		if mode != "" && s.Mode != mode {
			continue
		}

		// Filter by route
		if routeRef != "" && !strings.Contains(strings.ToLower(s.RouteID), routeRef) &&
			!strings.Contains(strings.ToLower(s.RouteName), routeRef) {
			continue
		}

		// Filter by boarding or alighting stop
		if stopRef != "" {
			hasStop := false
			for _, st := range []*StopDoc{s.Boarding, s.Alighting} {
				if st != nil && strings.Contains(strings.ToLower(st.ID), stopRef) {
					hasStop = true
					break
				}
			}
			if !hasStop {
				continue
			}
		}

		filtered.Segments = append(filtered.Segments, s)
	}
	return filtered
}
