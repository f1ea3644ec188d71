// Package staypoint finds places where a traveller dwelt and cuts the
// trajectory into the legs between them.
package staypoint

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// Config holds the dwell thresholds.
type Config struct {
	DistanceThreshold float64 // meters from the window's first point
	DurationThreshold time.Duration
	MinLegPoints      int
}

// StayPoint is a dwell over the inclusive point range [Start, End].
type StayPoint struct {
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Center    geo.Point `json:"center"`
	Arrival   time.Time `json:"arrival"`
	Departure time.Time `json:"departure"`
}

// Duration is the time spent at the stay.
func (s StayPoint) Duration() time.Duration { return s.Departure.Sub(s.Arrival) }

// TripLeg is a maximal run of movement between stays over the inclusive
// range [Start, End]. Index numbers matchable legs 0..N-1; degenerate legs
// carry Index -1.
type TripLeg struct {
	Index  int
	Start  int
	End    int
	Points []trajectory.Point
}

// Len returns the number of points in the leg.
func (l TripLeg) Len() int { return len(l.Points) }

// Segmentation is the result of Segment. Stays, Legs and Degenerate together
// cover every point of the trajectory exactly once.
type Segmentation struct {
	Stays      []StayPoint
	Legs       []TripLeg
	Degenerate []TripLeg
}

// Detect scans pts with a sliding window anchored at its first point. The
// window grows while every point lies within DistanceThreshold of the anchor;
// if it spans at least DurationThreshold it becomes a stay and scanning
// resumes after it, otherwise the anchor advances by one.
func Detect(pts []trajectory.Point, cfg Config) []StayPoint {
	var stays []StayPoint
	n := len(pts)
	for i := 0; i < n; {
		j := i + 1
		for j < n && geo.Meters(pts[i].Point, pts[j].Point) <= cfg.DistanceThreshold {
			j++
		}
		if pts[j-1].Time.Sub(pts[i].Time) >= cfg.DurationThreshold {
			stays = append(stays, newStay(pts, i, j-1))
			i = j
			continue
		}
		i++
	}
	return stays
}

func newStay(pts []trajectory.Point, start, end int) StayPoint {
	var lon, lat float64
	for _, p := range pts[start : end+1] {
		lon += p.Lon
		lat += p.Lat
	}
	k := float64(end - start + 1)
	return StayPoint{
		Start:     start,
		End:       end,
		Center:    geo.Point{Lon: lon / k, Lat: lat / k},
		Arrival:   pts[start].Time,
		Departure: pts[end].Time,
	}
}

// Segment splits traj into the legs strictly between consecutive stays, plus
// the leading and trailing runs. Legs shorter than minPoints are degenerate.
// stays must be disjoint and ordered, as returned by Detect.
func Segment(traj trajectory.Trajectory, stays []StayPoint, minPoints int) Segmentation {
	seg := Segmentation{Stays: stays}
	next := 0
	add := func(start, end int) {
		if end < start {
			return
		}
		leg := TripLeg{Index: -1, Start: start, End: end, Points: traj.Points[start : end+1]}
		if leg.Len() < minPoints {
			seg.Degenerate = append(seg.Degenerate, leg)
			return
		}
		leg.Index = next
		next++
		seg.Legs = append(seg.Legs, leg)
	}

	cursor := 0
	for _, s := range stays {
		add(cursor, s.Start-1)
		cursor = s.End + 1
	}
	add(cursor, len(traj.Points)-1)
	return seg
}

// Split runs Detect and Segment with cfg.
func Split(traj trajectory.Trajectory, cfg Config) Segmentation {
	return Segment(traj, Detect(traj.Points, cfg), cfg.MinLegPoints)
}
