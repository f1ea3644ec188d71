// Package testfixtures provides a small synthetic transit network and point
// samplers shared by package tests. Coordinates are given in meters east and
// north of Origin.
//
//	route 10 (10:0 eastbound, 10:1 westbound)  y=0,      x -200..2700, stops S1..S6 every 500 m from x=0
//	route 20 (20)        northbound             x=1000,   y -1500..1500, stops T1..T4
//	route 30 (30)        eastbound              y=10000,  x 0..2000, stops F1 F2
package testfixtures

import (
	"fmt"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/gtfs"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// Origin is the fixture frame centre (central Sofia).
var Origin = geo.Point{Lon: 23.3219, Lat: 42.6977}

// Start is the default first timestamp of sampled trips.
var Start = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

var frame = geo.NewFrame(Origin)

// XY converts fixture meters to a WGS84 point.
func XY(x, y float64) geo.Point { return frame.FromXY(x, y) }

// Line returns n evenly spaced points from (x0,y0) to (x1,y1), both inclusive.
func Line(x0, y0, x1, y1 float64, n int) []geo.Point {
	if n == 1 {
		return []geo.Point{XY(x0, y0)}
	}
	out := make([]geo.Point, n)
	for i := range out {
		f := float64(i) / float64(n-1)
		out[i] = XY(x0+f*(x1-x0), y0+f*(y1-y0))
	}
	return out
}

// Dwell returns n copies of (x, y).
func Dwell(x, y float64, n int) []geo.Point {
	out := make([]geo.Point, n)
	for i := range out {
		out[i] = XY(x, y)
	}
	return out
}

// Concat joins point runs.
func Concat(runs ...[]geo.Point) []geo.Point {
	var out []geo.Point
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

// Timed stamps pts at start, start+step, ...
func Timed(pts []geo.Point, start time.Time, step time.Duration) []trajectory.Point {
	out := make([]trajectory.Point, len(pts))
	for i, p := range pts {
		out[i] = trajectory.Point{Time: start.Add(time.Duration(i) * step), Point: p}
	}
	return out
}

// Raw builds a raw trip from pts sampled every step from start.
func Raw(tripID string, pts []geo.Point, start time.Time, step time.Duration) trajectory.RawTrip {
	trip := trajectory.RawTrip{TripID: tripID, Points: make([]trajectory.RawPoint, len(pts))}
	for i, p := range pts {
		trip.Points[i] = trajectory.RawPoint{Time: start.Add(time.Duration(i) * step), Lat: p.Lat, Lon: p.Lon}
	}
	return trip
}

// Catalog returns the fixture network.
func Catalog() *gtfs.Catalog {
	b := gtfs.NewBuilder("fixture")
	for i := 0; i < 6; i++ {
		must(b.AddStop(gtfs.Stop{ID: fmt.Sprintf("S%d", i+1), Name: fmt.Sprintf("Main St %d", i+1), Location: XY(float64(i)*500, 0)}))
	}
	for i, y := range []float64{-1000, -300, 300, 1000} {
		must(b.AddStop(gtfs.Stop{ID: fmt.Sprintf("T%d", i+1), Name: fmt.Sprintf("Cross Ave %d", i+1), Location: XY(1000, y)}))
	}
	must(b.AddStop(gtfs.Stop{ID: "F1", Name: "Far West", Location: XY(0, 10000)}))
	must(b.AddStop(gtfs.Stop{ID: "F2", Name: "Far East", Location: XY(2000, 10000)}))

	east := []geo.Point{XY(-200, 0), XY(1000, 0), XY(2700, 0)}
	must(b.AddRoute(gtfs.Route{
		Key: "10:0", RouteID: "10", ShortName: "10", LongName: "Main Street", Type: 3, DirectionID: "0", ShapeID: "sh10e",
		Shape: east, StopIDs: []string{"S1", "S2", "S3", "S4", "S5", "S6"},
	}))
	must(b.AddRoute(gtfs.Route{
		Key: "10:1", RouteID: "10", ShortName: "10", LongName: "Main Street", Type: 3, DirectionID: "1", ShapeID: "sh10w",
		Shape: geo.Reverse(east), StopIDs: []string{"S6", "S5", "S4", "S3", "S2", "S1"},
	}))
	must(b.AddRoute(gtfs.Route{
		Key: "20", RouteID: "20", ShortName: "20", Type: 0, DirectionID: "0", ShapeID: "sh20",
		Shape: []geo.Point{XY(1000, -1500), XY(1000, 1500)}, StopIDs: []string{"T1", "T2", "T3", "T4"},
	}))
	must(b.AddRoute(gtfs.Route{
		Key: "30", RouteID: "30", ShortName: "30", Type: 3, DirectionID: "0", ShapeID: "sh30",
		Shape: []geo.Point{XY(0, 10000), XY(2000, 10000)}, StopIDs: []string{"F1", "F2"},
	}))
	return b.Build()
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
