package trajectory

import (
	"math"
	"sort"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

// FromRaw converts raw fixes, skipping non-finite or out-of-range coordinates,
// and orders them by time. Fixes sharing a timestamp keep their input order.
func FromRaw(raw []RawPoint) []Point {
	out := make([]Point, 0, len(raw))
	for _, r := range raw {
		if !validCoordinate(r.Lat, r.Lon) {
			continue
		}
		out = append(out, Point{Time: r.Time, Point: geo.Point{Lon: r.Lon, Lat: r.Lat}})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// RemoveOutliers keeps a fix only if, relative to the last retained fix, its
// timestamp is strictly later, the geodesic jump is within DistanceLimit and
// the implied speed is within SpeedLimit. The first fix is always retained.
// Applying it to its own output returns the same sequence.
func RemoveOutliers(points []Point, cfg Config) []Point {
	if len(points) == 0 {
		return nil
	}
	out := make([]Point, 0, len(points))
	out = append(out, points[0])
	for _, p := range points[1:] {
		last := out[len(out)-1]
		dt := p.Time.Sub(last.Time).Seconds()
		if dt <= 0 {
			continue
		}
		d := geo.GeodesicMeters(last.Point, p.Point)
		if cfg.DistanceLimit > 0 && d > cfg.DistanceLimit {
			continue
		}
		if cfg.SpeedLimit > 0 && d/dt > cfg.SpeedLimit {
			continue
		}
		out = append(out, p)
	}
	return out
}
