package geo

import "math"

// NearestSegment finds the segment i (between pts[i] and pts[i+1]) closest to
// p in degree space. It returns the segment index, the clamped projection
// parameter t in [0,1] along that segment and the snapped point. For fewer
// than two points it returns -1.
func NearestSegment(pts []Point, p Point) (int, float64, Point) {
	bestIdx := -1
	bestT := 0.0
	var bestSnap Point
	bestDist2 := math.MaxFloat64
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		vx := b.Lon - a.Lon
		vy := b.Lat - a.Lat
		wx := p.Lon - a.Lon
		wy := p.Lat - a.Lat
		denom := vx*vx + vy*vy
		t := 0.0
		if denom > 0 {
			t = (wx*vx + wy*vy) / denom
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
		sx := a.Lon + t*vx
		sy := a.Lat + t*vy
		dx := p.Lon - sx
		dy := p.Lat - sy
		if d2 := dx*dx + dy*dy; d2 < bestDist2 {
			bestDist2 = d2
			bestIdx = i
			bestT = t
			bestSnap = Point{Lon: sx, Lat: sy}
		}
	}
	return bestIdx, bestT, bestSnap
}

// Densify inserts evenly spaced vertices so that no two consecutive vertices
// are more than maxStep degrees apart. The original vertices are kept.
func Densify(pts []Point, maxStep float64) []Point {
	if len(pts) < 2 || maxStep <= 0 {
		return append([]Point(nil), pts...)
	}
	out := make([]Point, 0, len(pts))
	out = append(out, pts[0])
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		n := int(math.Ceil(Planar(a, b) / maxStep))
		for k := 1; k < n; k++ {
			out = append(out, Lerp(a, b, float64(k)/float64(n)))
		}
		out = append(out, b)
	}
	return out
}

// SubLine returns the part of the polyline between the projections of from
// and to, in the from→to direction. When to projects before from the result
// runs against the polyline's vertex order.
func SubLine(pts []Point, from, to Point) []Point {
	if len(pts) < 2 {
		return append([]Point(nil), pts...)
	}
	ia, ta, sa := NearestSegment(pts, from)
	ib, tb, sb := NearestSegment(pts, to)
	posA := float64(ia) + ta
	posB := float64(ib) + tb
	if posA > posB {
		return Reverse(SubLine(pts, to, from))
	}
	out := []Point{sa}
	for k := ia + 1; k <= ib; k++ {
		if float64(k) > posA && float64(k) < posB {
			out = append(out, pts[k])
		}
	}
	return append(out, sb)
}

// Reverse returns a reversed copy of pts.
func Reverse(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// LengthMeters sums the equirectangular length of the polyline.
func LengthMeters(pts []Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += Meters(pts[i-1], pts[i])
	}
	return total
}
