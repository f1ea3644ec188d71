package geo

import "math"

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// BoundsOf returns the bounding box of pts. The zero BBox is returned for an
// empty slice.
func BoundsOf(pts []Point) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	b := BBox{MinLon: pts[0].Lon, MinLat: pts[0].Lat, MaxLon: pts[0].Lon, MaxLat: pts[0].Lat}
	for _, p := range pts[1:] {
		b.MinLon = math.Min(b.MinLon, p.Lon)
		b.MinLat = math.Min(b.MinLat, p.Lat)
		b.MaxLon = math.Max(b.MaxLon, p.Lon)
		b.MaxLat = math.Max(b.MaxLat, p.Lat)
	}
	return b
}

// Expand grows the box by d degrees on every side.
func (b BBox) Expand(d float64) BBox {
	return BBox{MinLon: b.MinLon - d, MinLat: b.MinLat - d, MaxLon: b.MaxLon + d, MaxLat: b.MaxLat + d}
}

// ExpandMeters grows the box by m meters on every side, converting with the
// box's mid latitude.
func (b BBox) ExpandMeters(m float64) BBox {
	if m <= 0 {
		return b
	}
	dLat := m / MetersPerDegree
	cosLat := math.Cos((b.MinLat + b.MaxLat) / 2 * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLon := m / (MetersPerDegree * cosLat)
	return BBox{MinLon: b.MinLon - dLon, MinLat: b.MinLat - dLat, MaxLon: b.MaxLon + dLon, MaxLat: b.MaxLat + dLat}
}

// Intersects reports whether the boxes overlap or touch.
func (b BBox) Intersects(o BBox) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Contains reports whether p lies inside the box (inclusive).
func (b BBox) Contains(p Point) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon && p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// Area returns the box area in square degrees.
func (b BBox) Area() float64 {
	return (b.MaxLon - b.MinLon) * (b.MaxLat - b.MinLat)
}

// Min returns the lower corner as [lon, lat].
func (b BBox) Min() [2]float64 { return [2]float64{b.MinLon, b.MinLat} }

// Max returns the upper corner as [lon, lat].
func (b BBox) Max() [2]float64 { return [2]float64{b.MaxLon, b.MaxLat} }
