package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const (
	// EarthRadiusMeters is the mean earth radius.
	EarthRadiusMeters = 6371008.8
	// MetersPerDegree is the length of one degree of latitude.
	MetersPerDegree = EarthRadiusMeters * math.Pi / 180
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Planar returns the Euclidean distance between a and b in degrees.
func Planar(a, b Point) float64 {
	return math.Hypot(a.Lon-b.Lon, a.Lat-b.Lat)
}

// Meters returns the equirectangular distance between a and b in meters.
func Meters(a, b Point) float64 {
	lat := (a.Lat + b.Lat) / 2 * math.Pi / 180
	dx := (b.Lon - a.Lon) * math.Cos(lat) * MetersPerDegree
	dy := (b.Lat - a.Lat) * MetersPerDegree
	return math.Hypot(dx, dy)
}

// GeodesicMeters returns the great-circle distance between a and b in meters.
func GeodesicMeters(a, b Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians() * EarthRadiusMeters
}

// Lerp interpolates linearly between a and b; f=0 yields a, f=1 yields b.
func Lerp(a, b Point, f float64) Point {
	return Point{
		Lon: a.Lon + f*(b.Lon-a.Lon),
		Lat: a.Lat + f*(b.Lat-a.Lat),
	}
}

// Frame is a local tangent plane in meters centred on Origin.
type Frame struct {
	Origin Point
	cosLat float64
}

// NewFrame returns the equirectangular frame around origin.
func NewFrame(origin Point) Frame {
	return Frame{Origin: origin, cosLat: math.Cos(origin.Lat * math.Pi / 180)}
}

// ToXY projects p into the frame (x east, y north, meters).
func (f Frame) ToXY(p Point) (float64, float64) {
	x := (p.Lon - f.Origin.Lon) * f.cosLat * MetersPerDegree
	y := (p.Lat - f.Origin.Lat) * MetersPerDegree
	return x, y
}

// FromXY is the inverse of ToXY.
func (f Frame) FromXY(x, y float64) Point {
	lon := f.Origin.Lon
	if f.cosLat != 0 {
		lon += x / (f.cosLat * MetersPerDegree)
	}
	return Point{Lon: lon, Lat: f.Origin.Lat + y/MetersPerDegree}
}
