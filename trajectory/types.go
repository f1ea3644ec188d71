package trajectory

import (
	"errors"
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

var (
	// ErrEmptyTrajectory is returned for a trip without any fix.
	ErrEmptyTrajectory = errors.New("empty trajectory")
	// ErrInsufficientData is returned when fewer than two fixes survive outlier removal.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidConfig is returned for non-positive sampling parameters.
	ErrInvalidConfig = errors.New("invalid preprocessing config")
)

// RawPoint is one GPS fix as received.
type RawPoint struct {
	Time time.Time
	Lat  float64
	Lon  float64
}

// RawTrip is the unprocessed input for one trip.
// ObservedRouteID is optional and only set by labelled sources such as GTFS-RT archives.
type RawTrip struct {
	TripID          string
	Points          []RawPoint
	ObservedRouteID string
}

// Point is a timestamped location.
type Point struct {
	Time time.Time `json:"time"`
	geo.Point
}

// Gap marks a discontinuity after Points[After]; no samples exist between From and To.
type Gap struct {
	After int       `json:"after"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// Trajectory is a smoothed trip. Consecutive timestamps differ by exactly
// Interval except across a recorded Gap.
type Trajectory struct {
	TripID   string
	Points   []Point
	Gaps     []Gap
	Interval time.Duration
}

// Locations returns the bare coordinates of pts.
func Locations(pts []Point) []geo.Point {
	out := make([]geo.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Point
	}
	return out
}

// Config holds the preprocessing thresholds.
type Config struct {
	SpeedLimit       float64 // m/s
	DistanceLimit    float64 // m
	Interval         time.Duration
	MaxGap           time.Duration
	ProcessNoise     float64 // m^2/s^3, white-acceleration spectral density
	MeasurementNoise float64 // m, GPS standard deviation
}

// DefaultConfig returns thresholds for urban GPS at ~2 fixes per minute.
func DefaultConfig() Config {
	return Config{
		SpeedLimit:       40,
		DistanceLimit:    5000,
		Interval:         30 * time.Second,
		MaxGap:           5 * time.Minute,
		ProcessNoise:     0.5,
		MeasurementNoise: 15,
	}
}
