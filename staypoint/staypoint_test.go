package staypoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

var (
	origin = geo.Point{Lon: 23.3219, Lat: 42.6977}
	t0     = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
)

// track builds a 30 s trajectory from per-sample east offsets in meters.
func track(east []float64) trajectory.Trajectory {
	frame := geo.NewFrame(origin)
	pts := make([]trajectory.Point, len(east))
	for i, x := range east {
		pts[i] = trajectory.Point{Time: t0.Add(time.Duration(i) * 30 * time.Second), Point: frame.FromXY(x, 0)}
	}
	return trajectory.Trajectory{TripID: "t", Points: pts, Interval: 30 * time.Second}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(from, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + step*float64(i+1)
	}
	return out
}

func cfg() Config {
	return Config{DistanceThreshold: 100, DurationThreshold: 3 * time.Minute, MinLegPoints: 2}
}

func assertPartition(t *testing.T, n int, seg Segmentation) {
	t.Helper()
	covered := make([]int, n)
	for _, s := range seg.Stays {
		for i := s.Start; i <= s.End; i++ {
			covered[i]++
		}
	}
	for _, l := range append(append([]TripLeg{}, seg.Legs...), seg.Degenerate...) {
		assert.Equal(t, l.End-l.Start+1, len(l.Points))
		for i := l.Start; i <= l.End; i++ {
			covered[i]++
		}
	}
	for i, c := range covered {
		assert.Equal(t, 1, c, "point %d covered %d times", i, c)
	}
}

func TestDetectAndSegment(t *testing.T) {
	// dwell 5 min, ride 2.4 km, dwell 5 min
	east := append(repeat(0, 11), ramp(0, 200, 12)...)
	east = append(east, repeat(2400, 11)...)
	traj := track(east)

	stays := Detect(traj.Points, cfg())
	require.Len(t, stays, 2)
	assert.Equal(t, 0, stays[0].Start)
	assert.Equal(t, 10, stays[0].End)
	assert.Equal(t, 5*time.Minute, stays[0].Duration())
	assert.Less(t, geo.Meters(stays[0].Center, origin), 1.0)

	t.Run("disjoint and ordered", func(t *testing.T) {
		for i := 1; i < len(stays); i++ {
			assert.Greater(t, stays[i].Start, stays[i-1].End)
			assert.True(t, stays[i].Arrival.After(stays[i-1].Departure))
		}
	})

	seg := Segment(traj, stays, 2)
	require.Len(t, seg.Legs, 1)
	assert.Empty(t, seg.Degenerate)
	leg := seg.Legs[0]
	assert.Equal(t, 0, leg.Index)
	assert.Equal(t, stays[0].End+1, leg.Start)
	assert.Equal(t, stays[1].Start-1, leg.End)
	assertPartition(t, len(traj.Points), seg)
}

func TestSegmentWithoutStays(t *testing.T) {
	traj := track(ramp(0, 150, 20))
	seg := Split(traj, cfg())
	assert.Empty(t, seg.Stays)
	require.Len(t, seg.Legs, 1)
	assert.Equal(t, 0, seg.Legs[0].Start)
	assert.Equal(t, 19, seg.Legs[0].End)
}

func TestShortDwellIsNotAStay(t *testing.T) {
	// two minutes at the same spot stays below the duration threshold
	east := append(ramp(-1500, 150, 9), repeat(0, 5)...)
	east = append(east, ramp(0, 150, 9)...)
	seg := Split(track(east), cfg())
	assert.Empty(t, seg.Stays)
	assert.Len(t, seg.Legs, 1)
}

func TestDegenerateLegs(t *testing.T) {
	// dwell, a single moving sample, dwell, then a proper leg
	east := append(repeat(0, 8), 1000)
	east = append(east, repeat(2000, 8)...)
	east = append(east, ramp(2000, 200, 6)...)
	traj := track(east)

	seg := Split(traj, cfg())
	require.Len(t, seg.Stays, 2)
	require.Len(t, seg.Degenerate, 1)
	assert.Equal(t, -1, seg.Degenerate[0].Index)
	assert.Equal(t, 8, seg.Degenerate[0].Start)
	require.Len(t, seg.Legs, 1)
	assert.Equal(t, 0, seg.Legs[0].Index)
	assertPartition(t, len(traj.Points), seg)
}

func TestEmptyTrajectory(t *testing.T) {
	seg := Split(trajectory.Trajectory{}, cfg())
	assert.Empty(t, seg.Stays)
	assert.Empty(t, seg.Legs)
	assert.Empty(t, seg.Degenerate)
}
