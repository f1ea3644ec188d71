package trajectory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

var (
	origin = geo.Point{Lon: 23.3219, Lat: 42.6977}
	t0     = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
)

// eastward returns n fixes every step moving east at speed m/s, with an
// optional north offset per index.
func eastward(n int, step time.Duration, speed float64, offset func(i int) float64) []Point {
	frame := geo.NewFrame(origin)
	pts := make([]Point, n)
	for i := range pts {
		dy := 0.0
		if offset != nil {
			dy = offset(i)
		}
		secs := float64(i) * step.Seconds()
		pts[i] = Point{Time: t0.Add(time.Duration(i) * step), Point: frame.FromXY(speed*secs, dy)}
	}
	return pts
}

func truthAt(t time.Time, speed float64) geo.Point {
	return geo.NewFrame(origin).FromXY(speed*t.Sub(t0).Seconds(), 0)
}

func TestRemoveOutliers(t *testing.T) {
	cfg := DefaultConfig()
	pts := eastward(6, 30*time.Second, 10, nil)

	spike := pts[2]
	spike.Time = pts[2].Time.Add(time.Second)
	spike.Point = geo.NewFrame(origin).FromXY(300, 8000)
	dup := pts[3]
	dup.Point = pts[4].Point

	in := []Point{pts[0], pts[1], pts[2], spike, pts[3], dup, pts[4], pts[5]}
	out := RemoveOutliers(in, cfg)
	assert.Equal(t, pts, out)

	t.Run("monotonic subset", func(t *testing.T) {
		for i := 1; i < len(out); i++ {
			assert.True(t, out[i].Time.After(out[i-1].Time))
		}
	})
	t.Run("idempotent", func(t *testing.T) {
		assert.Equal(t, out, RemoveOutliers(out, cfg))
	})
	t.Run("speed limit", func(t *testing.T) {
		fast := eastward(3, 10*time.Second, 60, nil)
		assert.Len(t, RemoveOutliers(fast, cfg), 1)
	})
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, RemoveOutliers(nil, cfg))
	})
}

func TestFromRawSkipsInvalidCoordinates(t *testing.T) {
	raw := []RawPoint{
		{Time: t0, Lat: 42.69, Lon: 23.32},
		{Time: t0.Add(time.Second), Lat: 95, Lon: 23.32},
		{Time: t0.Add(2 * time.Second), Lat: 42.69, Lon: 23.33},
	}
	pts := FromRaw(raw)
	require.Len(t, pts, 2)
	assert.InDelta(t, 23.33, pts[1].Lon, 1e-12)
}

func TestDensifyUniformGrid(t *testing.T) {
	pts := []Point{
		{Time: t0, Point: geo.Point{Lon: 0, Lat: 0}},
		{Time: t0.Add(40 * time.Second), Point: geo.Point{Lon: 0.004, Lat: 0}},
		{Time: t0.Add(100 * time.Second), Point: geo.Point{Lon: 0.010, Lat: 0}},
	}
	out, gaps := Densify(pts, 20*time.Second, 5*time.Minute)
	assert.Empty(t, gaps)
	require.Len(t, out, 6)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, 20*time.Second, out[i].Time.Sub(out[i-1].Time))
	}
	assert.InDelta(t, 0.002, out[1].Lon, 1e-12)
	assert.InDelta(t, 0.006, out[3].Lon, 1e-12)
	assert.InDelta(t, 0.010, out[5].Lon, 1e-12)
}

func TestDensifyRecordsGaps(t *testing.T) {
	first := eastward(4, 30*time.Second, 5, nil)
	second := eastward(4, 30*time.Second, 5, nil)
	for i := range second {
		second[i].Time = second[i].Time.Add(time.Hour)
	}
	out, gaps := Densify(append(first, second...), 30*time.Second, 5*time.Minute)
	require.Len(t, gaps, 1)
	require.Len(t, out, 8)

	g := gaps[0]
	assert.Equal(t, 3, g.After)
	assert.Equal(t, first[3].Time, g.From)
	assert.Equal(t, second[0].Time, g.To)
	assert.Equal(t, g.To, out[g.After+1].Time)

	for i := 1; i < len(out); i++ {
		if i == g.After+1 {
			continue
		}
		assert.Equal(t, 30*time.Second, out[i].Time.Sub(out[i-1].Time), "index %d", i)
	}
	for _, p := range out {
		inside := p.Time.After(g.From) && p.Time.Before(g.To)
		assert.False(t, inside, "sample synthesized inside gap at %s", p.Time)
	}
}

func TestSmoothStraightLine(t *testing.T) {
	cfg := DefaultConfig()
	const speed = 8.0

	t.Run("noiseless", func(t *testing.T) {
		pts := eastward(40, 30*time.Second, speed, nil)
		out := Smooth(pts, nil, cfg)
		require.Len(t, out, len(pts))
		for i, p := range out {
			assert.Equal(t, pts[i].Time, p.Time)
			assert.Less(t, geo.Meters(p.Point, truthAt(p.Time, speed)), 10.0, "index %d", i)
		}
	})

	t.Run("noisy", func(t *testing.T) {
		noise := func(i int) float64 {
			if i%2 == 0 {
				return 12
			}
			return -12
		}
		pts := eastward(40, 30*time.Second, speed, noise)
		out := Smooth(pts, nil, cfg)

		var rawErr, smoothErr float64
		for i, p := range out {
			truth := truthAt(p.Time, speed)
			e := geo.Meters(p.Point, truth)
			assert.Less(t, e, 25.0, "index %d", i)
			smoothErr += e
			rawErr += geo.Meters(pts[i].Point, truth)
		}
		assert.Less(t, smoothErr, rawErr)
	})

	t.Run("restarts at gaps", func(t *testing.T) {
		pts := eastward(6, 30*time.Second, speed, nil)
		// single-point runs on either side of a gap are left untouched
		out := Smooth(pts[:2], []Gap{{After: 0, From: pts[0].Time, To: pts[1].Time}}, cfg)
		assert.Equal(t, pts[:2], out)
	})
}

func TestPreprocess(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("empty trip", func(t *testing.T) {
		_, err := Preprocess(RawTrip{TripID: "t"}, cfg)
		assert.True(t, errors.Is(err, ErrEmptyTrajectory))
	})

	t.Run("single fix", func(t *testing.T) {
		_, err := Preprocess(RawTrip{TripID: "t", Points: []RawPoint{{Time: t0, Lat: 42.7, Lon: 23.3}}}, cfg)
		assert.True(t, errors.Is(err, ErrInsufficientData))
	})

	t.Run("invalid config", func(t *testing.T) {
		bad := cfg
		bad.Interval = 0
		_, err := Preprocess(RawTrip{TripID: "t", Points: []RawPoint{{Time: t0}}}, bad)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("uniform output", func(t *testing.T) {
		var raw []RawPoint
		for _, p := range eastward(20, 45*time.Second, 6, nil) {
			raw = append(raw, RawPoint{Time: p.Time, Lat: p.Lat, Lon: p.Lon})
		}
		traj, err := Preprocess(RawTrip{TripID: "t1", Points: raw}, cfg)
		require.NoError(t, err)
		assert.Equal(t, "t1", traj.TripID)
		assert.Equal(t, cfg.Interval, traj.Interval)
		assert.Empty(t, traj.Gaps)
		require.Len(t, traj.Points, 29)
		for i := 1; i < len(traj.Points); i++ {
			assert.Equal(t, cfg.Interval, traj.Points[i].Time.Sub(traj.Points[i-1].Time))
		}
	})

	t.Run("speed limit after smoothing", func(t *testing.T) {
		frame := geo.NewFrame(origin)
		var raw []RawPoint
		x := 0.0
		for i := 0; i < 30; i++ {
			if i >= 10 && i < 20 {
				x += 39 * 30
			}
			p := frame.FromXY(x, 0)
			raw = append(raw, RawPoint{Time: t0.Add(time.Duration(i) * 30 * time.Second), Lat: p.Lat, Lon: p.Lon})
		}
		traj, err := Preprocess(RawTrip{TripID: "burst", Points: raw}, cfg)
		require.NoError(t, err)
		for i := 1; i < len(traj.Points); i++ {
			a, b := traj.Points[i-1], traj.Points[i]
			speed := geo.GeodesicMeters(a.Point, b.Point) / b.Time.Sub(a.Time).Seconds()
			assert.LessOrEqual(t, speed, cfg.SpeedLimit, "step %d", i)
		}
	})

	t.Run("out of order input", func(t *testing.T) {
		var raw []RawPoint
		for _, p := range eastward(5, 30*time.Second, 6, nil) {
			raw = append(raw, RawPoint{Time: p.Time, Lat: p.Lat, Lon: p.Lon})
		}
		raw[0], raw[4] = raw[4], raw[0]
		traj, err := Preprocess(RawTrip{TripID: "shuffled", Points: raw}, cfg)
		require.NoError(t, err)
		require.Len(t, traj.Points, 5)
		assert.Equal(t, t0, traj.Points[0].Time)
	})
}

func TestFromRawOrdersByTime(t *testing.T) {
	raw := []RawPoint{
		{Time: t0.Add(5 * time.Minute), Lat: 42.70, Lon: 23.34},
		{Time: t0, Lat: 42.69, Lon: 23.32},
		{Time: t0.Add(time.Minute), Lat: 42.69, Lon: 23.33},
		{Time: t0.Add(time.Minute), Lat: 42.69, Lon: 23.335},
	}
	pts := FromRaw(raw)
	require.Len(t, pts, 4)
	assert.Equal(t, t0, pts[0].Time)
	assert.InDelta(t, 23.33, pts[1].Lon, 1e-12)
	assert.InDelta(t, 23.335, pts[2].Lon, 1e-12)
	assert.Equal(t, t0.Add(5*time.Minute), pts[3].Time)

	kept := RemoveOutliers(pts, DefaultConfig())
	assert.Len(t, kept, 3)
}
