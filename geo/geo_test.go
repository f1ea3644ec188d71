package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistances(t *testing.T) {
	t.Parallel()

	a := Point{Lon: 0, Lat: 0}
	b := Point{Lon: 0, Lat: 1}

	assert.InDelta(t, MetersPerDegree, Meters(a, b), 1e-6)
	assert.InDelta(t, MetersPerDegree, GeodesicMeters(a, b), 1.0)
	assert.InDelta(t, 1.0, Planar(a, b), 1e-12)

	// Short urban distances agree to well under a meter.
	c := Point{Lon: 23.3219, Lat: 42.6977}
	d := Point{Lon: 23.3265, Lat: 42.6991}
	assert.InDelta(t, GeodesicMeters(c, d), Meters(c, d), 0.5)
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	f := NewFrame(Point{Lon: 2.17, Lat: 41.38})
	p := Point{Lon: 2.18, Lat: 41.39}
	x, y := f.ToXY(p)
	assert.Greater(t, x, 0.0)
	assert.Greater(t, y, 0.0)

	back := f.FromXY(x, y)
	assert.InDelta(t, p.Lon, back.Lon, 1e-12)
	assert.InDelta(t, p.Lat, back.Lat, 1e-12)
}

func TestBBox(t *testing.T) {
	t.Parallel()

	b := BoundsOf([]Point{{Lon: 1, Lat: 2}, {Lon: 3, Lat: 1}, {Lon: 2, Lat: 4}})
	assert.Equal(t, BBox{MinLon: 1, MinLat: 1, MaxLon: 3, MaxLat: 4}, b)
	assert.InDelta(t, 6.0, b.Area(), 1e-12)
	assert.True(t, b.Contains(Point{Lon: 2, Lat: 2}))
	assert.False(t, b.Contains(Point{Lon: 0, Lat: 2}))

	tests := []struct {
		name  string
		other BBox
		want  bool
	}{
		{"overlapping", BBox{MinLon: 2, MinLat: 3, MaxLon: 5, MaxLat: 5}, true},
		{"touching edge", BBox{MinLon: 3, MinLat: 1, MaxLon: 4, MaxLat: 2}, true},
		{"disjoint", BBox{MinLon: 3.1, MinLat: 1, MaxLon: 4, MaxLat: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Intersects(tt.other))
		})
	}

	grown := BBox{MinLon: 10, MinLat: 0, MaxLon: 10, MaxLat: 0}.ExpandMeters(MetersPerDegree)
	assert.InDelta(t, 9.0, grown.MinLon, 1e-9)
	assert.InDelta(t, -1.0, grown.MinLat, 1e-9)
	assert.Equal(t, BBox{}, BoundsOf(nil))
}

func TestNearestSegment(t *testing.T) {
	t.Parallel()

	line := []Point{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}}

	idx, tt, snap := NearestSegment(line, Point{Lon: 0.25, Lat: 0.1})
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 0.25, tt, 1e-12)
	assert.InDelta(t, 0.25, snap.Lon, 1e-12)
	assert.InDelta(t, 0.0, snap.Lat, 1e-12)

	idx, _, snap = NearestSegment(line, Point{Lon: 1.2, Lat: 0.6})
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0, snap.Lon, 1e-12)

	idx, _, _ = NearestSegment(line[:1], Point{})
	assert.Equal(t, -1, idx)
}

func TestDensify(t *testing.T) {
	t.Parallel()

	line := []Point{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}}
	out := Densify(line, 0.3)
	require.Len(t, out, 5)
	assert.Equal(t, line[0], out[0])
	assert.Equal(t, line[1], out[len(out)-1])
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, Planar(out[i-1], out[i]), 0.3+1e-12)
	}

	assert.Equal(t, line, Densify(line, 0))
}

func TestSubLine(t *testing.T) {
	t.Parallel()

	line := []Point{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 2, Lat: 0}, {Lon: 3, Lat: 0}}

	fwd := SubLine(line, Point{Lon: 0.5, Lat: 0.01}, Point{Lon: 2.5, Lat: -0.01})
	require.Len(t, fwd, 4)
	assert.InDelta(t, 0.5, fwd[0].Lon, 1e-12)
	assert.Equal(t, line[1], fwd[1])
	assert.Equal(t, line[2], fwd[2])
	assert.InDelta(t, 2.5, fwd[3].Lon, 1e-12)

	rev := SubLine(line, Point{Lon: 2.5, Lat: 0}, Point{Lon: 0.5, Lat: 0})
	require.Len(t, rev, 4)
	assert.InDelta(t, 2.5, rev[0].Lon, 1e-12)
	assert.InDelta(t, 0.5, rev[3].Lon, 1e-12)

	assert.InDelta(t, 2*MetersPerDegree, LengthMeters(fwd), 1e-6)
}
