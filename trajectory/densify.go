package trajectory

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

// Densify resamples points onto a uniform grid by linear interpolation.
// The grid starts at the first fix and restarts at the first fix after every
// gap longer than maxGap; nothing is synthesized inside a gap. Input
// timestamps must be strictly increasing (see RemoveOutliers).
func Densify(points []Point, interval, maxGap time.Duration) ([]Point, []Gap) {
	if len(points) == 0 || interval <= 0 {
		return nil, nil
	}
	var out []Point
	var gaps []Gap

	runStart := 0
	for i := 1; i <= len(points); i++ {
		if i < len(points) && points[i].Time.Sub(points[i-1].Time) <= maxGap {
			continue
		}
		out = resampleRun(out, points[runStart:i], interval)
		if i < len(points) {
			gaps = append(gaps, Gap{
				After: len(out) - 1,
				From:  out[len(out)-1].Time,
				To:    points[i].Time,
			})
		}
		runStart = i
	}
	return out, gaps
}

// resampleRun appends grid samples for a gap-free run.
func resampleRun(out []Point, run []Point, interval time.Duration) []Point {
	t0 := run[0].Time
	end := run[len(run)-1].Time
	seg := 0
	for k := 0; ; k++ {
		t := t0.Add(time.Duration(k) * interval)
		if t.After(end) {
			break
		}
		for seg < len(run)-2 && run[seg+1].Time.Before(t) {
			seg++
		}
		if len(run) == 1 {
			out = append(out, Point{Time: t, Point: run[0].Point})
			break
		}
		a, b := run[seg], run[seg+1]
		span := b.Time.Sub(a.Time)
		f := 0.0
		if span > 0 {
			f = float64(t.Sub(a.Time)) / float64(span)
		}
		out = append(out, Point{Time: t, Point: geo.Lerp(a.Point, b.Point, f)})
	}
	return out
}
