// Package matcher scores trip legs against route shapes with the longest
// common subsequence (LCSS) measure and picks the best route.
package matcher

import "github.com/theoremus-urban-solutions/gtfs-itinerary/geo"

// LCSS returns the length of the longest common subsequence of a and b where
// two points match when their planar distance is below eps degrees.
// Memory is O(min(len(a), len(b))).
func LCSS(a, b []geo.Point, eps float64) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case geo.Planar(a[i-1], b[j-1]) < eps:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Score normalizes LCSS by the shorter sequence, giving a value in [0, 1].
// Empty input scores 0.
func Score(a, b []geo.Point, eps float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	return float64(LCSS(a, b, eps)) / float64(n)
}

// prune drops route points that cannot match any leg point: those outside the
// leg's bounding box grown by eps. The LCSS is unaffected.
func prune(route []geo.Point, leg geo.BBox, eps float64) []geo.Point {
	box := leg.Expand(eps)
	out := make([]geo.Point, 0, len(route))
	for _, p := range route {
		if box.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
