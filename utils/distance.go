package utils

import (
	"fmt"
	"math"
)

const (
	MetersPerKilometer = 1000.0
	// walkingThresholdMeters is the distance below which meters are shown.
	walkingThresholdMeters = 950.0
)

// PresentableDistance formats a distance for display: whole meters below
// roughly one kilometer, kilometers with one decimal above.
func PresentableDistance(meters float64) string {
	if meters <= 0 {
		return "0 m"
	}
	if meters < walkingThresholdMeters {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/MetersPerKilometer)
}

// PresentableStops formats a count of stops passed.
func PresentableStops(n int) string {
	return fmt.Sprintf("%d stop%s", n, ternary(n == 1, "", "s"))
}

func ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
