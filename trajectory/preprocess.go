package trajectory

import "fmt"

// Preprocess cleans, resamples and smooths one trip.
func Preprocess(trip RawTrip, cfg Config) (Trajectory, error) {
	if len(trip.Points) == 0 {
		return Trajectory{}, fmt.Errorf("trip %s: %w", trip.TripID, ErrEmptyTrajectory)
	}
	if cfg.Interval <= 0 || cfg.MaxGap < cfg.Interval {
		return Trajectory{}, fmt.Errorf("interval %s, max gap %s: %w", cfg.Interval, cfg.MaxGap, ErrInvalidConfig)
	}

	clean := RemoveOutliers(FromRaw(trip.Points), cfg)
	if len(clean) < 2 {
		return Trajectory{}, fmt.Errorf("trip %s: %d usable fixes: %w", trip.TripID, len(clean), ErrInsufficientData)
	}

	grid, gaps := Densify(clean, cfg.Interval, cfg.MaxGap)
	return Trajectory{
		TripID:   trip.TripID,
		Points:   Smooth(grid, gaps, cfg),
		Gaps:     gaps,
		Interval: cfg.Interval,
	}, nil
}
