package pipeline

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// TripResult is the outcome of one trip in a batch. Err is set for trips
// rejected as invalid input; Itinerary is then empty.
type TripResult struct {
	TripID    string
	Itinerary itinerary.Itinerary
	Err       error
	Elapsed   time.Duration
}

// Run processes trips on at most workers goroutines (runtime.NumCPU() when
// workers <= 0). Results keep the input order. When ctx is cancelled no new
// trip starts, trips in flight are abandoned and only completed trips are
// returned together with the context error.
func (p *Pipeline) Run(ctx context.Context, trips []trajectory.RawTrip, workers int) ([]TripResult, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	slots := make([]*TripResult, len(trips))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, trip := range trips {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			started := time.Now()
			it, err := p.ProcessTrip(ctx, trip)
			if err != nil && ctx.Err() != nil {
				// aborted mid-trip; never emit partial work
				return nil
			}
			slots[i] = &TripResult{TripID: trip.TripID, Itinerary: it, Err: err, Elapsed: time.Since(started)}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]TripResult, 0, len(trips))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, ctx.Err()
}
