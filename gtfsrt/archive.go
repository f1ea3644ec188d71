package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
)

// ErrNoFiles is returned when a pattern matches nothing.
var ErrNoFiles = errors.New("gtfsrt: no archive files")

// Archive accumulates vehicle positions from many feed snapshots.
//
// Thread safety: not safe for concurrent use.
type Archive struct {
	strategy  KeyStrategy
	positions map[string][]Position
	seen      map[string]map[int64]struct{} // key -> unix seconds already recorded
	skipped   int
}

// NewArchive creates an empty archive grouping by s (KeyTrip when empty).
func NewArchive(s KeyStrategy) *Archive {
	if s == "" {
		s = KeyTrip
	}
	return &Archive{
		strategy:  s,
		positions: map[string][]Position{},
		seen:      map[string]map[int64]struct{}{},
	}
}

// Add decodes one FeedMessage and records its vehicle positions. Entities
// without coordinates or grouping key are skipped. A position repeated with
// the same timestamp in a later snapshot is recorded once. Returns the number
// of positions added.
func (a *Archive) Add(data []byte) (int, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return 0, fmt.Errorf("decode feed message: %w", err)
	}
	var headerTS int64
	if fm.Header != nil && fm.Header.Timestamp != nil {
		headerTS = int64(*fm.Header.Timestamp)
	}

	added := 0
	for _, e := range fm.Entity {
		p, ok := positionFromEntity(e, headerTS)
		if !ok {
			a.skipped++
			continue
		}
		key := TripKey(p, a.strategy)
		if key == "" {
			a.skipped++
			continue
		}
		ts := p.Time.Unix()
		if a.seen[key] == nil {
			a.seen[key] = map[int64]struct{}{}
		}
		if _, dup := a.seen[key][ts]; dup {
			continue
		}
		a.seen[key][ts] = struct{}{}
		a.positions[key] = append(a.positions[key], p)
		added++
	}
	return added, nil
}

func positionFromEntity(e *gtfsrtpb.FeedEntity, headerTS int64) (Position, bool) {
	v := e.GetVehicle()
	if v == nil || v.GetPosition() == nil {
		return Position{}, false
	}
	pos := v.GetPosition()
	p := Position{
		TripID:    v.GetTrip().GetTripId(),
		StartDate: v.GetTrip().GetStartDate(),
		RouteID:   v.GetTrip().GetRouteId(),
		VehicleID: v.GetVehicle().GetId(),
		Lat:       float64(pos.GetLatitude()),
		Lon:       float64(pos.GetLongitude()),
	}
	ts := int64(v.GetTimestamp())
	if ts == 0 {
		ts = headerTS
	}
	if ts == 0 || (p.Lat == 0 && p.Lon == 0) {
		return Position{}, false
	}
	p.Time = time.Unix(ts, 0).UTC()
	return p, true
}

// Skipped returns how many entities were ignored.
func (a *Archive) Skipped() int { return a.skipped }

// Len returns the number of distinct trips.
func (a *Archive) Len() int { return len(a.positions) }

// Trips returns one raw trip per key, sorted by key, with positions in time
// order. ObservedRouteID is the most frequent route_id of the trip.
func (a *Archive) Trips() []trajectory.RawTrip {
	keys := make([]string, 0, len(a.positions))
	for k := range a.positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trips := make([]trajectory.RawTrip, 0, len(keys))
	for _, k := range keys {
		ps := append([]Position(nil), a.positions[k]...)
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Time.Before(ps[j].Time) })

		trip := trajectory.RawTrip{TripID: k, Points: make([]trajectory.RawPoint, len(ps))}
		routes := map[string]int{}
		for i, p := range ps {
			trip.Points[i] = trajectory.RawPoint{Time: p.Time, Lat: p.Lat, Lon: p.Lon}
			if p.RouteID != "" {
				routes[p.RouteID]++
			}
		}
		trip.ObservedRouteID = mostFrequent(routes)
		trips = append(trips, trip)
	}
	return trips
}

func mostFrequent(counts map[string]int) string {
	best, n := "", 0
	for k, c := range counts {
		if c > n || (c == n && k < best) {
			best, n = k, c
		}
	}
	return best
}

// LoadFiles adds every file matched by the glob patterns. Sources starting
// with http:// or https:// are fetched once with client.
func (a *Archive) LoadFiles(ctx context.Context, client *Client, patterns ...string) error {
	total := 0
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "http://") || strings.HasPrefix(pattern, "https://") {
			data, err := client.Fetch(ctx, pattern)
			if err != nil {
				return err
			}
			if _, err := a.Add(data); err != nil {
				return fmt.Errorf("%s: %w", pattern, err)
			}
			total++
			continue
		}
		files, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		sort.Strings(files)
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f)
			if err != nil {
				return err
			}
			if _, err := a.Add(data); err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			total++
		}
	}
	if total == 0 {
		return fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(patterns, ", "))
	}
	log.Printf("gtfsrt: loaded %d snapshots, %d trips, %d entities skipped", total, a.Len(), a.skipped)
	return nil
}
