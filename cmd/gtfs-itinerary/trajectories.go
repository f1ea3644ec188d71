package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/trajectory"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/utils"
)

var errMissingColumn = errors.New("missing column")

// readTrajectoryFile reads a CSV with columns trip_id, timestamp, lat, lon
// and an optional route_id.
func readTrajectoryFile(path string) ([]trajectory.RawTrip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	trips, err := readTrajectories(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trips, nil
}

// readTrajectories groups rows by trip_id, keeping first-appearance order.
// Rows keep file order within a trip; trajectory.FromRaw orders them by time.
func readTrajectories(r io.Reader) ([]trajectory.RawTrip, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range []string{"trip_id", "timestamp", "lat", "lon"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s", errMissingColumn, name)
		}
	}
	routeCol, hasRoute := col["route_id"]

	get := func(rec []string, i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	index := map[string]int{}
	var trips []trajectory.RawTrip
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := get(rec, col["trip_id"])
		if id == "" {
			return nil, fmt.Errorf("line %d: empty trip_id", line)
		}
		ts, ok := utils.ParseTimestamp(get(rec, col["timestamp"]))
		if !ok {
			return nil, fmt.Errorf("line %d: bad timestamp %q", line, get(rec, col["timestamp"]))
		}
		lat, err := strconv.ParseFloat(get(rec, col["lat"]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(get(rec, col["lon"]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad lon: %w", line, err)
		}

		i, ok := index[id]
		if !ok {
			i = len(trips)
			index[id] = i
			trips = append(trips, trajectory.RawTrip{TripID: id})
		}
		trips[i].Points = append(trips[i].Points, trajectory.RawPoint{Time: ts, Lat: lat, Lon: lon})
		if hasRoute && trips[i].ObservedRouteID == "" {
			trips[i].ObservedRouteID = get(rec, routeCol)
		}
	}
	return trips, nil
}
