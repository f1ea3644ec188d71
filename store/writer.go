package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/pipeline"
)

// ErrUnknownRun is returned when a run id does not exist.
var ErrUnknownRun = errors.New("store: unknown run")

// Run is one stored batch.
type Run struct {
	ID         string
	AgencyID   string
	StartedAt  time.Time
	FinishedAt time.Time
	Trips      int
	Failed     int
	Conditions map[itinerary.Condition]int
}

// SegmentRow is a stored segment.
type SegmentRow struct {
	TripID        string
	Seq           int
	Mode          itinerary.Mode
	RouteID       string
	RouteKey      string
	RouteName     string
	BoardingID    string
	AlightingID   string
	Start         time.Time
	End           time.Time
	LegCount      int
	LegIndices    []int
	LegGeometry   []geo.Point
	RouteGeometry []geo.Point
	Conditions    []itinerary.Condition
}

// CreateRun creates a new run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, agencyID string, startedAt time.Time) (string, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	runID := uuid.New().String()
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO runs (run_id, agency_id, started_at_utc) VALUES (?, ?, ?)",
		runID, agencyID, startedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return runID, nil
}

// WriteTrips stores trip results and their segments in one transaction.
func (db *DB) WriteTrips(ctx context.Context, runID string, results []pipeline.TripResult) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tripStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trips (run_id, trip_id, observed_route_id, error, segments, stays, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, trip_id) DO UPDATE SET
			observed_route_id = excluded.observed_route_id,
			error = excluded.error,
			segments = excluded.segments,
			stays = excluded.stays,
			elapsed_ms = excluded.elapsed_ms
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare trip statement: %w", err)
	}
	defer tripStmt.Close()

	segStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO segments (
			run_id, trip_id, seq, mode, route_id, route_key, route_name,
			boarding_stop_id, boarding_stop_name, alighting_stop_id, alighting_stop_name,
			start_utc, end_utc, leg_count, leg_indices, leg_geometry, route_geometry, conditions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare segment statement: %w", err)
	}
	defer segStmt.Close()

	for _, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		it := r.Itinerary
		if _, err := tripStmt.ExecContext(ctx, runID, r.TripID, it.ObservedRouteID, errText,
			len(it.Segments), len(it.Stays), r.Elapsed.Milliseconds()); err != nil {
			return fmt.Errorf("failed to insert trip %s: %w", r.TripID, err)
		}
		for seq, s := range it.Segments {
			legIdx, _ := json.Marshal(s.LegIndices)
			legGeom, _ := json.Marshal(lonLats(s.LegGeometry))
			routeGeom, _ := json.Marshal(lonLats(s.RouteGeometry))
			if _, err := segStmt.ExecContext(ctx, runID, r.TripID, seq, string(s.Mode),
				s.RouteID, s.RouteKey, s.RouteName,
				s.Boarding.ID, s.Boarding.Name, s.Alighting.ID, s.Alighting.Name,
				s.Start.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339),
				s.LegCount, string(legIdx), string(legGeom), string(routeGeom),
				joinConditions(s.Conditions),
			); err != nil {
				return fmt.Errorf("failed to insert segment %s/%d: %w", r.TripID, seq, err)
			}
		}
	}
	return tx.Commit()
}

// FinishRun records totals and condition counts for a run.
func (db *DB) FinishRun(ctx context.Context, runID string, finishedAt time.Time, conditions map[itinerary.Condition]int) error {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET
			finished_at_utc = ?,
			trips = (SELECT COUNT(*) FROM trips WHERE run_id = ?),
			failed = (SELECT COUNT(*) FROM trips WHERE run_id = ? AND error != '')
		WHERE run_id = ?`,
		finishedAt.UTC().Format(time.RFC3339), runID, runID, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	keys := make([]itinerary.Condition, 0, len(conditions))
	for c := range conditions {
		keys = append(keys, c)
	}
	itinerary.SortConditions(keys)
	for _, c := range keys {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO run_conditions (run_id, condition, count) VALUES (?, ?, ?)",
			runID, string(c), conditions[c]); err != nil {
			return fmt.Errorf("failed to record condition %s: %w", c, err)
		}
	}
	return tx.Commit()
}

// GetRun loads a run with its condition counts.
func (db *DB) GetRun(ctx context.Context, runID string) (Run, error) {
	var (
		r        Run
		started  string
		finished sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		"SELECT run_id, agency_id, started_at_utc, finished_at_utc, trips, failed FROM runs WHERE run_id = ?",
		runID).Scan(&r.ID, &r.AgencyID, &started, &finished, &r.Trips, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to read run: %w", err)
	}
	r.StartedAt, _ = time.Parse(time.RFC3339, started)
	if finished.Valid {
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished.String)
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT condition, count FROM run_conditions WHERE run_id = ?", runID)
	if err != nil {
		return Run{}, fmt.Errorf("failed to read conditions: %w", err)
	}
	defer rows.Close()
	r.Conditions = map[itinerary.Condition]int{}
	for rows.Next() {
		var c string
		var n int
		if err := rows.Scan(&c, &n); err != nil {
			return Run{}, err
		}
		r.Conditions[itinerary.Condition(c)] = n
	}
	return r, rows.Err()
}

// Segments returns the stored segments of one trip in order.
func (db *DB) Segments(ctx context.Context, runID, tripID string) ([]SegmentRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT trip_id, seq, mode, route_id, route_key, route_name, boarding_stop_id, alighting_stop_id,
			start_utc, end_utc, leg_count, leg_indices, leg_geometry, route_geometry, conditions
		FROM segments WHERE run_id = ? AND trip_id = ? ORDER BY seq`, runID, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var out []SegmentRow
	for rows.Next() {
		var (
			s                                 SegmentRow
			mode, start, end                  string
			legIdx, legGeom, routeGeom, conds string
		)
		if err := rows.Scan(&s.TripID, &s.Seq, &mode, &s.RouteID, &s.RouteKey, &s.RouteName,
			&s.BoardingID, &s.AlightingID, &start, &end, &s.LegCount,
			&legIdx, &legGeom, &routeGeom, &conds); err != nil {
			return nil, err
		}
		s.Mode = itinerary.Mode(mode)
		s.Start, _ = time.Parse(time.RFC3339, start)
		s.End, _ = time.Parse(time.RFC3339, end)
		if err := json.Unmarshal([]byte(legIdx), &s.LegIndices); err != nil {
			return nil, fmt.Errorf("segment %s/%d leg indices: %w", s.TripID, s.Seq, err)
		}
		if s.LegGeometry, err = parsePoints(legGeom); err != nil {
			return nil, err
		}
		if s.RouteGeometry, err = parsePoints(routeGeom); err != nil {
			return nil, err
		}
		s.Conditions = splitConditions(conds)
		out = append(out, s)
	}
	return out, rows.Err()
}

func lonLats(pts []geo.Point) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.Lon, p.Lat}
	}
	return out
}

func parsePoints(s string) ([]geo.Point, error) {
	var raw [][2]float64
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("bad geometry: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]geo.Point, len(raw))
	for i, p := range raw {
		out[i] = geo.Point{Lon: p[0], Lat: p[1]}
	}
	return out, nil
}

// joinConditions stores conditions comma-separated in pipeline stage order.
func joinConditions(cs []itinerary.Condition) string {
	sorted := append([]itinerary.Condition(nil), cs...)
	itinerary.SortConditions(sorted)
	parts := make([]string, len(sorted))
	for i, c := range sorted {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

func splitConditions(s string) []itinerary.Condition {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]itinerary.Condition, len(parts))
	for i, p := range parts {
		out[i] = itinerary.Condition(p)
	}
	return out
}
