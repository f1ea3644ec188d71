package formatter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
	tf "github.com/theoremus-urban-solutions/gtfs-itinerary/internal/testfixtures"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/itinerary"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/staypoint"
)

func sampleItinerary() itinerary.Itinerary {
	start := tf.Start
	return itinerary.Itinerary{
		TripID:          "trip-1",
		ObservedRouteID: "10",
		Stays: []staypoint.StayPoint{
			{Start: 0, End: 10, Center: tf.XY(500, 0), Arrival: start, Departure: start.Add(5 * time.Minute)},
		},
		Segments: []itinerary.Segment{
			{
				Mode:      itinerary.ModeTransit,
				RouteKey:  "10:0",
				RouteID:   "10",
				RouteName: "10",
				Boarding:  itinerary.StopRef{ID: "S2", Name: "Main St 2", Location: tf.XY(500, 0), Sequence: 1},
				Alighting: itinerary.StopRef{ID: "S5", Name: "Main St 5 & <Park>", Location: tf.XY(2000, 0), Sequence: 4, Approximate: true},
				LegGeometry: []geo.Point{
					tf.XY(700, 0), tf.XY(1900, 0),
				},
				RouteGeometry: []geo.Point{tf.XY(500, 0), tf.XY(2000, 0)},
				LegCount:      1,
				LegIndices:    []int{0},
				Start:         start.Add(5 * time.Minute),
				End:           start.Add(8 * time.Minute),
				Conditions:    []itinerary.Condition{itinerary.ApproximateStopResolution},
			},
			{
				Mode:        itinerary.ModeWalking,
				LegGeometry: tf.Line(2000, 50, 2000, 400, 3),
				LegCount:    1,
				LegIndices:  []int{1},
				Start:       start.Add(15 * time.Minute),
				End:         start.Add(20 * time.Minute),
				Conditions:  []itinerary.Condition{itinerary.NoCandidateRoutes},
			},
		},
		Results: []itinerary.MatchResult{
			{Conditions: []itinerary.Condition{itinerary.ApproximateStopResolution}},
			{Conditions: []itinerary.Condition{itinerary.NoCandidateRoutes}},
		},
		Degenerate: 1,
	}
}

func TestBuildDocument(t *testing.T) {
	generated := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	doc := BuildDocument(sampleItinerary(), "fixture", generated)

	assert.Equal(t, "trip-1", doc.TripID)
	assert.Equal(t, "2024-03-05T00:00:00Z", doc.GeneratedAt)
	require.Len(t, doc.Segments, 2)
	require.Len(t, doc.Stays, 1)
	assert.Equal(t, int64(300), doc.Stays[0].DurationSeconds)

	ride := doc.Segments[0]
	assert.Equal(t, "transit", ride.Mode)
	require.NotNil(t, ride.Boarding)
	assert.Equal(t, "S2", ride.Boarding.ID)
	assert.True(t, ride.Alighting.Approximate)
	assert.Equal(t, "3 stops", ride.StopsPassed)
	assert.Equal(t, int64(180), ride.DurationSeconds)
	assert.Equal(t, "1.2 km", ride.Distance)
	assert.Len(t, ride.RouteGeometry, 2)

	walk := doc.Segments[1]
	assert.Equal(t, "walking", walk.Mode)
	assert.Nil(t, walk.Boarding)
	assert.Empty(t, walk.RouteGeometry)
	assert.Equal(t, []string{"no_candidate_routes"}, walk.Conditions)

	assert.Equal(t, map[string]int{
		"approximate_stop_resolution": 1,
		"no_candidate_routes":         1,
		"degenerate_leg":              1,
	}, doc.Conditions)
}

func TestBuildJSON(t *testing.T) {
	rb := NewResponseBuilder()
	out, err := rb.BuildJSON(BuildDocument(sampleItinerary(), "fixture", tf.Start))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	segs := decoded["segments"].([]any)
	require.Len(t, segs, 2)
	walk := segs[1].(map[string]any)
	_, hasRoute := walk["route_id"]
	assert.False(t, hasRoute)
	_, hasBoarding := walk["boarding"]
	assert.False(t, hasBoarding)
}

func TestWriteBatchJSON(t *testing.T) {
	var buf bytes.Buffer
	b := Batch{
		GeneratedAt: "2024-03-05T00:00:00Z",
		RunID:       "run-1",
		Trips:       []Document{BuildDocument(sampleItinerary(), "fixture", tf.Start)},
		Failed:      []FailedTrip{{TripID: "x", Error: "empty trajectory"}},
	}
	require.NoError(t, NewResponseBuilder().WriteBatchJSON(&buf, b))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)
	assert.Contains(t, buf.String(), `"error": "empty trajectory"`)
}

func TestFilterSegments(t *testing.T) {
	doc := BuildDocument(sampleItinerary(), "fixture", tf.Start)

	assert.Len(t, FilterSegments(doc, "", "", "").Segments, 2)
	assert.Len(t, FilterSegments(doc, "Walking", "", "").Segments, 1)
	assert.Len(t, FilterSegments(doc, "", "10", "").Segments, 1)
	assert.Len(t, FilterSegments(doc, "", "", "s5").Segments, 1)
	assert.Empty(t, FilterSegments(doc, "transit", "20", "").Segments)
	assert.Len(t, doc.Segments, 2, "input left untouched")
}

func TestBuildGPX(t *testing.T) {
	doc := BuildDocument(sampleItinerary(), "fixture", tf.Start)
	out := string(NewResponseBuilder().BuildGPX([]Document{doc}))

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Equal(t, 2, strings.Count(out, "<trk>"))
	assert.Equal(t, 2+3, strings.Count(out, "<trkpt "))
	assert.Contains(t, out, "Main St 5 &amp; &lt;Park&gt;")
	assert.Contains(t, out, "<type>walking</type>")
}
