package formatter

// Document is the serialized form of one trip itinerary.
type Document struct {
	TripID          string         `json:"trip_id"`
	AgencyID        string         `json:"agency_id,omitempty"`
	GeneratedAt     string         `json:"generated_at"`
	ObservedRouteID string         `json:"observed_route_id,omitempty"`
	Segments        []SegmentDoc   `json:"segments"`
	Stays           []StayDoc      `json:"stays"`
	Conditions      map[string]int `json:"conditions,omitempty"`
}

// SegmentDoc is one itinerary segment. Geometry is [lon, lat] pairs.
type SegmentDoc struct {
	Mode            string       `json:"mode"`
	RouteID         string       `json:"route_id,omitempty"`
	RouteKey        string       `json:"route_key,omitempty"`
	RouteName       string       `json:"route_name,omitempty"`
	Boarding        *StopDoc     `json:"boarding,omitempty"`
	Alighting       *StopDoc     `json:"alighting,omitempty"`
	StopsPassed     string       `json:"stops_passed,omitempty"`
	Start           string       `json:"start"`
	End             string       `json:"end"`
	DurationSeconds int64        `json:"duration_s"`
	DistanceMeters  float64      `json:"distance_m"`
	Distance        string       `json:"distance"`
	LegCount        int          `json:"leg_count"`
	LegIndices      []int        `json:"leg_indices"`
	LegGeometry     [][2]float64 `json:"leg_geometry"`
	RouteGeometry   [][2]float64 `json:"route_geometry,omitempty"`
	Conditions      []string     `json:"conditions,omitempty"`
}

// StopDoc is a resolved stop.
type StopDoc struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Location    [2]float64 `json:"location"`
	Sequence    int        `json:"sequence"`
	Distance    float64    `json:"distance_m"`
	Approximate bool       `json:"approximate,omitempty"`
}

// StayDoc is a dwell between legs.
type StayDoc struct {
	Center          [2]float64 `json:"center"`
	Arrival         string     `json:"arrival"`
	Departure       string     `json:"departure"`
	DurationSeconds int64      `json:"duration_s"`
}

// FailedTrip reports a trip that produced no itinerary.
type FailedTrip struct {
	TripID string `json:"trip_id"`
	Error  string `json:"error"`
}

// Batch is the output of a batch run.
type Batch struct {
	GeneratedAt string         `json:"generated_at"`
	AgencyID    string         `json:"agency_id,omitempty"`
	RunID       string         `json:"run_id,omitempty"`
	Trips       []Document     `json:"trips"`
	Failed      []FailedTrip   `json:"failed,omitempty"`
	Conditions  map[string]int `json:"conditions,omitempty"`
	Evaluation  *EvaluationDoc `json:"evaluation,omitempty"`
}

// EvaluationDoc summarizes agreement with observed route labels.
type EvaluationDoc struct {
	Labelled      int     `json:"labelled"`
	Transit       int     `json:"transit"`
	Agreeing      int     `json:"agreeing"`
	AgreementRate float64 `json:"agreement_rate"`
}
