package gtfsrt

import "time"

// Position is one decoded vehicle position.
type Position struct {
	TripID    string
	StartDate string
	RouteID   string
	VehicleID string
	Time      time.Time
	Lat       float64
	Lon       float64
}

// KeyStrategy selects how positions are grouped into trips.
type KeyStrategy string

const (
	// KeyTrip groups by trip_id.
	KeyTrip KeyStrategy = "trip"
	// KeyStartDateTrip groups by start_date and trip_id, for archives spanning days.
	KeyStartDateTrip KeyStrategy = "startDateTrip"
	// KeyVehicleTrip groups by vehicle id and trip_id.
	KeyVehicleTrip KeyStrategy = "vehicleTrip"
)

// TripKey returns the grouping key of p. Positions without a trip_id fall
// back to the vehicle id; positions with neither yield "".
func TripKey(p Position, s KeyStrategy) string {
	if p.TripID == "" {
		if p.VehicleID == "" {
			return ""
		}
		return "vehicle_" + p.VehicleID
	}
	switch s {
	case KeyStartDateTrip:
		if p.StartDate != "" {
			return p.StartDate + "_" + p.TripID
		}
	case KeyVehicleTrip:
		if p.VehicleID != "" {
			return p.VehicleID + "_" + p.TripID
		}
	}
	return p.TripID
}
