package gtfsrt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

var base = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

type vp struct {
	id, trip, route, vehicle, date string
	offset                         time.Duration // 0 leaves the entity timestamp unset
	lat, lon                       float32
}

func feed(t *testing.T, header time.Time, vps ...vp) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(header.Unix())),
		},
	}
	for _, v := range vps {
		pos := &gtfsrtpb.VehiclePosition{
			Position: &gtfsrtpb.Position{Latitude: proto.Float32(v.lat), Longitude: proto.Float32(v.lon)},
		}
		if v.trip != "" || v.route != "" {
			pos.Trip = &gtfsrtpb.TripDescriptor{}
			if v.trip != "" {
				pos.Trip.TripId = proto.String(v.trip)
			}
			if v.route != "" {
				pos.Trip.RouteId = proto.String(v.route)
			}
			if v.date != "" {
				pos.Trip.StartDate = proto.String(v.date)
			}
		}
		if v.vehicle != "" {
			pos.Vehicle = &gtfsrtpb.VehicleDescriptor{Id: proto.String(v.vehicle)}
		}
		if v.offset != 0 {
			pos.Timestamp = proto.Uint64(uint64(base.Add(v.offset).Unix()))
		}
		fm.Entity = append(fm.Entity, &gtfsrtpb.FeedEntity{Id: proto.String(v.id), Vehicle: pos})
	}
	data, err := proto.Marshal(fm)
	require.NoError(t, err)
	return data
}

func TestArchiveGroupsPositions(t *testing.T) {
	a := NewArchive("")
	n, err := a.Add(feed(t, base.Add(time.Minute),
		vp{id: "1", trip: "T1", route: "10", vehicle: "bus7", offset: 30 * time.Second, lat: 42.70, lon: 23.32},
		vp{id: "2", trip: "T2", route: "20", vehicle: "tram3", offset: 20 * time.Second, lat: 42.69, lon: 23.33},
		vp{id: "3", vehicle: "bus9", lat: 42.68, lon: 23.31},
		vp{id: "4", trip: "T3", route: "30", lat: 0, lon: 0},
	))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, a.Skipped())

	// later snapshot: T1 moves, the stale T2 position is repeated
	n, err = a.Add(feed(t, base.Add(2*time.Minute),
		vp{id: "1", trip: "T1", route: "10", vehicle: "bus7", offset: 90 * time.Second, lat: 42.701, lon: 23.321},
		vp{id: "2", trip: "T2", route: "20", vehicle: "tram3", offset: 20 * time.Second, lat: 42.69, lon: 23.33},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	trips := a.Trips()
	require.Len(t, trips, 3)
	assert.Equal(t, "T1", trips[0].TripID)
	assert.Equal(t, "10", trips[0].ObservedRouteID)
	require.Len(t, trips[0].Points, 2)
	assert.True(t, trips[0].Points[0].Time.Before(trips[0].Points[1].Time))
	assert.InDelta(t, 42.701, trips[0].Points[1].Lat, 1e-5)

	assert.Equal(t, "T2", trips[1].TripID)
	assert.Len(t, trips[1].Points, 1)

	// no trip: keyed by vehicle, timestamp taken from the header
	assert.Equal(t, "vehicle_bus9", trips[2].TripID)
	assert.Empty(t, trips[2].ObservedRouteID)
	assert.Equal(t, base.Add(time.Minute), trips[2].Points[0].Time)
}

func TestTripKey(t *testing.T) {
	p := Position{TripID: "T1", StartDate: "20240304", VehicleID: "bus7"}
	assert.Equal(t, "T1", TripKey(p, KeyTrip))
	assert.Equal(t, "20240304_T1", TripKey(p, KeyStartDateTrip))
	assert.Equal(t, "bus7_T1", TripKey(p, KeyVehicleTrip))
	assert.Equal(t, "T1", TripKey(Position{TripID: "T1"}, KeyStartDateTrip))
	assert.Equal(t, "vehicle_bus7", TripKey(Position{VehicleID: "bus7"}, KeyTrip))
	assert.Equal(t, "", TripKey(Position{}, KeyTrip))
}

func TestArchiveRejectsGarbage(t *testing.T) {
	_, err := NewArchive(KeyTrip).Add([]byte{0xff, 0x01, 0x02})
	assert.Error(t, err)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	for i, off := range []time.Duration{30 * time.Second, 60 * time.Second} {
		data := feed(t, base, vp{id: "1", trip: "T1", route: "10", offset: off, lat: 42.7, lon: 23.3 + float32(i)*0.001})
		require.NoError(t, os.WriteFile(filepath.Join(dir, "vp-"+string(rune('a'+i))+".pb"), data, 0o644))
	}

	a := NewArchive(KeyTrip)
	require.NoError(t, a.LoadFiles(context.Background(), NewClient(), filepath.Join(dir, "*.pb")))
	trips := a.Trips()
	require.Len(t, trips, 1)
	assert.Len(t, trips[0].Points, 2)

	err := NewArchive(KeyTrip).LoadFiles(context.Background(), NewClient(), filepath.Join(dir, "*.none"))
	assert.True(t, errors.Is(err, ErrNoFiles))
}

func TestLoadFromURL(t *testing.T) {
	data := feed(t, base, vp{id: "1", trip: "T9", route: "20", offset: time.Second, lat: 42.7, lon: 23.3})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	a := NewArchive(KeyTrip)
	require.NoError(t, a.LoadFiles(context.Background(), NewClient(), srv.URL))
	require.Equal(t, 1, a.Len())
	assert.Equal(t, "20", a.Trips()[0].ObservedRouteID)
}
