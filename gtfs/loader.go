package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfs-itinerary/config"
	"github.com/theoremus-urban-solutions/gtfs-itinerary/geo"
)

// feedTables holds the raw rows the catalog is assembled from.
type feedTables struct {
	agencyID   string
	routeShort map[string]string // route_id -> short_name
	routeLong  map[string]string // route_id -> long_name
	routeType  map[string]int    // route_id -> route_type
	tripRoute  map[string]string // trip_id -> route_id
	tripDir    map[string]string // trip_id -> direction_id
	tripShape  map[string]string // trip_id -> shape_id
	tripStops  map[string][]string
	stops      []Stop
	shapes     map[string][]geo.Point
}

func newFeedTables(agencyID string) *feedTables {
	return &feedTables{
		agencyID:   agencyID,
		routeShort: map[string]string{},
		routeLong:  map[string]string{},
		routeType:  map[string]int{},
		tripRoute:  map[string]string{},
		tripDir:    map[string]string{},
		tripShape:  map[string]string{},
		tripStops:  map[string][]string{},
		shapes:     map[string][]geo.Point{},
	}
}

// LoadZip reads a GTFS static zip from disk.
func LoadZip(path, agencyID string) (*Catalog, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip: %w", err)
	}
	defer zr.Close()
	return loadFromZip(&zr.Reader, agencyID)
}

// LoadZipBytes reads a GTFS static zip held in memory.
func LoadZipBytes(data []byte, agencyID string) (*Catalog, error) {
	return LoadZipReader(bytes.NewReader(data), int64(len(data)), agencyID)
}

// LoadZipReader reads a GTFS static zip from any io.ReaderAt.
func LoadZipReader(r io.ReaderAt, size int64, agencyID string) (*Catalog, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip: %w", err)
	}
	return loadFromZip(zr, agencyID)
}

// LoadFromConfig loads the catalog for a feed, going through the gob cache
// when CachePath is set: a readable cache wins, otherwise the zip is parsed
// and the cache rewritten.
func LoadFromConfig(cfg config.GTFSConfig) (*Catalog, error) {
	if cfg.CachePath != "" {
		if c, err := DeserializeCatalogFromFile(cfg.CachePath); err == nil {
			log.Printf("gtfs: loaded catalog cache %s (%d routes, %d stops)", cfg.CachePath, len(c.Routes), len(c.Stops))
			return c, nil
		}
	}
	c, err := LoadZip(cfg.StaticPath, cfg.AgencyID)
	if err != nil {
		return nil, err
	}
	if cfg.CachePath != "" {
		if err := SerializeCatalogToFile(c, cfg.CachePath); err != nil {
			log.Printf("gtfs: could not write catalog cache %s: %v", cfg.CachePath, err)
		}
	}
	return c, nil
}

func loadFromZip(zr *zip.Reader, agencyID string) (*Catalog, error) {
	t := newFeedTables(agencyID)
	// stops must precede routes in the builder, so collect everything first
	for _, f := range zr.File {
		switch strings.ToLower(f.Name) {
		case "routes.txt", "trips.txt", "stops.txt", "stop_times.txt", "agency.txt", "shapes.txt":
			if err := t.consumeCSV(f); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return t.build()
}

func (t *feedTables) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	field := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	switch strings.ToLower(f.Name) {
	case "agency.txt":
		agID := idx("agency_id")
		if len(rec) > 1 && t.agencyID == "" {
			t.agencyID = field(rec[1], agID)
		}
	case "routes.txt":
		rID, rSN, rLN, rType := idx("route_id"), idx("route_short_name"), idx("route_long_name"), idx("route_type")
		for _, row := range rec[1:] {
			id := field(row, rID)
			if id == "" {
				continue
			}
			t.routeShort[id] = field(row, rSN)
			t.routeLong[id] = field(row, rLN)
			if typeInt, err := strconv.Atoi(field(row, rType)); err == nil {
				t.routeType[id] = typeInt
			}
		}
	case "trips.txt":
		rID, tID, dir, sh := idx("route_id"), idx("trip_id"), idx("direction_id"), idx("shape_id")
		for _, row := range rec[1:] {
			trip := field(row, tID)
			if trip == "" {
				continue
			}
			t.tripRoute[trip] = field(row, rID)
			t.tripDir[trip] = field(row, dir)
			t.tripShape[trip] = field(row, sh)
		}
	case "stops.txt":
		sID, sN, sLat, sLon := idx("stop_id"), idx("stop_name"), idx("stop_lat"), idx("stop_lon")
		for _, row := range rec[1:] {
			lat, errLat := strconv.ParseFloat(field(row, sLat), 64)
			lon, errLon := strconv.ParseFloat(field(row, sLon), 64)
			if field(row, sID) == "" || errLat != nil || errLon != nil {
				continue
			}
			t.stops = append(t.stops, Stop{ID: field(row, sID), Name: field(row, sN), Location: geo.Point{Lon: lon, Lat: lat}})
		}
	case "stop_times.txt":
		tID, sID, sq := idx("trip_id"), idx("stop_id"), idx("stop_sequence")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		type seqStop struct {
			stop string
			seq  int
		}
		tmp := map[string][]seqStop{}
		for _, row := range rec[1:] {
			seq, _ := strconv.Atoi(field(row, sq))
			trip := field(row, tID)
			tmp[trip] = append(tmp[trip], seqStop{field(row, sID), seq})
		}
		for trip, arr := range tmp {
			sort.SliceStable(arr, func(i, j int) bool { return arr[i].seq < arr[j].seq })
			ids := make([]string, len(arr))
			for i, v := range arr {
				ids[i] = v.stop
			}
			t.tripStops[trip] = ids
		}
	case "shapes.txt":
		sh, latIdx, lonIdx, seqIdx := idx("shape_id"), idx("shape_pt_lat"), idx("shape_pt_lon"), idx("shape_pt_sequence")
		if sh < 0 || latIdx < 0 || lonIdx < 0 || seqIdx < 0 {
			return nil
		}
		type seqPoint struct {
			p   geo.Point
			seq int
		}
		tmp := map[string][]seqPoint{}
		for _, row := range rec[1:] {
			lat, _ := strconv.ParseFloat(field(row, latIdx), 64)
			lon, _ := strconv.ParseFloat(field(row, lonIdx), 64)
			seq, _ := strconv.Atoi(field(row, seqIdx))
			tmp[field(row, sh)] = append(tmp[field(row, sh)], seqPoint{geo.Point{Lon: lon, Lat: lat}, seq})
		}
		for shapeID, arr := range tmp {
			sort.SliceStable(arr, func(i, j int) bool { return arr[i].seq < arr[j].seq })
			pts := make([]geo.Point, len(arr))
			for i, p := range arr {
				pts[i] = p.p
			}
			t.shapes[shapeID] = pts
		}
	}
	return nil
}

// build turns trips into route variants: one per (route_id, shape_id), using
// the stop sequence of the variant's longest trip. Trips without a shape fall
// back to the polyline through their stops.
func (t *feedTables) build() (*Catalog, error) {
	b := NewBuilder(t.agencyID)
	stopCoord := make(map[string]geo.Point, len(t.stops))
	for _, s := range t.stops {
		if err := b.AddStop(s); err != nil {
			return nil, err
		}
		stopCoord[s.ID] = s.Location
	}

	type variant struct {
		routeID, dir, shapeID, trip string
	}
	variants := map[string]*variant{}
	trips := make([]string, 0, len(t.tripRoute))
	for trip := range t.tripRoute {
		trips = append(trips, trip)
	}
	sort.Strings(trips)
	for _, trip := range trips {
		stops := t.tripStops[trip]
		if len(stops) == 0 {
			continue
		}
		routeID := t.tripRoute[trip]
		shapeID := t.tripShape[trip]
		key := routeID + "/" + shapeID
		if shapeID == "" {
			key = routeID + "/trip:" + trip
		}
		v, ok := variants[key]
		if !ok {
			variants[key] = &variant{routeID: routeID, dir: t.tripDir[trip], shapeID: shapeID, trip: trip}
			continue
		}
		if len(stops) > len(t.tripStops[v.trip]) {
			v.trip = trip
		}
	}

	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	skipped := 0
	for _, k := range keys {
		v := variants[k]
		stops := t.tripStops[v.trip]
		shape := t.shapes[v.shapeID]
		if len(shape) < 2 {
			shape = shape[:0:0]
			for _, id := range stops {
				if p, ok := stopCoord[id]; ok {
					shape = append(shape, p)
				}
			}
		}
		err := b.AddRoute(Route{
			Key:         k,
			RouteID:     v.routeID,
			ShortName:   t.routeShort[v.routeID],
			LongName:    t.routeLong[v.routeID],
			Type:        t.routeType[v.routeID],
			DirectionID: v.dir,
			ShapeID:     v.shapeID,
			Shape:       shape,
			StopIDs:     stops,
		})
		if err != nil {
			skipped++
			log.Printf("gtfs: skipping route variant %s: %v", k, err)
		}
	}
	c := b.Build()
	log.Printf("gtfs: catalog for agency %q has %d route variants and %d stops (%d variants skipped)", c.AgencyID, len(c.Routes), len(c.Stops), skipped)
	return c, nil
}
