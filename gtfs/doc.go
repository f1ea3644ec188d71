/*
Package gtfs provides the reference catalog the matcher reads: route variants
(shape + ordered stops + bounding box) and stops, held as flat tables with key
lookups.

This package is data-source agnostic - it accepts a zip path, raw zip bytes or
an io.ReaderAt and builds the catalog in memory. It does NOT download feeds.

# Basic Usage

Load from a file:

	catalog, err := gtfs.LoadZip("gtfs.zip", "AGENCY_ID")
	if err != nil {
	    log.Fatal(err)
	}

Build programmatically:

	b := gtfs.NewBuilder("AGENCY_ID")
	_ = b.AddStop(gtfs.Stop{ID: "S1", Name: "Main St", Location: geo.Point{Lon: 23.32, Lat: 42.69}})
	_ = b.AddRoute(gtfs.Route{RouteID: "10", Shape: shape, StopIDs: []string{"S1", "S2"}})
	catalog := b.Build()

# Route Variants

GTFS trips are grouped by (route_id, shape_id). Each group becomes one Route
whose Key is "{route_id}/{shape_id}" and whose stop sequence is that of the
group's longest trip. Trips without a shape use the polyline through their
stops. Sibling returns the opposite-direction variant of the same route_id.

# Performance: Cache the Catalog

Parse GTFS once at startup and keep the catalog in memory; it is immutable
and safe to share across goroutines. SerializeCatalogToFile and
DeserializeCatalogFromFile keep a gob copy on disk; LoadFromConfig uses it
automatically when the feed configures a cache_path.
*/
package gtfs
