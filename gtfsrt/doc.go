// Package gtfsrt reads archived GTFS-Realtime vehicle-position feeds and
// groups the positions into raw trips for matching.
//
// Every FeedMessage is decoded with the official protobuf bindings. Positions
// are grouped by a trip key (see KeyStrategy) and carry the feed's route_id
// as the observed route label of the trip.
package gtfsrt
