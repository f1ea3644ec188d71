// Package pipeline runs trips through preprocessing, segmentation, route
// matching, stop resolution and merging.
//
// A Pipeline owns the read-only spatial index built from the catalog and can
// be shared by any number of goroutines. Run processes a batch of trips on a
// bounded worker pool; within a trip, legs are matched concurrently and merged
// in leg order once all of them are done.
//
// Modeling problems (no nearby route, weak similarity, stops outside the
// buffer, ambiguous direction) are recorded as conditions on the results and
// counted by a ConditionAggregator, which logs one consolidated line per
// condition at the end of a batch. Only structurally invalid input is returned
// as an error.
package pipeline
