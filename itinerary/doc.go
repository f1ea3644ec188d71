// Package itinerary holds the per-trip matching results and the merger that
// folds consecutive leg results into itinerary segments.
//
// A leg outcome is either Matched (a route with boarding and alighting stops)
// or Walking (no acceptable route). Modeling problems never surface as errors;
// they are recorded as Condition values on results and segments.
package itinerary
