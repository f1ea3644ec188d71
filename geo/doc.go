// Package geo holds the small set of WGS84 geometry helpers shared by the
// catalog, the preprocessor and the matcher.
//
// Three distance notions are used and never mixed:
//   - Planar: Euclidean distance in degree space. The LCSS match predicate and
//     polyline projection use it, so epsilon values are expressed in degrees.
//   - Meters: equirectangular approximation around the segment midpoint. Used
//     for every meter-valued threshold (stay radius, stop buffer, bbox buffer).
//   - GeodesicMeters: great-circle distance on the sphere, used where jumps can
//     be long (outlier removal).
package geo
