// Package formatter provides document building and serialization for trip itineraries.
//
// This package is organized into:
// - wrapper.go: Document building logic (itinerary to document, filtering, utilities)
// - json.go: JSON serialization
// - xml.go: GPX serialization with proper escaping
//
// GPX is written manually for precise control over output format.
package formatter
