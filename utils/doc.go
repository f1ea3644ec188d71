// Package utils provides internal utility functions for the itinerary output.
// This package is not intended to be imported by external code.
//
// It contains:
//   - Time formatting and conversion utilities
//   - Distance formatting
//   - Shared constants
package utils
