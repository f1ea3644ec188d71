// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Zero values in the matching section fall back to defaults tuned for urban
// GPS sampled at roughly two points per minute. The package supports several
// GTFS feeds and allows feed selection by name.
package config
