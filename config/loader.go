package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are searched by LoadAppConfig when no path is given.
var DefaultPaths = []string{"config.yml", "./config/config.yml"}

// DefaultMatchingConfig returns thresholds tuned for ~2 fixes/minute urban GPS.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		SpeedLimit:             40,
		DistanceLimit:          5000,
		ResampleInterval:       30 * time.Second,
		MaxGap:                 5 * time.Minute,
		StayDistanceThreshold:  100,
		StayDurationThreshold:  3 * time.Minute,
		MinLegPoints:           2,
		LCSSEpsilon:            0.0005,
		LCSSMinScore:           0.6,
		StopBuffer:             100,
		CandidateBBoxBuffer:    100,
		ShapeSpacing:           0.00025,
		KalmanProcessNoise:     0.5,
		KalmanMeasurementNoise: 15,
	}
}

// WithDefaults fills every zero field from DefaultMatchingConfig.
func (m MatchingConfig) WithDefaults() MatchingConfig {
	d := DefaultMatchingConfig()
	if m.SpeedLimit == 0 {
		m.SpeedLimit = d.SpeedLimit
	}
	if m.DistanceLimit == 0 {
		m.DistanceLimit = d.DistanceLimit
	}
	if m.ResampleInterval == 0 {
		m.ResampleInterval = d.ResampleInterval
	}
	if m.MaxGap == 0 {
		m.MaxGap = d.MaxGap
	}
	if m.StayDistanceThreshold == 0 {
		m.StayDistanceThreshold = d.StayDistanceThreshold
	}
	if m.StayDurationThreshold == 0 {
		m.StayDurationThreshold = d.StayDurationThreshold
	}
	if m.MinLegPoints == 0 {
		m.MinLegPoints = d.MinLegPoints
	}
	if m.LCSSEpsilon == 0 {
		m.LCSSEpsilon = d.LCSSEpsilon
	}
	if m.LCSSMinScore == 0 {
		m.LCSSMinScore = d.LCSSMinScore
	}
	if m.StopBuffer == 0 {
		m.StopBuffer = d.StopBuffer
	}
	if m.CandidateBBoxBuffer == 0 {
		m.CandidateBBoxBuffer = d.CandidateBBoxBuffer
	}
	if m.ShapeSpacing == 0 {
		m.ShapeSpacing = d.ShapeSpacing
	}
	if m.KalmanProcessNoise == 0 {
		m.KalmanProcessNoise = d.KalmanProcessNoise
	}
	if m.KalmanMeasurementNoise == 0 {
		m.KalmanMeasurementNoise = d.KalmanMeasurementNoise
	}
	return m
}

// Validate checks the struct tags of m.
func (m MatchingConfig) Validate() error {
	return validator.New().Struct(m)
}

// LoadAppConfig loads and validates the application configuration. An empty
// path searches DefaultPaths.
func LoadAppConfig(path string) (AppConfig, error) {
	paths := DefaultPaths
	if path != "" {
		paths = []string{path}
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return AppConfig{}, err
	}
	return ParseAppConfig(data)
}

// ParseAppConfig decodes YAML, applies defaults and validates.
func ParseAppConfig(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Matching = cfg.Matching.WithDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SelectFeed chooses a feed by name; fallback to first; if none, use top-level GTFS.
func (c AppConfig) SelectFeed(name string) GTFSConfig {
	if name != "" {
		for _, f := range c.Feeds {
			if f.Name == name {
				return f.GTFS
			}
		}
	}
	if len(c.Feeds) > 0 {
		return c.Feeds[0].GTFS
	}
	return c.GTFS
}
