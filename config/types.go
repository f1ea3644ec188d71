package config

import "time"

// MatchingConfig holds every threshold of the matching pipeline.
// Distances are meters unless noted; LCSSEpsilon and ShapeSpacing are degrees.
type MatchingConfig struct {
	SpeedLimit             float64       `yaml:"speed_limit" validate:"gt=0"`    // m/s between retained fixes
	DistanceLimit          float64       `yaml:"distance_limit" validate:"gt=0"` // m between retained fixes
	ResampleInterval       time.Duration `yaml:"resample_interval" validate:"gt=0"`
	MaxGap                 time.Duration `yaml:"max_gap" validate:"gtfield=ResampleInterval"`
	StayDistanceThreshold  float64       `yaml:"stay_distance_threshold" validate:"gt=0"`
	StayDurationThreshold  time.Duration `yaml:"stay_duration_threshold" validate:"gt=0"`
	MinLegPoints           int           `yaml:"min_leg_points" validate:"gte=2"`
	LCSSEpsilon            float64       `yaml:"lcss_epsilon" validate:"gt=0"`
	LCSSMinScore           float64       `yaml:"lcss_min_score" validate:"gt=0,lte=1"`
	StopBuffer             float64       `yaml:"stop_buffer" validate:"gt=0"`
	CandidateBBoxBuffer    float64       `yaml:"candidate_bbox_buffer" validate:"gte=0"`
	ShapeSpacing           float64       `yaml:"shape_spacing" validate:"gt=0"`
	KalmanProcessNoise     float64       `yaml:"kalman_process_noise" validate:"gt=0"`
	KalmanMeasurementNoise float64       `yaml:"kalman_measurement_noise" validate:"gt=0"`
}

// GTFSConfig contains GTFS static feed configuration
type GTFSConfig struct {
	StaticPath string `yaml:"staticPath" validate:"omitempty"`
	AgencyID   string `yaml:"agency_id" validate:"omitempty"`
	CachePath  string `yaml:"cache_path" validate:"omitempty"`
}

// Feed represents a single GTFS feed configuration
type Feed struct {
	Name string     `yaml:"name" validate:"required"`
	GTFS GTFSConfig `yaml:"gtfs" validate:"required"`
}

// BatchConfig sizes the trip worker pool. Zero means one worker per CPU.
type BatchConfig struct {
	Workers int `yaml:"workers" validate:"gte=0"`
}

// OutputConfig names the optional result sinks.
type OutputConfig struct {
	JSONPath   string `yaml:"jsonPath"`
	SQLitePath string `yaml:"sqlitePath"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set (e.g. ":9102").
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// RealtimeConfig controls how GTFS-RT vehicle positions are grouped into trips.
type RealtimeConfig struct {
	TripKeyStrategy string `yaml:"tripKeyStrategy" validate:"omitempty,oneof=trip startDateTrip vehicleTrip"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Matching MatchingConfig `yaml:"matching"`
	GTFS     GTFSConfig     `yaml:"gtfs"`
	Feeds    []Feed         `yaml:"feeds" validate:"dive"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Batch    BatchConfig    `yaml:"batch"`
	Output   OutputConfig   `yaml:"output"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}
