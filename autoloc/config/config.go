// Package config loads the numeric run configuration, the author
// priority list, and the station overlay file. It intentionally knows
// nothing about the autoloc core's data model: it hands back plain
// records which the core package turns into Stations and GridPoints,
// so this package can be loaded and validated before any domain object
// exists. Grounded on ptp/sptp/client/config.go (numeric config) and
// calnex/config/config.go (the go-ini/ini usage for AuthorList).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds every tunable threshold the core processing loop reads.
// Field names mirror the configuration table in the specification.
type Config struct {
	MinPhaseCount          int     `yaml:"minPhaseCount"`
	MinScore               float64 `yaml:"minScore"`
	MinScoreBypassNucleator float64 `yaml:"minScoreBypassNucleator"`
	MinPickSNR             float64 `yaml:"minPickSNR"`
	MinPickAffinity        float64 `yaml:"minPickAffinity"`

	MaxRMS          float64 `yaml:"maxRMS"`
	GoodRMS         float64 `yaml:"goodRMS"`
	MaxResidualUse  float64 `yaml:"maxResidualUse"`
	MaxStaDist      float64 `yaml:"maxStaDist"`
	DefaultMaxNucDist float64 `yaml:"defaultMaxNucDist"`
	MaxAziGapSecondary float64 `yaml:"maxAziGapSecondary"`

	DefaultDepth            float64 `yaml:"defaultDepth"`
	MinimumDepth            float64 `yaml:"minimumDepth"`
	MaxDepth                float64 `yaml:"maxDepth"`
	DefaultDepthStickiness  float64 `yaml:"defaultDepthStickiness"`
	TryDefaultDepth         bool    `yaml:"tryDefaultDepth"`
	AdoptManualDepth        bool    `yaml:"adoptManualDepth"`
	AdoptImportedOriginDepth bool   `yaml:"adoptImportedOriginDepth"`

	XXLEnable        bool    `yaml:"xxlEnable"`
	XXLMinAmplitude  float64 `yaml:"xxlMinAmplitude"`
	XXLMinSNR        float64 `yaml:"xxlMinSNR"`
	XXLMinPhaseCount int     `yaml:"xxlMinPhaseCount"`
	XXLMaxStaDist    float64 `yaml:"xxlMaxStaDist"`
	// XXLDeadTimeSeconds is the window, in the dynamic pick threshold's
	// second guard term, during which one very large recent pick at a
	// station raises the bar for the next pick there.
	XXLDeadTimeSeconds int `yaml:"xxlDeadTimeSeconds"`

	CleanupIntervalSeconds int     `yaml:"cleanupIntervalSeconds"`
	MaxAgeSeconds          int     `yaml:"maxAgeSeconds"`
	KeepEventsTimespanSeconds int  `yaml:"keepEventsTimespanSeconds"`

	PublicationIntervalTimeSlope     float64 `yaml:"publicationIntervalTimeSlope"`
	PublicationIntervalTimeIntercept float64 `yaml:"publicationIntervalTimeIntercept"`
	PublicationIntervalPickCount     int     `yaml:"publicationIntervalPickCount"`

	DynamicPickThresholdIntervalSeconds int `yaml:"dynamicPickThresholdIntervalSeconds"`

	UseManualPicks           bool `yaml:"useManualPicks"`
	UseManualOrigins         bool `yaml:"useManualOrigins"`
	UseImportedOrigins       bool `yaml:"useImportedOrigins"`
	ReportAllPhases          bool `yaml:"reportAllPhases"`
	AggressivePKP            bool `yaml:"aggressivePKP"`

	AmplTypeAbs string `yaml:"amplTypeAbs"`
	AmplTypeSNR string `yaml:"amplTypeSNR"`

	MaxAllowedFakeProbability float64 `yaml:"maxAllowedFakeProbability"`

	NetworkSizeKm float64 `yaml:"networkSizeKm"`

	GridFile    string `yaml:"gridFile"`
	StationFile string `yaml:"stationFile"`
	AuthorFile  string `yaml:"authorFile"`

	StatsListenAddress string `yaml:"statsListenAddress"`
}

// DefaultConfig returns a Config with the same defaults the original
// algorithm ships, as transcribed from util.cpp/nucleator.cpp/autoloc.cpp.
func DefaultConfig() *Config {
	return &Config{
		MinPhaseCount:           5,
		MinScore:                10,
		MinScoreBypassNucleator: 1000, // effectively disabled by default
		MinPickSNR:              3,
		MinPickAffinity:         0.05,

		MaxRMS:             3.5,
		GoodRMS:            1.5,
		MaxResidualUse:     7,
		MaxStaDist:         180,
		DefaultMaxNucDist:  180,
		MaxAziGapSecondary: 300,

		DefaultDepth:           10,
		MinimumDepth:           5,
		MaxDepth:               700,
		DefaultDepthStickiness: 0.5,
		TryDefaultDepth:        true,
		AdoptManualDepth:       true,

		XXLEnable:          false,
		XXLMinAmplitude:    3000,
		XXLMinSNR:          30,
		XXLMinPhaseCount:   4,
		XXLMaxStaDist:      4,
		XXLDeadTimeSeconds: 900,

		CleanupIntervalSeconds:    3600,
		MaxAgeSeconds:             86400,
		KeepEventsTimespanSeconds: 86400,

		PublicationIntervalTimeSlope:     1,
		PublicationIntervalTimeIntercept: 1,
		PublicationIntervalPickCount:     20,

		DynamicPickThresholdIntervalSeconds: 3600,

		UseManualPicks:     true,
		UseManualOrigins:   true,
		UseImportedOrigins: true,
		ReportAllPhases:    false,

		AmplTypeAbs: "mB",
		AmplTypeSNR: "snr",

		MaxAllowedFakeProbability: 0.2,

		StatsListenAddress: "127.0.0.1:8981",
	}
}

// Validate checks field ranges, following client.Config.Validate's
// style of one sanity check per line with a descriptive error.
func (c *Config) Validate() error {
	if c.MinPhaseCount < 4 {
		return fmt.Errorf("minPhaseCount must be >= 4, got %d", c.MinPhaseCount)
	}
	if c.MaxRMS <= 0 {
		return fmt.Errorf("maxRMS must be > 0, got %f", c.MaxRMS)
	}
	if c.GoodRMS <= 0 || c.GoodRMS > c.MaxRMS {
		return fmt.Errorf("goodRMS must be in (0, maxRMS], got %f", c.GoodRMS)
	}
	if c.MinimumDepth < 0 || c.MinimumDepth > c.MaxDepth {
		return fmt.Errorf("minimumDepth must be in [0, maxDepth], got %f", c.MinimumDepth)
	}
	if c.DefaultDepth < c.MinimumDepth || c.DefaultDepth > c.MaxDepth {
		return fmt.Errorf("defaultDepth must be in [minimumDepth, maxDepth], got %f", c.DefaultDepth)
	}
	if c.MaxAllowedFakeProbability < 0 || c.MaxAllowedFakeProbability > 1 {
		return fmt.Errorf("maxAllowedFakeProbability must be in [0,1], got %f", c.MaxAllowedFakeProbability)
	}
	if c.XXLEnable && c.XXLMinPhaseCount < 2 {
		return fmt.Errorf("xxlMinPhaseCount must be >= 2 when XXL is enabled, got %d", c.XXLMinPhaseCount)
	}
	return nil
}

// ReadConfig loads YAML from path, applies it over DefaultConfig, and
// validates the result.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %q: %w", path, err)
	}
	return cfg, nil
}
