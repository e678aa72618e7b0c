package config

import (
	"os"
	"strconv"

	"fmridecode/domain/bold"
	"fmridecode/internal/errors"
)

// Config is the complete dataset configuration. All values are fixed per
// dataset; nothing here changes between subjects of the same study.
type Config struct {
	Data     DataConfig
	Decoding DecodingConfig
}

// DataConfig locates and describes the raw files.
type DataConfig struct {
	DataDir       string  // subject data directory
	BoldFile      string  // 4-D BOLD image inside DataDir
	StimulusFile  string  // timing table (csv or xlsx) inside DataDir
	MaskName      string  // anatomical mask base name, empty = whole volume
	TRSeconds     float64 // sampling interval, seconds per acquisition
	LagSeconds    float64 // hemodynamic lag
	NumRuns       int
	VolumesPerRun int
}

// DecodingConfig holds model-selection settings.
type DecodingConfig struct {
	Seed         int64 // base seed for every RNG stream
	Permutations int   // rounds for the chance-level check
	TopVoxels    int   // voxels kept by feature selection
}

// Grid returns the acquisition grid described by the data configuration.
func (c *Config) Grid() bold.AcquisitionGrid {
	return bold.AcquisitionGrid{
		TRSeconds:     c.Data.TRSeconds,
		NumRuns:       c.Data.NumRuns,
		VolumesPerRun: c.Data.VolumesPerRun,
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			DataDir:       getEnvOrDefault("DATA_DIR", "./data"),
			BoldFile:      getEnvOrDefault("BOLD_FILE", "bold.nii"),
			StimulusFile:  getEnvOrDefault("STIMULUS_FILE", "stimuli.csv"),
			MaskName:      getEnvOrDefault("MASK_NAME", ""),
			TRSeconds:     getEnvFloatOrDefault("TR_SECONDS", 2.5),
			LagSeconds:    getEnvFloatOrDefault("HEMO_LAG_SECONDS", 5.0),
			NumRuns:       getEnvIntOrDefault("NUM_RUNS", 12),
			VolumesPerRun: getEnvIntOrDefault("VOLUMES_PER_RUN", 121),
		},
		Decoding: DecodingConfig{
			Seed:         int64(getEnvIntOrDefault("SEED", 42)),
			Permutations: getEnvIntOrDefault("PERMUTATIONS", 500),
			TopVoxels:    getEnvIntOrDefault("TOP_VOXELS", 300),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(config *Config) error {
	if config.Data.DataDir == "" {
		return errors.ConfigInvalid("DATA_DIR is required")
	}
	if config.Data.TRSeconds <= 0 {
		return errors.ConfigInvalid("TR_SECONDS must be positive")
	}
	if config.Data.LagSeconds < 0 {
		return errors.ConfigInvalid("HEMO_LAG_SECONDS must be non-negative")
	}
	if config.Data.NumRuns < 2 {
		return errors.ConfigInvalid("NUM_RUNS must be at least 2 for leave-one-run-out")
	}
	if config.Data.VolumesPerRun <= 0 {
		return errors.ConfigInvalid("VOLUMES_PER_RUN must be positive")
	}
	if config.Decoding.Permutations < 1 {
		return errors.ConfigInvalid("PERMUTATIONS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
