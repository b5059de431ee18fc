package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// LoadCalibration loads ranked-set weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights
// with an error so the caller can degrade gracefully. Partial
// configurations are merged with defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only
// non-zero values from the override are applied, which allows partial
// overrides in the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	if base == nil {
		return DefaultWeights()
	}
	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.Trending.Recent7d != 0 {
		result.Trending.Recent7d = override.Trending.Recent7d
	}
	if override.Trending.Recent30d != 0 {
		result.Trending.Recent30d = override.Trending.Recent30d
	}
	if override.Trending.RecentRating != 0 {
		result.Trending.RecentRating = override.Trending.RecentRating
	}

	if override.Quality.Verified != 0 {
		result.Quality.Verified = override.Quality.Verified
	}
	if override.Quality.Description != 0 {
		result.Quality.Description = override.Quality.Description
	}
	if override.Quality.Image != 0 {
		result.Quality.Image = override.Quality.Image
	}
	if override.Quality.Rating != 0 {
		result.Quality.Rating = override.Quality.Rating
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	if loaded.Trending.Recent7d != defaults.Trending.Recent7d {
		overrides = append(overrides, fmt.Sprintf("trending.recent_7d: %.2f -> %.2f",
			defaults.Trending.Recent7d, loaded.Trending.Recent7d))
	}
	if loaded.Trending.Recent30d != defaults.Trending.Recent30d {
		overrides = append(overrides, fmt.Sprintf("trending.recent_30d: %.2f -> %.2f",
			defaults.Trending.Recent30d, loaded.Trending.Recent30d))
	}
	if loaded.Trending.RecentRating != defaults.Trending.RecentRating {
		overrides = append(overrides, fmt.Sprintf("trending.recent_rating: %.2f -> %.2f",
			defaults.Trending.RecentRating, loaded.Trending.RecentRating))
	}
	if loaded.Quality.Verified != defaults.Quality.Verified {
		overrides = append(overrides, fmt.Sprintf("quality.verified: %.2f -> %.2f",
			defaults.Quality.Verified, loaded.Quality.Verified))
	}
	if loaded.Quality.Description != defaults.Quality.Description {
		overrides = append(overrides, fmt.Sprintf("quality.description: %.2f -> %.2f",
			defaults.Quality.Description, loaded.Quality.Description))
	}
	if loaded.Quality.Image != defaults.Quality.Image {
		overrides = append(overrides, fmt.Sprintf("quality.image: %.2f -> %.2f",
			defaults.Quality.Image, loaded.Quality.Image))
	}
	if loaded.Quality.Rating != defaults.Quality.Rating {
		overrides = append(overrides, fmt.Sprintf("quality.rating: %.2f -> %.2f",
			defaults.Quality.Rating, loaded.Quality.Rating))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
