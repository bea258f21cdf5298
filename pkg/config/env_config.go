// pkg/config/env_config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/opd-ai/go-collide/pkg/spatial"
)

// Limits enforced by Validate
const (
	MaxGridDivisions = 1024
	MaxQuadTreeDepth = 16
	MaxWorkers       = 256
)

// ErrInvalidConfig is wrapped by every ValidationError
var ErrInvalidConfig = errors.New("invalid config")

// ValidationError describes a single invalid configuration field
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match the error with errors.Is(err, ErrInvalidConfig)
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// ApplyEnvironmentOverrides replaces config values with any COLLIDE_*
// environment variables that are set, then validates the result.
func ApplyEnvironmentOverrides(config *WorldConfig) error {
	config.Index = spatial.Kind(strings.ToLower(getEnvOrDefault("COLLIDE_INDEX", string(config.Index))))
	config.GridDivisions = getEnvAsIntOrDefault("COLLIDE_GRID_DIVISIONS", config.GridDivisions)
	config.QuadTreeThreshold = getEnvAsIntOrDefault("COLLIDE_QUADTREE_THRESHOLD", config.QuadTreeThreshold)
	config.QuadTreeMaxDepth = getEnvAsIntOrDefault("COLLIDE_QUADTREE_DEPTH", config.QuadTreeMaxDepth)
	config.Workers = getEnvAsIntOrDefault("COLLIDE_WORKERS", config.Workers)
	config.Field.W = getEnvAsFloatOrDefault("COLLIDE_FIELD_WIDTH", config.Field.W)
	config.Field.H = getEnvAsFloatOrDefault("COLLIDE_FIELD_HEIGHT", config.Field.H)
	config.LogLevel = getEnvOrDefault("COLLIDE_LOG_LEVEL", config.LogLevel)

	if err := config.Validate(); err != nil {
		return fmt.Errorf("environment overrides produced invalid config: %w", err)
	}
	return nil
}

// Validate checks that the configuration describes a usable world
func (c *WorldConfig) Validate() error {
	if c.Field.W <= 0 {
		return &ValidationError{Field: "Field.W", Value: c.Field.W, Message: "field width must be positive"}
	}
	if c.Field.H <= 0 {
		return &ValidationError{Field: "Field.H", Value: c.Field.H, Message: "field height must be positive"}
	}

	switch c.Index {
	case spatial.KindGrid, spatial.KindQuadTree:
	default:
		return &ValidationError{Field: "Index", Value: c.Index, Message: "must be grid or quadtree"}
	}

	if c.GridDivisions < 0 || c.GridDivisions > MaxGridDivisions {
		return &ValidationError{
			Field:   "GridDivisions",
			Value:   c.GridDivisions,
			Message: fmt.Sprintf("must be between 0 and %d", MaxGridDivisions),
		}
	}
	if c.QuadTreeThreshold < 0 {
		return &ValidationError{Field: "QuadTreeThreshold", Value: c.QuadTreeThreshold, Message: "must not be negative"}
	}
	if c.QuadTreeMaxDepth < 0 || c.QuadTreeMaxDepth > MaxQuadTreeDepth {
		return &ValidationError{
			Field:   "QuadTreeMaxDepth",
			Value:   c.QuadTreeMaxDepth,
			Message: fmt.Sprintf("must be between 0 and %d", MaxQuadTreeDepth),
		}
	}
	if c.Workers < 1 || c.Workers > MaxWorkers {
		return &ValidationError{
			Field:   "Workers",
			Value:   c.Workers,
			Message: fmt.Sprintf("must be between 1 and %d", MaxWorkers),
		}
	}

	switch strings.ToUpper(c.LogLevel) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return &ValidationError{Field: "LogLevel", Value: c.LogLevel, Message: "must be DEBUG, INFO, WARN or ERROR"}
	}

	return nil
}

// getEnvOrDefault returns the environment value or def when unset
func getEnvOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// getEnvAsIntOrDefault parses an int, falling back to def when unset or malformed
func getEnvAsIntOrDefault(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return def
}

// getEnvAsFloatOrDefault parses a float, falling back to def when unset or malformed
func getEnvAsFloatOrDefault(key string, def float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return def
}
