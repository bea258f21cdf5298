// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-collide/pkg/spatial"
)

// WorldConfig contains configuration for a collision world
type WorldConfig struct {
	// Field is the area covered by the spatial index
	Field spatial.Region `json:"field" yaml:"field"`
	// Index selects the broad phase: "grid" or "quadtree"
	Index             spatial.Kind `json:"index" yaml:"index"`
	GridDivisions     int          `json:"gridDivisions" yaml:"gridDivisions"`
	QuadTreeThreshold int          `json:"quadTreeThreshold" yaml:"quadTreeThreshold"`
	QuadTreeMaxDepth  int          `json:"quadTreeMaxDepth" yaml:"quadTreeMaxDepth"`
	// Workers is the number of goroutines resolving candidate pairs
	Workers  int    `json:"workers" yaml:"workers"`
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
}

// IndexOptions returns the spatial index tuning carried by the config
func (c *WorldConfig) IndexOptions() spatial.Options {
	return spatial.Options{
		Divisions: c.GridDivisions,
		Threshold: c.QuadTreeThreshold,
		MaxDepth:  c.QuadTreeMaxDepth,
	}
}

// isYAML reports whether path should be handled as YAML
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads a configuration from a JSON or YAML file. Fields absent
// from the file keep their default values.
func LoadConfig(path string) (*WorldConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file, as YAML when the extension
// asks for it and indented JSON otherwise.
func SaveConfig(config *WorldConfig, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default world configuration
func DefaultConfig() *WorldConfig {
	return &WorldConfig{
		Field:             spatial.Region{X: 0, Y: 0, W: 4096, H: 4096},
		Index:             spatial.KindGrid,
		GridDivisions:     spatial.DefaultDivisions,
		QuadTreeThreshold: spatial.DefaultThreshold,
		QuadTreeMaxDepth:  spatial.DefaultMaxDepth,
		Workers:           1,
		LogLevel:          "INFO",
	}
}
