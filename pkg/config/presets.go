// pkg/config/presets.go
package config

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-collide/pkg/spatial"
)

// Preset is a named world layout tuned for a typical scene
type Preset struct {
	Name        string
	Description string
	Field       spatial.Region
	Index       spatial.Kind
	Divisions   int
	Threshold   int
	MaxDepth    int
}

var presets = map[string]Preset{
	"arena": {
		Name:        "Arena",
		Description: "Small square field with evenly spread bodies",
		Field:       spatial.Region{W: 1024, H: 1024},
		Index:       spatial.KindGrid,
		Divisions:   8,
	},
	"open_world": {
		Name:        "Open World",
		Description: "Large sparse field where a quadtree skips empty space",
		Field:       spatial.Region{W: 16384, H: 16384},
		Index:       spatial.KindQuadTree,
		Threshold:   8,
		MaxDepth:    6,
	},
	"crowd": {
		Name:        "Crowd",
		Description: "Dense field with many small bodies and a fine grid",
		Field:       spatial.Region{W: 2048, H: 2048},
		Index:       spatial.KindGrid,
		Divisions:   32,
	},
}

// GetPreset returns the preset registered under key, or nil
func GetPreset(key string) *Preset {
	p, ok := presets[key]
	if !ok {
		return nil
	}
	return &p
}

// ListPresets returns the sorted preset keys
func ListPresets() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyPreset overwrites the layout fields of config with the preset.
// Zero tuning values in the preset leave the config untouched.
func ApplyPreset(config *WorldConfig, key string) error {
	p := GetPreset(key)
	if p == nil {
		return fmt.Errorf("unknown preset %q", key)
	}

	config.Field = p.Field
	config.Index = p.Index
	if p.Divisions > 0 {
		config.GridDivisions = p.Divisions
	}
	if p.Threshold > 0 {
		config.QuadTreeThreshold = p.Threshold
	}
	if p.MaxDepth > 0 {
		config.QuadTreeMaxDepth = p.MaxDepth
	}
	return nil
}
