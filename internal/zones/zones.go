package zones

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saaga0h/jeeves-adaptive/internal/boundary"
	"github.com/saaga0h/jeeves-adaptive/internal/offsets"
)

// File is the zone configuration document
type File struct {
	Zones   []Zone           `yaml:"zones"`
	Presets []offsets.Preset `yaml:"presets"`
}

// Zone is one lighting zone with its baseline range and enabled boost sources
type Zone struct {
	ID            string `yaml:"id"`
	BrightnessMin int    `yaml:"brightness_min"`
	BrightnessMax int    `yaml:"brightness_max"`
	ColorTempMin  *int   `yaml:"color_temp_min,omitempty"`
	ColorTempMax  *int   `yaml:"color_temp_max,omitempty"`

	// Boost sources default to environmental and sunset on, wake off
	Environmental *bool `yaml:"environmental,omitempty"`
	Sunset        *bool `yaml:"sunset,omitempty"`
	Wake          *bool `yaml:"wake,omitempty"`
}

// Range returns the zone's baseline range
func (z Zone) Range() boundary.ZoneRange {
	return boundary.ZoneRange{
		ZoneID:        z.ID,
		BrightnessMin: z.BrightnessMin,
		BrightnessMax: z.BrightnessMax,
		ColorTempMin:  z.ColorTempMin,
		ColorTempMax:  z.ColorTempMax,
	}
}

// EnvironmentalEnabled reports whether the environmental boost applies
func (z Zone) EnvironmentalEnabled() bool { return flag(z.Environmental, true) }

// SunsetEnabled reports whether the sunset boost applies
func (z Zone) SunsetEnabled() bool { return flag(z.Sunset, true) }

// WakeEnabled reports whether the wake ramp applies
func (z Zone) WakeEnabled() bool { return flag(z.Wake, false) }

func flag(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Load reads and validates a zone configuration file
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates zone configuration from YAML bytes
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zones YAML: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("zones validation failed: %w", err)
	}
	return &file, nil
}

// Validate checks the structure of the file: zone ids are present and
// unique, preset names are usable. Malformed ranges are not an error here,
// see RangeErrors.
func (f *File) Validate() error {
	if len(f.Zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}

	seen := make(map[string]bool, len(f.Zones))
	for i, z := range f.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone %d: id is required", i)
		}
		if seen[z.ID] {
			return fmt.Errorf("zone %s: duplicate id", z.ID)
		}
		seen[z.ID] = true
	}

	names := make(map[string]bool, len(f.Presets))
	for i, p := range f.Presets {
		if p.Name == "" {
			return fmt.Errorf("preset %d: name is required", i)
		}
		if p.Name == offsets.NeutralPreset {
			return fmt.Errorf("preset %s: name is reserved", p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("preset %s: duplicate name", p.Name)
		}
		names[p.Name] = true
	}

	return nil
}

// RangeError is a zone whose baseline range cannot produce boundaries. The
// zone is kept and reported as invalid_range on every tick.
type RangeError struct {
	ZoneID string
	Err    error
}

// RangeErrors returns the zones with malformed ranges in file order
func (f *File) RangeErrors() []RangeError {
	var out []RangeError
	for _, z := range f.Zones {
		if err := z.Range().Validate(); err != nil {
			out = append(out, RangeError{ZoneID: z.ID, Err: err})
		}
	}
	return out
}

// PresetTable returns the configured presets plus the neutral one
func (f *File) PresetTable() offsets.Presets {
	return offsets.NewPresets(f.Presets)
}

// IDs returns the zone ids in file order
func (f *File) IDs() []string {
	ids := make([]string, 0, len(f.Zones))
	for _, z := range f.Zones {
		ids = append(ids, z.ID)
	}
	return ids
}
