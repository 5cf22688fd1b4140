package offsets

import (
	"errors"
	"fmt"

	"github.com/saaga0h/jeeves-adaptive/internal/boundary"
)

// NeutralPreset is the preset that clears the scene layer
const NeutralPreset = "default"

// ErrUnknownPreset is returned when applying a preset that is not configured
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a named pair of fixed scene offsets
type Preset struct {
	Name             string `json:"name" yaml:"name"`
	BrightnessOffset int    `json:"brightness_offset" yaml:"brightness_offset"`
	WarmthOffset     int    `json:"warmth_offset" yaml:"warmth_offset"`
}

// State holds the two independent offset layers. Manual is the user's own
// preference or temporary override; Scene follows the active preset. Each
// layer resets without touching the other.
type State struct {
	ManualBrightness int    `json:"manual_brightness_offset"`
	ManualWarmth     int    `json:"manual_warmth_offset"`
	SceneBrightness  int    `json:"scene_brightness_offset"`
	SceneWarmth      int    `json:"scene_warmth_offset"`
	ActivePreset     string `json:"active_preset"`
}

// SetManual replaces the manual accumulators
func (s *State) SetManual(brightness, warmth int) {
	s.ManualBrightness = boundary.ClampBrightnessOffset(brightness)
	s.ManualWarmth = boundary.ClampColorTempOffset(warmth)
}

// AdjustManual adds a step to the manual accumulators, as a button press does
func (s *State) AdjustManual(deltaBrightness, deltaWarmth int) {
	s.SetManual(s.ManualBrightness+deltaBrightness, s.ManualWarmth+deltaWarmth)
}

// ResetManual zeroes the manual layer only
func (s *State) ResetManual() {
	s.ManualBrightness = 0
	s.ManualWarmth = 0
}

// HasManual reports whether any manual offset is in effect
func (s *State) HasManual() bool {
	return s.ManualBrightness != 0 || s.ManualWarmth != 0
}

// ApplyPreset sets the scene layer to a preset's fixed values
func (s *State) ApplyPreset(p Preset) {
	s.SceneBrightness = boundary.ClampBrightnessOffset(p.BrightnessOffset)
	s.SceneWarmth = boundary.ClampColorTempOffset(p.WarmthOffset)
	s.ActivePreset = p.Name
}

// ResetScene returns the scene layer to the neutral preset
func (s *State) ResetScene() {
	s.SceneBrightness = 0
	s.SceneWarmth = 0
	s.ActivePreset = NeutralPreset
}

// Brightness is the combined manual and scene brightness offset
func (s State) Brightness() int {
	return s.ManualBrightness + s.SceneBrightness
}

// Warmth is the combined manual and scene color temperature offset
func (s State) Warmth() int {
	return s.ManualWarmth + s.SceneWarmth
}

// Presets is a lookup table of configured presets
type Presets map[string]Preset

// NewPresets builds a table, always including the neutral preset
func NewPresets(list []Preset) Presets {
	p := Presets{NeutralPreset: {Name: NeutralPreset}}
	for _, preset := range list {
		p[preset.Name] = preset
	}
	return p
}

// Lookup finds a preset by name
func (p Presets) Lookup(name string) (Preset, error) {
	preset, ok := p[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: %w", name, ErrUnknownPreset)
	}
	return preset, nil
}
