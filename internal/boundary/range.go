package boundary

import "fmt"

// ZoneRange is the configured baseline a zone is adjusted from every tick
type ZoneRange struct {
	ZoneID        string
	BrightnessMin int
	BrightnessMax int
	ColorTempMin  *int
	ColorTempMax  *int
}

// HasColorTemp reports whether the zone has a color temperature window
func (r ZoneRange) HasColorTemp() bool {
	return r.ColorTempMin != nil && r.ColorTempMax != nil
}

// Width returns the brightness range width
func (r ZoneRange) Width() int {
	return r.BrightnessMax - r.BrightnessMin
}

// Validate checks the range against the domain limits
func (r ZoneRange) Validate() error {
	if r.ZoneID == "" {
		return fmt.Errorf("zone id is required: %w", ErrInvalidRange)
	}
	if _, _, err := ComputeBrightnessBounds(r.BrightnessMin, r.BrightnessMax, 0); err != nil {
		return fmt.Errorf("zone %s: %w", r.ZoneID, err)
	}
	if (r.ColorTempMin == nil) != (r.ColorTempMax == nil) {
		return fmt.Errorf("zone %s: color temp needs both min and max: %w", r.ZoneID, ErrInvalidRange)
	}
	if r.HasColorTemp() {
		if _, _, err := ComputeColorTempBounds(*r.ColorTempMin, *r.ColorTempMax, 0); err != nil {
			return fmt.Errorf("zone %s: %w", r.ZoneID, err)
		}
	}
	return nil
}

// Boundaries is the final per-zone output handed to the lighting driver
type Boundaries struct {
	ZoneID        string `json:"zone_id"`
	MinBrightness int    `json:"min_brightness"`
	MaxBrightness int    `json:"max_brightness"`
	MinColorTemp  *int   `json:"min_color_temp,omitempty"`
	MaxColorTemp  *int   `json:"max_color_temp,omitempty"`
	Collapsed     bool   `json:"collapsed"`
}

// Apply runs both engines over the zone baseline. Offsets are clamped into the
// engine domains first since they are computed intermediates.
func (r ZoneRange) Apply(brightnessOffset, colorTempOffset int) (Boundaries, error) {
	minB, maxB, err := ComputeBrightnessBounds(r.BrightnessMin, r.BrightnessMax, ClampBrightnessOffset(brightnessOffset))
	if err != nil {
		return Boundaries{}, fmt.Errorf("zone %s: %w", r.ZoneID, err)
	}

	b := Boundaries{
		ZoneID:        r.ZoneID,
		MinBrightness: minB,
		MaxBrightness: maxB,
		Collapsed:     minB == maxB,
	}

	if r.HasColorTemp() {
		minCT, maxCT, err := ComputeColorTempBounds(*r.ColorTempMin, *r.ColorTempMax, ClampColorTempOffset(colorTempOffset))
		if err != nil {
			return Boundaries{}, fmt.Errorf("zone %s: %w", r.ZoneID, err)
		}
		b.MinColorTemp = &minCT
		b.MaxColorTemp = &maxCT
	}

	return b, nil
}
