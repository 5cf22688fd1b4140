package boundary

import (
	"errors"
	"fmt"
)

// Domain limits for the adaptive ranges
const (
	BrightnessFloor     = 0
	BrightnessCeil      = 100
	MaxBrightnessOffset = 100

	ColorTempFloor     = 1500
	ColorTempCeil      = 6500
	MaxColorTempOffset = 2500
)

// ErrInvalidRange is returned when a range or offset lies outside its domain
var ErrInvalidRange = errors.New("invalid range")

// ComputeBrightnessBounds shifts a brightness range by a signed offset.
// A positive offset raises only the minimum, a negative offset lowers only the
// maximum, so the untouched side keeps its adaptive variation.
func ComputeBrightnessBounds(currentMin, currentMax, offset int) (int, int, error) {
	return computeBounds(currentMin, currentMax, offset, BrightnessFloor, BrightnessCeil, MaxBrightnessOffset, "brightness")
}

// ComputeColorTempBounds is ComputeBrightnessBounds over Kelvin.
// Positive offsets (cooler) raise the minimum, negative (warmer) lower the maximum.
func ComputeColorTempBounds(currentMin, currentMax, offset int) (int, int, error) {
	return computeBounds(currentMin, currentMax, offset, ColorTempFloor, ColorTempCeil, MaxColorTempOffset, "color_temp")
}

func computeBounds(currentMin, currentMax, offset, floor, ceil, maxOffset int, kind string) (int, int, error) {
	if currentMin < floor || currentMin > ceil || currentMax < floor || currentMax > ceil {
		return 0, 0, fmt.Errorf("%s bounds [%d, %d] outside [%d, %d]: %w", kind, currentMin, currentMax, floor, ceil, ErrInvalidRange)
	}
	if currentMin > currentMax {
		return 0, 0, fmt.Errorf("%s min %d exceeds max %d: %w", kind, currentMin, currentMax, ErrInvalidRange)
	}
	if offset < -maxOffset || offset > maxOffset {
		return 0, 0, fmt.Errorf("%s offset %d outside [%d, %d]: %w", kind, offset, -maxOffset, maxOffset, ErrInvalidRange)
	}

	newMin, newMax := currentMin, currentMax

	switch {
	case offset > 0:
		newMin = min(currentMin+offset, ceil)
		if newMin > newMax {
			newMin = newMax
		}
	case offset < 0:
		newMax = max(currentMax+offset, floor)
		if newMax < newMin {
			newMax = newMin
		}
	}

	return newMin, newMax, nil
}

// ClampBrightnessOffset bounds a computed offset into the accepted domain
func ClampBrightnessOffset(offset int) int {
	return clamp(offset, -MaxBrightnessOffset, MaxBrightnessOffset)
}

// ClampColorTempOffset bounds a computed Kelvin offset into the accepted domain
func ClampColorTempOffset(offset int) int {
	return clamp(offset, -MaxColorTempOffset, MaxColorTempOffset)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
