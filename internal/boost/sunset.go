package boost

import "math"

// Sunset window parameters
const (
	SunsetMaxLux        = 3000.0
	SunsetElevationHigh = 4.0
	SunsetElevationLow  = -4.0
	MaxSunsetBoost      = 25
)

// Skip reasons reported by the sunset calculator
const (
	SkipNoSunData     = "sun_data_unavailable"
	SkipNoLux         = "lux_unavailable"
	SkipBrightDay     = "lux_above_threshold"
	SkipOutsideWindow = "elevation_outside_window"
)

// SunsetResult carries the sunset boost and, when zero, why it was skipped
type SunsetResult struct {
	Boost      int      `json:"boost"`
	Elevation  *float64 `json:"elevation,omitempty"`
	SkipReason string   `json:"skip_reason,omitempty"`
}

// CalculateSunsetBoost compensates for rapid darkening near the horizon on
// already-dark days. It ramps linearly from 0 at +4° to 25 at -4°.
// Elevation ~0 happens at dawn too and is treated the same way.
func CalculateSunsetBoost(lux, elevation *float64) SunsetResult {
	if elevation == nil || !isUsable(*elevation) {
		return SunsetResult{SkipReason: SkipNoSunData}
	}
	res := SunsetResult{Elevation: elevation}

	if lux == nil || !isUsable(*lux) {
		res.SkipReason = SkipNoLux
		return res
	}
	if *lux >= SunsetMaxLux {
		res.SkipReason = SkipBrightDay
		return res
	}
	if *elevation < SunsetElevationLow || *elevation > SunsetElevationHigh {
		res.SkipReason = SkipOutsideWindow
		return res
	}

	span := SunsetElevationHigh - SunsetElevationLow
	res.Boost = int(math.RoundToEven((SunsetElevationHigh - *elevation) / span * MaxSunsetBoost))
	return res
}
