package boost

import (
	"math"
	"time"
)

// MaxEnvironmentalBoost is the ceiling of the environmental contribution
const MaxEnvironmentalBoost = 25

// Limiting factors reported in a Breakdown
const (
	LimitNone     = "none"
	LimitTimeGate = "time_gate"
	LimitCeiling  = "ceiling"
	LimitFloor    = "floor"
)

// EnvironmentalInputs is the last-known sensor picture. Nil pointers and an
// empty condition mean the reading is unavailable.
type EnvironmentalInputs struct {
	Lux              *float64
	WeatherCondition string
	CloudCoverage    *float64
	Now              time.Time
}

// Breakdown explains how an environmental boost was reached
type Breakdown struct {
	LuxComponent      int      `json:"lux_component"`
	WeatherComponent  int      `json:"weather_component"`
	SeasonalComponent int      `json:"seasonal_component"`
	Raw               int      `json:"raw"`
	TimeMultiplier    float64  `json:"time_multiplier"`
	Boost             int      `json:"boost"`
	LimitingFactor    string   `json:"limiting_factor"`
	Degraded          []string `json:"degraded,omitempty"`
}

// CalculateEnvironmentalBoost compensates for ambient darkness. Unavailable
// inputs contribute 0 and are listed in Breakdown.Degraded.
func CalculateEnvironmentalBoost(in EnvironmentalInputs) Breakdown {
	var b Breakdown

	if in.Lux != nil && isUsable(*in.Lux) && *in.Lux >= 0 {
		b.LuxComponent = luxComponent(*in.Lux)
	} else {
		b.Degraded = append(b.Degraded, "lux")
	}

	switch {
	case in.WeatherCondition != "":
		weight, known := weatherComponent(in.WeatherCondition)
		b.WeatherComponent = weight
		if !known {
			b.Degraded = append(b.Degraded, "weather_unknown")
		}
	case in.CloudCoverage != nil && isUsable(*in.CloudCoverage):
		b.WeatherComponent = cloudCoverageComponent(*in.CloudCoverage)
	default:
		b.Degraded = append(b.Degraded, "weather")
	}

	b.SeasonalComponent = seasonalComponent(in.Now.Month())
	b.Raw = b.LuxComponent + b.WeatherComponent + b.SeasonalComponent
	b.TimeMultiplier = timeGateMultiplier(in.Now)

	scaled := int(math.RoundToEven(float64(b.Raw) * b.TimeMultiplier))

	switch {
	case scaled > MaxEnvironmentalBoost:
		b.Boost = MaxEnvironmentalBoost
		b.LimitingFactor = LimitCeiling
	case scaled < 0:
		b.Boost = 0
		b.LimitingFactor = LimitFloor
	case b.TimeMultiplier < 1.0 && b.Raw > 0:
		b.Boost = scaled
		b.LimitingFactor = LimitTimeGate
	default:
		b.Boost = scaled
		b.LimitingFactor = LimitNone
	}

	return b
}

func isUsable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
