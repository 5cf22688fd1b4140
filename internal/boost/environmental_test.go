package boost

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

// noon in April: seasonal 0, time gate 1.0
var springNoon = time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC)

func TestLuxComponent(t *testing.T) {
	tests := []struct {
		lux      float64
		expected int
	}{
		{0, 15},
		{9.9, 15},
		{10, 10},
		{24, 10},
		{25, 7},
		{49, 7},
		{50, 5},
		{99, 5},
		{100, 3},
		{199, 3},
		{200, 1},
		{399, 1},
		{400, 0},
		{20000, 0},
	}

	for _, tt := range tests {
		if got := luxComponent(tt.lux); got != tt.expected {
			t.Errorf("luxComponent(%.1f) = %d, want %d", tt.lux, got, tt.expected)
		}
	}
}

func TestTimeGateMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		hour     int
		minute   int
		expected float64
	}{
		{"midnight", 0, 0, 0.0},
		{"early morning", 5, 59, 0.0},
		{"six sharp", 6, 0, 0.0},
		{"half past six", 6, 30, 0.0},
		{"before seven", 6, 59, 0.0},
		{"seven sharp", 7, 0, 0.7},
		{"eight sharp", 8, 0, 0.7},
		{"half past eight", 8, 30, 0.7},
		{"nine sharp", 9, 0, 1.0},
		{"afternoon", 17, 59, 1.0},
		{"evening", 18, 0, 0.7},
		{"late evening", 21, 59, 0.7},
		{"night", 22, 0, 0.0},
		{"before midnight", 23, 59, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2024, time.April, 10, tt.hour, tt.minute, 0, 0, time.UTC)
			assert.Equal(t, tt.expected, timeGateMultiplier(now))
		})
	}
}

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"partlycloudy", "partlycloudy"},
		{"Partly Cloudy", "partlycloudy"},
		{"partly_cloudy", "partlycloudy"},
		{"lightning-rainy", "lightningrainy"},
		{"Ensoleillé", "ensoleille"},
		{"  CLEAR-night ", "clearnight"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeCondition(tt.in))
		})
	}
}

func TestWeatherComponent(t *testing.T) {
	weight, ok := weatherComponent("Overcast")
	assert.True(t, ok)
	assert.Equal(t, 5, weight)

	weight, ok = weatherComponent("Thunder-storm")
	assert.True(t, ok)
	assert.Equal(t, 10, weight)

	weight, ok = weatherComponent("volcanic ash")
	assert.False(t, ok)
	assert.Equal(t, 0, weight)
}

func TestCalculateEnvironmentalBoost_Components(t *testing.T) {
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:              ptr(30),
		WeatherCondition: "rainy",
		Now:              springNoon,
	})

	assert.Equal(t, 7, b.LuxComponent)
	assert.Equal(t, 7, b.WeatherComponent)
	assert.Equal(t, 0, b.SeasonalComponent)
	assert.Equal(t, 14, b.Raw)
	assert.Equal(t, 1.0, b.TimeMultiplier)
	assert.Equal(t, 14, b.Boost)
	assert.Equal(t, LimitNone, b.LimitingFactor)
	assert.Empty(t, b.Degraded)
}

func TestCalculateEnvironmentalBoost_CeilingAndSeason(t *testing.T) {
	winterNoon := time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:              ptr(2),
		WeatherCondition: "fog",
		Now:              winterNoon,
	})

	assert.Equal(t, 33, b.Raw)
	assert.Equal(t, MaxEnvironmentalBoost, b.Boost)
	assert.Equal(t, LimitCeiling, b.LimitingFactor)
}

func TestCalculateEnvironmentalBoost_SummerFloor(t *testing.T) {
	summerNoon := time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:              ptr(10000),
		WeatherCondition: "sunny",
		Now:              summerNoon,
	})

	assert.Equal(t, -3, b.Raw)
	assert.Equal(t, 0, b.Boost)
	assert.Equal(t, LimitFloor, b.LimitingFactor)
}

func TestCalculateEnvironmentalBoost_TimeGateRounding(t *testing.T) {
	evening := time.Date(2024, time.April, 10, 19, 0, 0, 0, time.UTC)
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:              ptr(60),
		WeatherCondition: "cloudy",
		Now:              evening,
	})

	// 10 * 0.7 = 7
	assert.Equal(t, 10, b.Raw)
	assert.Equal(t, 7, b.Boost)
	assert.Equal(t, LimitTimeGate, b.LimitingFactor)
}

func TestCalculateEnvironmentalBoost_DegradedInputs(t *testing.T) {
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux: ptr(math.NaN()),
		Now: springNoon,
	})

	assert.Equal(t, 0, b.Boost)
	assert.Contains(t, b.Degraded, "lux")
	assert.Contains(t, b.Degraded, "weather")
}

func TestCalculateEnvironmentalBoost_CloudCoverageFallback(t *testing.T) {
	b := CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:           ptr(500),
		CloudCoverage: ptr(90),
		Now:           springNoon,
	})
	assert.Equal(t, 5, b.WeatherComponent)

	b = CalculateEnvironmentalBoost(EnvironmentalInputs{
		Lux:              ptr(500),
		WeatherCondition: "sunny",
		CloudCoverage:    ptr(90),
		Now:              springNoon,
	})
	assert.Equal(t, 0, b.WeatherComponent, "condition wins over coverage")
}

func TestCalculateEnvironmentalBoost_NightIsZero(t *testing.T) {
	hours := []int{22, 23, 0, 1, 2, 3, 4, 5, 6}
	minutes := []int{0, 30, 59}
	for _, hour := range hours {
		for _, minute := range minutes {
			for _, lux := range []float64{0, 5, 30, 150} {
				now := time.Date(2024, time.December, 20, hour, minute, 0, 0, time.UTC)
				b := CalculateEnvironmentalBoost(EnvironmentalInputs{
					Lux:              ptr(lux),
					WeatherCondition: "pouring",
					Now:              now,
				})
				if b.Boost != 0 {
					t.Errorf("%02d:%02d lux %.0f: expected 0, got %d", hour, minute, lux, b.Boost)
				}
			}
		}
	}
}

func TestCalculateEnvironmentalBoost_MorningShoulder(t *testing.T) {
	tests := []struct {
		name       string
		hour       int
		minute     int
		multiplier float64
		boost      int
	}{
		{"half past six", 6, 30, 0.0, 0},
		{"before seven", 6, 59, 0.0, 0},
		{"half past eight", 8, 30, 0.7, 23},
		{"nine sharp", 9, 0, 1.0, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2024, time.December, 20, tt.hour, tt.minute, 0, 0, time.UTC)
			b := CalculateEnvironmentalBoost(EnvironmentalInputs{
				Lux:              ptr(5),
				WeatherCondition: "pouring",
				Now:              now,
			})
			assert.Equal(t, tt.multiplier, b.TimeMultiplier)
			assert.Equal(t, tt.boost, b.Boost)
		})
	}
}

func TestCalculateEnvironmentalBoost_MonotonicInLux(t *testing.T) {
	moments := []time.Time{
		springNoon,
		time.Date(2024, time.January, 15, 7, 30, 0, 0, time.UTC),
		time.Date(2024, time.July, 15, 19, 0, 0, 0, time.UTC),
	}
	conditions := []string{"sunny", "cloudy", "fog", ""}

	for _, now := range moments {
		for _, condition := range conditions {
			prev := math.MaxInt
			for lux := 0.0; lux <= 1000; lux += 2.5 {
				b := CalculateEnvironmentalBoost(EnvironmentalInputs{
					Lux:              ptr(lux),
					WeatherCondition: condition,
					Now:              now,
				})
				if b.Boost > prev {
					t.Fatalf("boost increased at lux %.1f (%s, %s): %d > %d", lux, condition, now, b.Boost, prev)
				}
				prev = b.Boost
			}
		}
	}
}
