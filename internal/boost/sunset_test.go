package boost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateSunsetBoost(t *testing.T) {
	tests := []struct {
		name       string
		lux        *float64
		elevation  *float64
		boost      int
		skipReason string
	}{
		{"horizon on dark day", ptr(500), ptr(0), 12, ""},
		{"top of window", ptr(500), ptr(4), 0, ""},
		{"bottom of window", ptr(500), ptr(-4), 25, ""},
		{"quarter window", ptr(500), ptr(2), 6, ""},
		{"bright day", ptr(3000), ptr(0), 0, SkipBrightDay},
		{"above window", ptr(100), ptr(4.5), 0, SkipOutsideWindow},
		{"below window", ptr(100), ptr(-10), 0, SkipOutsideWindow},
		{"missing sun", ptr(100), nil, 0, SkipNoSunData},
		{"missing lux", nil, ptr(0), 0, SkipNoLux},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CalculateSunsetBoost(tt.lux, tt.elevation)
			assert.Equal(t, tt.boost, res.Boost)
			assert.Equal(t, tt.skipReason, res.SkipReason)
		})
	}
}

func TestCalculateSunsetBoost_BrightAlwaysZero(t *testing.T) {
	for e := -10.0; e <= 10; e += 0.5 {
		for _, lux := range []float64{3000, 5000, 80000} {
			if res := CalculateSunsetBoost(ptr(lux), ptr(e)); res.Boost != 0 {
				t.Errorf("lux %.0f elevation %.1f: expected 0, got %d", lux, e, res.Boost)
			}
		}
	}
}
