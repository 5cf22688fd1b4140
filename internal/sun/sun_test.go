package sun

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Elevation(t *testing.T) {
	helsinki := NewCalculator(60.1695, 24.9354)

	tests := []struct {
		name  string
		at    time.Time
		above bool
	}{
		{"midsummer noon", time.Date(2024, time.June, 21, 10, 0, 0, 0, time.UTC), true},
		{"midwinter midnight", time.Date(2024, time.December, 21, 22, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elevation, ok := helsinki.Elevation(tt.at)
			require.True(t, ok)
			assert.Equal(t, tt.above, elevation > 0, "elevation %.1f", elevation)
			assert.True(t, elevation >= -90 && elevation <= 90)
		})
	}
}

func TestCalculator_NoonHigherThanEvening(t *testing.T) {
	helsinki := NewCalculator(60.1695, 24.9354)
	noon, _ := helsinki.Elevation(time.Date(2024, time.March, 20, 10, 20, 0, 0, time.UTC))
	evening, _ := helsinki.Elevation(time.Date(2024, time.March, 20, 16, 0, 0, 0, time.UTC))
	assert.Greater(t, noon, evening)
	assert.InDelta(t, 30, noon, 3, "equinox noon is about 90 minus latitude")
}

func TestStatic(t *testing.T) {
	e, ok := Static{Degrees: -7, Known: true}.Elevation(time.Now())
	assert.True(t, ok)
	assert.Equal(t, -7.0, e)

	_, ok = Static{}.Elevation(time.Now())
	assert.False(t, ok)
}
