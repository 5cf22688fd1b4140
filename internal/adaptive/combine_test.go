package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-adaptive/internal/boundary"
)

func intPtr(v int) *int { return &v }

func TestBoostCap(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{0, 30},
		{20, 30},
		{34, 30},
		{35, 30},
		{40, 35},
		{44, 39},
		{45, 50},
		{100, 50},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BoostCap(tt.width), "width %d", tt.width)
	}
}

func TestCombine_NarrowRangeIsCapped(t *testing.T) {
	zone := boundary.ZoneRange{ZoneID: "hallway", BrightnessMin: 45, BrightnessMax: 80}

	res := Combine(zone, Contributions{Manual: 20, Environmental: 17})

	assert.Equal(t, StatusCapped, res.Status)
	assert.Equal(t, 37, res.RawOffset)
	assert.Equal(t, 30, res.AppliedOffset)
	require.NotNil(t, res.Cap)
	assert.Equal(t, CapEvent{ZoneID: "hallway", Raw: 37, Applied: 30, Width: 35}, *res.Cap)

	require.NotNil(t, res.Boundaries)
	assert.Equal(t, 75, res.Boundaries.MinBrightness)
	assert.Equal(t, 80, res.Boundaries.MaxBrightness)
	assert.False(t, res.Boundaries.Collapsed)
}

func TestCombine_WideRangeUncapped(t *testing.T) {
	zone := boundary.ZoneRange{ZoneID: "living_room", BrightnessMin: 45, BrightnessMax: 100}

	res := Combine(zone, Contributions{Environmental: 12, Sunset: 8})

	assert.Equal(t, StatusOK, res.Status)
	assert.Nil(t, res.Cap)
	assert.Equal(t, 20, res.AppliedOffset)
	assert.Equal(t, 65, res.Boundaries.MinBrightness)
	assert.Equal(t, 100, res.Boundaries.MaxBrightness)
}

func TestCombine_ManualOffsetsEndToEnd(t *testing.T) {
	zone := boundary.ZoneRange{
		ZoneID:        "living_room",
		BrightnessMin: 45,
		BrightnessMax: 100,
		ColorTempMin:  intPtr(2250),
		ColorTempMax:  intPtr(2950),
	}

	res := Combine(zone, Contributions{Manual: 20, ManualWarmth: -500})

	require.NotNil(t, res.Boundaries)
	assert.Equal(t, boundary.Boundaries{
		ZoneID:        "living_room",
		MinBrightness: 65,
		MaxBrightness: 100,
		MinColorTemp:  intPtr(2250),
		MaxColorTemp:  intPtr(2450),
	}, *res.Boundaries)
}

func TestCombine_NegativeOffsetsAreNotCapped(t *testing.T) {
	zone := boundary.ZoneRange{ZoneID: "den", BrightnessMin: 45, BrightnessMax: 100}

	res := Combine(zone, Contributions{Manual: -40, Scene: -30})

	assert.Equal(t, -70, res.AppliedOffset)
	assert.Nil(t, res.Cap)
	assert.Equal(t, StatusCollapsed, res.Status)
	assert.Equal(t, 45, res.Boundaries.MinBrightness)
	assert.Equal(t, 45, res.Boundaries.MaxBrightness)
	assert.True(t, res.Boundaries.Collapsed)
}

func TestCombine_IntermediatesAreClamped(t *testing.T) {
	zone := boundary.ZoneRange{
		ZoneID:        "study",
		BrightnessMin: 0,
		BrightnessMax: 10,
		ColorTempMin:  intPtr(2250),
		ColorTempMax:  intPtr(2950),
	}

	res := Combine(zone, Contributions{Manual: 100, Scene: 150, ManualWarmth: -2500, SceneWarmth: -1500})

	require.NotNil(t, res.Boundaries, res.Error)
	assert.Equal(t, 30, res.AppliedOffset)
	assert.Equal(t, 10, res.Boundaries.MinBrightness)
	assert.Equal(t, 10, res.Boundaries.MaxBrightness)
	assert.Equal(t, StatusCollapsed, res.Status)
	assert.Equal(t, 2250, *res.Boundaries.MinColorTemp)
	assert.Equal(t, 2250, *res.Boundaries.MaxColorTemp)
}

func TestCombine_InvalidRange(t *testing.T) {
	zone := boundary.ZoneRange{ZoneID: "broken", BrightnessMin: 80, BrightnessMax: 20}

	res := Combine(zone, Contributions{Manual: 10})

	assert.Equal(t, StatusInvalidRange, res.Status)
	assert.Nil(t, res.Boundaries)
	assert.NotEmpty(t, res.Error)
}

func TestCombine_ZeroIsIdentity(t *testing.T) {
	zone := boundary.ZoneRange{ZoneID: "kitchen", BrightnessMin: 30, BrightnessMax: 90}

	res := Combine(zone, Contributions{})

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 30, res.Boundaries.MinBrightness)
	assert.Equal(t, 90, res.Boundaries.MaxBrightness)
}
