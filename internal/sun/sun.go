package sun

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// Provider reports the sun elevation in degrees above the horizon
type Provider interface {
	Elevation(t time.Time) (float64, bool)
}

// Calculator computes sun elevation for a fixed location
type Calculator struct {
	latitude  float64
	longitude float64
}

// NewCalculator creates a Provider for the given coordinates
func NewCalculator(latitude, longitude float64) *Calculator {
	return &Calculator{latitude: latitude, longitude: longitude}
}

// Elevation implements Provider
func (c *Calculator) Elevation(t time.Time) (float64, bool) {
	position := suncalc.GetPosition(t, c.latitude, c.longitude)

	// Sun altitude is in radians
	degrees := position.Altitude * (180.0 / math.Pi)
	if math.IsNaN(degrees) {
		return 0, false
	}
	return degrees, true
}

// Static is a Provider with a fixed answer
type Static struct {
	Degrees float64
	Known   bool
}

// Elevation implements Provider
func (s Static) Elevation(time.Time) (float64, bool) {
	return s.Degrees, s.Known
}
