package sensors

import (
	"strconv"
	"strings"
	"time"
)

// Reading is the latest known value of a sensor
type Reading struct {
	State     string
	Timestamp time.Time
}

// Float parses the reading state as a number
func (r Reading) Float() (float64, bool) {
	state := strings.TrimSpace(r.State)
	switch strings.ToLower(state) {
	case "", "unknown", "unavailable", "none":
		return 0, false
	}
	v, err := strconv.ParseFloat(state, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Available reports whether the reading carries a usable state
func (r Reading) Available() bool {
	switch strings.ToLower(strings.TrimSpace(r.State)) {
	case "", "unknown", "unavailable":
		return false
	}
	return true
}

// Reader looks up the latest reading for a sensor id
type Reader interface {
	Read(id string) (Reading, bool)
}

// Chain asks each reader in order and returns the first available reading
type Chain []Reader

// Read implements Reader
func (c Chain) Read(id string) (Reading, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if reading, ok := r.Read(id); ok && reading.Available() {
			return reading, true
		}
	}
	return Reading{}, false
}

// Float reads a numeric sensor, returning nil when it is unavailable
func Float(r Reader, id string) *float64 {
	if r == nil || id == "" {
		return nil
	}
	reading, ok := r.Read(id)
	if !ok {
		return nil
	}
	v, ok := reading.Float()
	if !ok {
		return nil
	}
	return &v
}

// String reads a textual sensor, returning "" when it is unavailable
func String(r Reader, id string) string {
	if r == nil || id == "" {
		return ""
	}
	reading, ok := r.Read(id)
	if !ok || !reading.Available() {
		return ""
	}
	return reading.State
}
