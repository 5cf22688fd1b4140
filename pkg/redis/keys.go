package redis

import "fmt"

// Key construction helpers

// EnvironmentalSensorKey returns the key for environmental sensor data (sorted set)
// written by the collector agent.
// Pattern: sensor:environmental:{location}
func EnvironmentalSensorKey(location string) string {
	return fmt.Sprintf("sensor:environmental:%s", location)
}

// AdaptiveTimersKey returns the key holding persisted zone timer state (string)
// Pattern: adaptive:timers
func AdaptiveTimersKey() string {
	return "adaptive:timers"
}

// AdaptiveBoundariesKey returns the key caching the last boundaries of a zone (string)
// Pattern: adaptive:boundaries:{zone}
func AdaptiveBoundariesKey(zone string) string {
	return fmt.Sprintf("adaptive:boundaries:%s", zone)
}
