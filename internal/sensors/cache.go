package sensors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Cache keeps the latest reading per sensor id, fed from MQTT messages
type Cache struct {
	mu       sync.RWMutex
	readings map[string]Reading
	maxAge   time.Duration
	now      func() time.Time
}

// NewCache creates a cache. Readings older than maxAge are treated as missing;
// zero keeps readings forever.
func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		readings: make(map[string]Reading),
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for staleness checks
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Set stores a reading directly
func (c *Cache) Set(id string, reading Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reading.Timestamp.IsZero() {
		reading.Timestamp = c.now()
	}
	c.readings[id] = reading
}

// Read implements Reader
func (c *Cache) Read(id string) (Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reading, ok := c.readings[id]
	if !ok {
		return Reading{}, false
	}
	if c.maxAge > 0 && c.now().Sub(reading.Timestamp) > c.maxAge {
		return Reading{}, false
	}
	return reading, true
}

// Update parses a sensor payload and stores it under id.
// Returns true when the stored state changed.
func (c *Cache) Update(id, sensorType string, payload []byte) (bool, error) {
	reading, err := ParsePayload(sensorType, payload)
	if err != nil {
		return false, fmt.Errorf("sensor %s: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if reading.Timestamp.IsZero() {
		reading.Timestamp = c.now()
	}
	prev, existed := c.readings[id]
	c.readings[id] = reading
	return !existed || prev.State != reading.State, nil
}

// Len returns the number of cached sensors
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.readings)
}

// ParsePayload extracts a reading from a sensor message. Accepted shapes are the
// collector trigger ({"data": {...}, "stored_at": ...}), a bare state object
// ({"state": ..., "timestamp": ...}) and a plain text value.
func ParsePayload(sensorType string, payload []byte) (Reading, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return Reading{}, fmt.Errorf("empty payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return Reading{State: strings.Trim(trimmed, `"`)}, nil
	}

	var envelope map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return Reading{}, fmt.Errorf("failed to parse payload: %w", err)
	}

	fields := envelope
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		fields = data
	}

	var state string
	var found bool
	for _, key := range []string{"state", sensorType, "value"} {
		if key == "" {
			continue
		}
		if v, ok := fields[key]; ok && v != nil {
			state, found = stateString(v), true
			break
		}
	}
	if !found {
		return Reading{}, fmt.Errorf("payload has no state")
	}

	reading := Reading{State: state}
	for _, key := range []string{"stored_at", "timestamp"} {
		for _, m := range []map[string]interface{}{envelope, fields} {
			if ts, ok := m[key].(string); ok {
				if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
					reading.Timestamp = parsed
					return reading, nil
				}
			}
		}
	}
	return reading, nil
}

func stateString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
