package sensors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

const illuminancePrefix = "illuminance/"

// RedisIlluminance reads the latest lux value stored by the collector agent in
// the sensor:environmental:{location} sorted set. It serves ids of the form
// "illuminance/{location}".
type RedisIlluminance struct {
	redis   redis.Client
	maxAge  time.Duration
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewRedisIlluminance creates a reader over the collector's environmental data
func NewRedisIlluminance(client redis.Client, maxAge time.Duration, logger *slog.Logger) *RedisIlluminance {
	return &RedisIlluminance{
		redis:   client,
		maxAge:  maxAge,
		timeout: 2 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to bound the query window
func (r *RedisIlluminance) WithClock(now func() time.Time) *RedisIlluminance {
	r.now = now
	return r
}

// Read implements Reader
func (r *RedisIlluminance) Read(id string) (Reading, bool) {
	location, ok := strings.CutPrefix(id, illuminancePrefix)
	if !ok || location == "" {
		return Reading{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	reading, err := r.Latest(ctx, location)
	if err != nil {
		r.logger.Warn("Failed to read illuminance from Redis", "location", location, "error", err)
		return Reading{}, false
	}
	if reading == nil {
		return Reading{}, false
	}
	return *reading, true
}

// Latest returns the newest illuminance reading within maxAge, or nil if none
func (r *RedisIlluminance) Latest(ctx context.Context, location string) (*Reading, error) {
	key := redis.EnvironmentalSensorKey(location)
	now := r.now()
	maxScore := float64(now.UnixMilli())
	minScore := float64(now.Add(-r.maxAge).UnixMilli())

	// Mixed temperature/illuminance entries share the key, so scan a few
	members, err := r.redis.ZRevRangeByScoreWithScores(ctx, key, maxScore, minScore, 0, 10)
	if err != nil {
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	for _, item := range members {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(item.Member), &data); err != nil {
			r.logger.Warn("Failed to parse JSON", "error", err, "key", key)
			continue
		}

		lux, ok := data["illuminance"].(float64)
		if !ok {
			continue
		}

		timestamp := time.UnixMilli(int64(item.Score))
		if tsStr, ok := data["timestamp"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, tsStr); err == nil {
				timestamp = parsed
			}
		}

		return &Reading{State: stateString(lux), Timestamp: timestamp}, nil
	}

	return nil, nil
}
