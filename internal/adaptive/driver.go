package adaptive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/jeeves-adaptive/internal/boundary"
	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
	"github.com/saaga0h/jeeves-adaptive/pkg/redis"
)

// Driver is the lighting driver handle the controller notifies
type Driver interface {
	ApplyBoundaries(ctx context.Context, b boundary.Boundaries) error
	SetManualControl(ctx context.Context, zoneID string, manual bool) error
}

// EventSink receives every tick event
type EventSink interface {
	RecordTick(ctx context.Context, event TickEvent) error
}

// MQTTDriver publishes boundaries and manual control flags for the driver
type MQTTDriver struct {
	mqtt   mqtt.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewMQTTDriver creates a driver publishing on the adaptive command topics
func NewMQTTDriver(client mqtt.Client, logger *slog.Logger) *MQTTDriver {
	return &MQTTDriver{mqtt: client, logger: logger, now: time.Now}
}

// ApplyBoundaries publishes a zone's boundaries, retained so a restarted
// driver picks them up
func (d *MQTTDriver) ApplyBoundaries(ctx context.Context, b boundary.Boundaries) error {
	msg := struct {
		boundary.Boundaries
		Timestamp string `json:"timestamp"`
	}{b, d.now().Format(time.RFC3339)}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal boundaries: %w", err)
	}

	topic := mqtt.AdaptiveBoundariesTopic(b.ZoneID)
	if err := d.mqtt.Publish(topic, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish boundaries: %w", err)
	}

	d.logger.Debug("Published boundaries",
		"zone", b.ZoneID,
		"min_brightness", b.MinBrightness,
		"max_brightness", b.MaxBrightness,
		"collapsed", b.Collapsed)
	return nil
}

// SetManualControl publishes the manual control flag of a zone
func (d *MQTTDriver) SetManualControl(ctx context.Context, zoneID string, manual bool) error {
	payload, err := json.Marshal(map[string]interface{}{
		"zone_id":        zoneID,
		"manual_control": manual,
		"timestamp":      d.now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal manual control: %w", err)
	}

	topic := mqtt.AdaptiveManualControlTopic(zoneID)
	if err := d.mqtt.Publish(topic, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish manual control: %w", err)
	}

	d.logger.Info("Published manual control", "zone", zoneID, "manual", manual)
	return nil
}

// TickPublisher publishes tick events on the adaptive context topic
type TickPublisher struct {
	mqtt mqtt.Client
}

// NewTickPublisher creates an EventSink over MQTT
func NewTickPublisher(client mqtt.Client) *TickPublisher {
	return &TickPublisher{mqtt: client}
}

// RecordTick implements EventSink
func (p *TickPublisher) RecordTick(ctx context.Context, event TickEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tick event: %w", err)
	}
	if err := p.mqtt.Publish(mqtt.TopicAdaptiveTick, 0, false, payload); err != nil {
		return fmt.Errorf("failed to publish tick event: %w", err)
	}
	return nil
}

// BoundaryCache keeps the latest boundaries of each zone in Redis for
// dashboards and other agents
type BoundaryCache struct {
	redis redis.Client
	ttl   time.Duration
}

// NewBoundaryCache creates an EventSink writing adaptive:boundaries:{zone}
func NewBoundaryCache(client redis.Client, ttl time.Duration) *BoundaryCache {
	return &BoundaryCache{redis: client, ttl: ttl}
}

// RecordTick implements EventSink
func (c *BoundaryCache) RecordTick(ctx context.Context, event TickEvent) error {
	for _, zone := range event.Zones {
		if zone.Boundaries == nil {
			continue
		}
		data, err := json.Marshal(zone.Boundaries)
		if err != nil {
			return fmt.Errorf("failed to marshal boundaries: %w", err)
		}
		if err := c.redis.Set(ctx, redis.AdaptiveBoundariesKey(zone.ZoneID), string(data), c.ttl); err != nil {
			return fmt.Errorf("failed to cache boundaries for %s: %w", zone.ZoneID, err)
		}
	}
	return nil
}
