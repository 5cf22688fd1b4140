package adaptive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
)

// AllZones targets every zone in timer commands
const AllZones = "all"

// command is a parsed request, applied on the agent loop
type command func(ctx context.Context, c *Controller) error

type manualPayload struct {
	Brightness int  `json:"brightness"`
	Warmth     int  `json:"warmth"`
	Temporary  bool `json:"temporary"`
	Reset      bool `json:"reset"`
}

type presetPayload struct {
	Name string `json:"name"`
}

type timerPayload struct {
	Zone        string `json:"zone"`
	DurationSec int    `json:"duration_sec"`
}

type alarmPayload struct {
	AlarmTime string `json:"alarm_time"`
	Zone      string `json:"zone"`
}

// parseCommand decodes a message on one of the adaptive command topics
func parseCommand(topic string, payload []byte) (command, error) {
	switch topic {
	case mqtt.TopicCommandManual, mqtt.TopicCommandAdjust:
		var p manualPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		adjust := topic == mqtt.TopicCommandAdjust
		return func(ctx context.Context, c *Controller) error {
			switch {
			case p.Reset:
				c.ResetManual()
			case adjust:
				c.AdjustManual(ctx, p.Brightness, p.Warmth, p.Temporary)
			default:
				c.SetManual(ctx, p.Brightness, p.Warmth, p.Temporary)
			}
			return nil
		}, nil

	case mqtt.TopicCommandPreset:
		var p presetPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, fmt.Errorf("preset name is required")
		}
		return func(ctx context.Context, c *Controller) error {
			return c.ApplyPreset(p.Name)
		}, nil

	case mqtt.TopicCommandTimerStart:
		var p timerPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		if p.DurationSec < 0 {
			return nil, fmt.Errorf("duration must not be negative")
		}
		duration := time.Duration(p.DurationSec) * time.Second
		return func(ctx context.Context, c *Controller) error {
			if p.Zone == "" || p.Zone == AllZones {
				c.StartAllTimers(ctx)
				return nil
			}
			_, err := c.StartTimer(ctx, p.Zone, duration)
			return err
		}, nil

	case mqtt.TopicCommandTimerCancel:
		var p timerPayload
		if err := decode(payload, &p); err != nil {
			return nil, err
		}
		return func(ctx context.Context, c *Controller) error {
			if p.Zone == "" || p.Zone == AllZones {
				c.CancelAllTimers(ctx)
				return nil
			}
			return c.CancelTimer(ctx, p.Zone)
		}, nil

	case mqtt.TopicCommandAlarmSet:
		return parseAlarm(payload)

	case mqtt.TopicCommandAlarmClear:
		return func(ctx context.Context, c *Controller) error {
			c.ClearAlarm()
			return nil
		}, nil
	}

	return nil, fmt.Errorf("unknown command topic %s", topic)
}

// parseAlarm handles alarm commands and alarm monitor context messages. An
// empty alarm time clears the sequence.
func parseAlarm(payload []byte) (command, error) {
	var p alarmPayload
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return nil, fmt.Errorf("failed to parse alarm: %w", err)
		}
	} else {
		p.AlarmTime = strings.Trim(trimmed, `"`)
	}

	if p.AlarmTime == "" || p.AlarmTime == "null" {
		return func(ctx context.Context, c *Controller) error {
			c.ClearAlarm()
			return nil
		}, nil
	}

	alarm, err := time.Parse(time.RFC3339, p.AlarmTime)
	if err != nil {
		return nil, fmt.Errorf("alarm time %q must be RFC 3339: %w", p.AlarmTime, err)
	}
	return func(ctx context.Context, c *Controller) error {
		return c.SetAlarm(alarm, p.Zone)
	}, nil
}

// parseSkipNext accepts a JSON {"skip": bool}, a bare boolean or on/off
func parseSkipNext(payload []byte) (bool, error) {
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		var p struct {
			Skip  *bool  `json:"skip"`
			State string `json:"state"`
		}
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return false, fmt.Errorf("failed to parse skip flag: %w", err)
		}
		if p.Skip != nil {
			return *p.Skip, nil
		}
		trimmed = p.State
	}

	switch strings.ToLower(strings.Trim(trimmed, `"`)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	skip, err := strconv.ParseBool(strings.Trim(trimmed, `"`))
	if err != nil {
		return false, fmt.Errorf("invalid skip flag %q", trimmed)
	}
	return skip, nil
}

func decode(payload []byte, v interface{}) error {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("failed to parse command: %w", err)
	}
	return nil
}
