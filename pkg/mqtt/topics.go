package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the adaptive lighting agent
const (
	// Processed sensor topics (input)
	TopicSensorBase = "automation/sensor"

	// Context topics (input)
	TopicAlarmContext = "automation/context/alarm/+"
	TopicWakeSkipNext = "automation/context/wake/skip_next"
	TopicAdaptiveTick = "automation/context/adaptive/tick"

	// Commands accepted by the adaptive agent
	TopicCommandManual      = "automation/command/adaptive/manual"
	TopicCommandAdjust      = "automation/command/adaptive/adjust"
	TopicCommandPreset      = "automation/command/adaptive/preset"
	TopicCommandTimerStart  = "automation/command/adaptive/timer/start"
	TopicCommandTimerCancel = "automation/command/adaptive/timer/cancel"
	TopicCommandAlarmSet    = "automation/command/adaptive/alarm/set"
	TopicCommandAlarmClear  = "automation/command/adaptive/alarm/clear"
)

// ProcessedSensorTopic constructs a processed sensor topic for a specific sensor type and location
// Pattern: automation/sensor/{sensor_type}/{location}
func ProcessedSensorTopic(sensorType, location string) string {
	return fmt.Sprintf("automation/sensor/%s/%s", sensorType, location)
}

// SensorIDFromTopic returns "{sensor_type}/{location}" for a processed sensor topic
func SensorIDFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, TopicSensorBase+"/")
	if !ok || strings.Count(rest, "/") != 1 {
		return "", false
	}
	return rest, true
}

// AdaptiveBoundariesTopic is where the driver receives the boundaries of a zone
// Pattern: automation/command/adaptive/{zone}/boundaries
func AdaptiveBoundariesTopic(zone string) string {
	return fmt.Sprintf("automation/command/adaptive/%s/boundaries", zone)
}

// AdaptiveManualControlTopic is where the driver receives the manual control flag of a zone
// Pattern: automation/command/adaptive/{zone}/manual_control
func AdaptiveManualControlTopic(zone string) string {
	return fmt.Sprintf("automation/command/adaptive/%s/manual_control", zone)
}
