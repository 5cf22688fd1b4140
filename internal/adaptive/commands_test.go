package adaptive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saaga0h/jeeves-adaptive/internal/offsets"
	"github.com/saaga0h/jeeves-adaptive/internal/timer"
	"github.com/saaga0h/jeeves-adaptive/internal/wake"
	"github.com/saaga0h/jeeves-adaptive/pkg/mqtt"
)

func apply(t *testing.T, f *fixture, topic, payload string) error {
	t.Helper()
	cmd, err := parseCommand(topic, []byte(payload))
	require.NoError(t, err)
	return cmd(context.Background(), f.ctrl)
}

func TestParseCommand_Manual(t *testing.T) {
	f := newFixture(t, testZones())

	require.NoError(t, apply(t, f, mqtt.TopicCommandManual, `{"brightness":20,"warmth":-500}`))
	assert.Equal(t, 20, f.ctrl.Offsets().ManualBrightness)
	assert.False(t, f.ctrl.timers.AnyActive())

	require.NoError(t, apply(t, f, mqtt.TopicCommandAdjust, `{"brightness":-5,"temporary":true}`))
	assert.Equal(t, 15, f.ctrl.Offsets().ManualBrightness)
	assert.Equal(t, -500, f.ctrl.Offsets().ManualWarmth)
	assert.True(t, f.ctrl.timers.IsActive("living_room"))
	assert.True(t, f.ctrl.timers.IsActive("bedroom"))

	require.NoError(t, apply(t, f, mqtt.TopicCommandManual, `{"reset":true}`))
	offs := f.ctrl.Offsets()
	assert.False(t, offs.HasManual())
}

func TestParseCommand_Preset(t *testing.T) {
	f := newFixture(t, testZones())

	require.NoError(t, apply(t, f, mqtt.TopicCommandPreset, `{"name":"movie"}`))
	assert.Equal(t, "movie", f.ctrl.Offsets().ActivePreset)

	err := apply(t, f, mqtt.TopicCommandPreset, `{"name":"disco"}`)
	assert.True(t, errors.Is(err, offsets.ErrUnknownPreset))

	_, err = parseCommand(mqtt.TopicCommandPreset, []byte(`{}`))
	assert.Error(t, err)
}

func TestParseCommand_Timers(t *testing.T) {
	f := newFixture(t, testZones())

	require.NoError(t, apply(t, f, mqtt.TopicCommandTimerStart, `{"zone":"living_room","duration_sec":600}`))
	states := f.ctrl.Timers()
	assert.True(t, states[1].ManualActive)
	assert.Equal(t, 600*time.Second, states[1].Duration)
	assert.False(t, states[0].ManualActive)

	err := apply(t, f, mqtt.TopicCommandTimerStart, `{"zone":"garage"}`)
	assert.True(t, errors.Is(err, timer.ErrUnknownZone))

	require.NoError(t, apply(t, f, mqtt.TopicCommandTimerStart, `{"zone":"all"}`))
	assert.True(t, f.ctrl.timers.IsActive("bedroom"))

	require.NoError(t, apply(t, f, mqtt.TopicCommandTimerCancel, `{"zone":"bedroom"}`))
	assert.False(t, f.ctrl.timers.IsActive("bedroom"))
	assert.True(t, f.ctrl.timers.IsActive("living_room"))

	require.NoError(t, apply(t, f, mqtt.TopicCommandTimerCancel, ``))
	assert.False(t, f.ctrl.timers.AnyActive())

	_, err = parseCommand(mqtt.TopicCommandTimerStart, []byte(`{"duration_sec":-1}`))
	assert.Error(t, err)
}

func TestParseCommand_Alarm(t *testing.T) {
	f := newFixture(t, testZones())
	alarm := f.clock.Now().Add(time.Hour).Format(time.RFC3339)

	require.NoError(t, apply(t, f, mqtt.TopicCommandAlarmSet, `{"alarm_time":"`+alarm+`"}`))
	assert.True(t, f.ctrl.wake.Armed())

	require.NoError(t, apply(t, f, mqtt.TopicCommandAlarmClear, ``))
	assert.False(t, f.ctrl.wake.Armed())

	past := f.clock.Now().Add(-time.Hour).Format(time.RFC3339)
	cmd, err := parseAlarm([]byte(`"` + past + `"`))
	require.NoError(t, err)
	assert.ErrorIs(t, cmd(context.Background(), f.ctrl), wake.ErrInvalidAlarm)

	_, err = parseAlarm([]byte(`{"alarm_time":"tomorrow"}`))
	assert.Error(t, err)

	require.NoError(t, apply(t, f, mqtt.TopicCommandAlarmSet, `{"alarm_time":"`+alarm+`"}`))
	cmd, err = parseAlarm([]byte(`{"alarm_time":null}`))
	require.NoError(t, err)
	require.NoError(t, cmd(context.Background(), f.ctrl))
	assert.False(t, f.ctrl.wake.Armed(), "empty alarm clears")
}

func TestParseCommand_UnknownTopic(t *testing.T) {
	_, err := parseCommand("automation/command/adaptive/unknown", nil)
	assert.Error(t, err)

	_, err = parseCommand(mqtt.TopicCommandManual, []byte(`{"brightness":`))
	assert.Error(t, err)
}

func TestParseSkipNext(t *testing.T) {
	tests := []struct {
		payload string
		want    bool
		wantErr bool
	}{
		{`{"skip":true}`, true, false},
		{`{"skip":false}`, false, false},
		{`{"state":"on"}`, true, false},
		{`true`, true, false},
		{`"off"`, false, false},
		{`maybe`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := parseSkipNext([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
