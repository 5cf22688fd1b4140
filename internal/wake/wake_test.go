package wake

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSequence(clock *fakeClock) *Sequence {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSequence("bedroom", 15*time.Minute, 20, logger).WithClock(clock.Now)
}

func TestSequence_Ramp(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)

	require.NoError(t, seq.SetAlarm(clock.Now().Add(30*time.Minute)))
	assert.True(t, seq.Armed())
	assert.Equal(t, 0, seq.Boost("bedroom"), "before wake start")

	// wake start is alarm - 15min = now + 15min
	clock.Advance(15 * time.Minute)
	assert.Equal(t, 0, seq.Boost("bedroom"), "exactly at wake start")

	clock.Advance(7*time.Minute + 30*time.Second)
	assert.Equal(t, 10, seq.Boost("bedroom"), "halfway through ramp")

	clock.Advance(7 * time.Minute)
	assert.Equal(t, 19, seq.Boost("bedroom"))

	clock.Advance(30 * time.Second)
	assert.Equal(t, 0, seq.Boost("bedroom"), "at alarm time")
	assert.False(t, seq.Armed(), "sequence self-clears")
}

func TestSequence_Monotonic(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)
	require.NoError(t, seq.SetAlarm(clock.Now().Add(20*time.Minute)))

	prev := 0
	for i := 0; i < 20*60-1; i += 7 {
		boost := seq.Boost("bedroom")
		if boost < prev {
			t.Fatalf("boost decreased at +%ds: %d < %d", i, boost, prev)
		}
		prev = boost
		clock.Advance(7 * time.Second)
	}
}

func TestSequence_OtherZoneAndSkip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)
	require.NoError(t, seq.SetAlarm(clock.Now().Add(10*time.Minute)))

	clock.Advance(5 * time.Minute)
	assert.Greater(t, seq.Boost("bedroom"), 0)
	assert.Equal(t, 0, seq.Boost("kitchen"))

	seq.SetSkipNext(true)
	assert.Equal(t, 0, seq.Boost("bedroom"))
	assert.True(t, seq.Armed())
}

func TestSequence_RejectsPastAlarm(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)

	alarm := clock.Now().Add(time.Hour)
	require.NoError(t, seq.SetAlarm(alarm))

	err := seq.SetAlarm(clock.Now())
	assert.ErrorIs(t, err, ErrInvalidAlarm)

	err = seq.SetAlarm(clock.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidAlarm)

	status := seq.Status()
	require.NotNil(t, status.AlarmTime)
	assert.True(t, alarm.Equal(*status.AlarmTime), "previous alarm kept")
}

func TestSequence_ClearIsIdempotent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)

	seq.ClearAlarm()
	assert.False(t, seq.Armed())

	require.NoError(t, seq.SetAlarm(clock.Now().Add(5*time.Minute)))
	seq.ClearAlarm()
	seq.ClearAlarm()
	assert.False(t, seq.Armed())
	assert.Equal(t, 0, seq.Boost("bedroom"))
}

func TestSequence_Status(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, time.March, 4, 6, 0, 0, 0, time.UTC)}
	seq := newTestSequence(clock)
	alarm := clock.Now().Add(30 * time.Minute)
	require.NoError(t, seq.SetAlarm(alarm))

	st := seq.Status()
	assert.True(t, st.Armed)
	assert.Equal(t, "bedroom", st.TargetZone)
	assert.Equal(t, 900, st.RampDuration)
	require.NotNil(t, st.WakeStartTime)
	assert.True(t, alarm.Add(-15*time.Minute).Equal(*st.WakeStartTime))
}
