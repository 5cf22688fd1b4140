package wake

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Defaults for the pre-alarm ramp
const (
	DefaultRampDuration = 15 * time.Minute
	DefaultMaxBoost     = 20
)

// ErrInvalidAlarm is returned when an alarm is not strictly in the future
var ErrInvalidAlarm = errors.New("invalid alarm")

// Status is an observability snapshot of the wake sequence
type Status struct {
	Armed         bool       `json:"armed"`
	AlarmTime     *time.Time `json:"alarm_time,omitempty"`
	WakeStartTime *time.Time `json:"wake_start_time,omitempty"`
	TargetZone    string     `json:"target_zone"`
	RampDuration  int        `json:"ramp_duration_sec"`
	MaxBoost      int        `json:"max_boost"`
	SkipNext      bool       `json:"skip_next"`
}

// Sequence ramps brightness for one target zone ahead of an alarm.
// It is either idle or armed; an armed sequence clears itself once the alarm
// time passes.
type Sequence struct {
	targetZone   string
	rampDuration time.Duration
	maxBoost     int

	alarmTime *time.Time
	skipNext  bool

	now    func() time.Time
	logger *slog.Logger
}

// NewSequence creates an idle wake sequence for the given zone
func NewSequence(targetZone string, rampDuration time.Duration, maxBoost int, logger *slog.Logger) *Sequence {
	if rampDuration <= 0 {
		rampDuration = DefaultRampDuration
	}
	if maxBoost <= 0 {
		maxBoost = DefaultMaxBoost
	}
	return &Sequence{
		targetZone:   targetZone,
		rampDuration: rampDuration,
		maxBoost:     maxBoost,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the time source, used by tests
func (s *Sequence) WithClock(now func() time.Time) *Sequence {
	s.now = now
	return s
}

// TargetZone returns the zone this sequence ramps
func (s *Sequence) TargetZone() string {
	return s.targetZone
}

// SetTargetZone moves the ramp to another zone
func (s *Sequence) SetTargetZone(zone string) {
	s.targetZone = zone
}

// SetAlarm arms the sequence. Times not strictly in the future are rejected
// and leave the previous state untouched.
func (s *Sequence) SetAlarm(alarm time.Time) error {
	now := s.now()
	if !alarm.After(now) {
		s.logger.Warn("Rejecting alarm not in the future",
			"alarm_time", alarm.Format(time.RFC3339),
			"now", now.Format(time.RFC3339))
		return fmt.Errorf("alarm %s is not after %s: %w", alarm.Format(time.RFC3339), now.Format(time.RFC3339), ErrInvalidAlarm)
	}

	s.alarmTime = &alarm
	s.logger.Info("Wake sequence armed",
		"target_zone", s.targetZone,
		"alarm_time", alarm.Format(time.RFC3339),
		"wake_start", s.wakeStart().Format(time.RFC3339))
	return nil
}

// ClearAlarm returns to idle; safe to call when already idle
func (s *Sequence) ClearAlarm() {
	if s.alarmTime != nil {
		s.logger.Info("Wake sequence cleared", "target_zone", s.targetZone)
	}
	s.alarmTime = nil
}

// SetSkipNext toggles the external "skip next wake" flag
func (s *Sequence) SetSkipNext(skip bool) {
	s.skipNext = skip
}

// Armed reports whether an alarm is pending
func (s *Sequence) Armed() bool {
	s.expire()
	return s.alarmTime != nil
}

// Boost returns the wake contribution for a zone at the current time
func (s *Sequence) Boost(zone string) int {
	if s.alarmTime == nil {
		return 0
	}
	if s.expire() {
		return 0
	}
	if zone != s.targetZone || s.skipNext {
		return 0
	}

	now := s.now()
	start := s.wakeStart()
	if now.Before(start) {
		return 0
	}

	progress := float64(now.Sub(start)) / float64(s.rampDuration)
	progress = math.Max(0, math.Min(1, progress))

	return int(math.Floor(progress * float64(s.maxBoost)))
}

// Status returns a snapshot for tick events
func (s *Sequence) Status() Status {
	s.expire()
	st := Status{
		Armed:        s.alarmTime != nil,
		TargetZone:   s.targetZone,
		RampDuration: int(s.rampDuration.Seconds()),
		MaxBoost:     s.maxBoost,
		SkipNext:     s.skipNext,
	}
	if s.alarmTime != nil {
		alarm := *s.alarmTime
		start := s.wakeStart()
		st.AlarmTime = &alarm
		st.WakeStartTime = &start
	}
	return st
}

// expire clears a passed alarm and reports whether it did
func (s *Sequence) expire() bool {
	if s.alarmTime == nil {
		return false
	}
	if s.now().Before(*s.alarmTime) {
		return false
	}
	s.logger.Info("Alarm time reached, wake sequence complete",
		"target_zone", s.targetZone,
		"alarm_time", s.alarmTime.Format(time.RFC3339))
	s.alarmTime = nil
	return true
}

func (s *Sequence) wakeStart() time.Time {
	return s.alarmTime.Add(-s.rampDuration)
}
