package adaptive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-adaptive/internal/boost"
	"github.com/saaga0h/jeeves-adaptive/internal/dispatch"
	"github.com/saaga0h/jeeves-adaptive/internal/offsets"
	"github.com/saaga0h/jeeves-adaptive/internal/sensors"
	"github.com/saaga0h/jeeves-adaptive/internal/sun"
	"github.com/saaga0h/jeeves-adaptive/internal/timer"
	"github.com/saaga0h/jeeves-adaptive/internal/wake"
	"github.com/saaga0h/jeeves-adaptive/internal/zones"
)

// Tick triggers recorded on events
const (
	TriggerPeriodic = "periodic"
	TriggerStartup  = "startup"
	TriggerSensor   = "sensor"
	TriggerCommand  = "command"
)

// SensorIDs names the sensors feeding the environmental and sunset boosts
type SensorIDs struct {
	Lux           string
	Weather       string
	CloudCoverage string
}

// TickEvent is the structured record of one recomputation
type TickEvent struct {
	ID            uuid.UUID          `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Trigger       string             `json:"trigger"`
	Offsets       offsets.State      `json:"offsets"`
	Environmental boost.Breakdown    `json:"environmental"`
	Sunset        boost.SunsetResult `json:"sunset"`
	Wake          wake.Status        `json:"wake"`
	WakeBoost     int                `json:"wake_boost"`
	Zones         []ZoneResult       `json:"zones"`
	CapEvents     []CapEvent         `json:"cap_events,omitempty"`
	Expired       []string           `json:"expired"`
}

// Deps are the collaborators of a Controller
type Deps struct {
	Zones       []zones.Zone
	Presets     offsets.Presets
	Sensors     sensors.Reader
	SensorIDs   SensorIDs
	Sun         sun.Provider
	Wake        *wake.Sequence
	Store       timer.Store
	Driver      Driver
	Sinks       []EventSink
	Dispatcher  *dispatch.Dispatcher
	BaseTimeout time.Duration
}

// Controller owns all adaptive state. It is not safe for concurrent use; the
// agent calls it from a single goroutine.
type Controller struct {
	zones      []zones.Zone
	presets    offsets.Presets
	offsets    offsets.State
	timers     *timer.Manager
	wake       *wake.Sequence
	sensors    sensors.Reader
	sensorIDs  SensorIDs
	sun        sun.Provider
	driver     Driver
	sinks      []EventSink
	dispatcher *dispatch.Dispatcher

	lastTick *TickEvent

	now    func() time.Time
	logger *slog.Logger
}

// NewController creates a controller and registers every zone with its timer
func NewController(deps Deps, logger *slog.Logger) *Controller {
	presets := deps.Presets
	if presets == nil {
		presets = offsets.NewPresets(nil)
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = dispatch.New(dispatch.DefaultTimeout, logger)
	}
	sunProvider := deps.Sun
	if sunProvider == nil {
		sunProvider = sun.Static{}
	}

	c := &Controller{
		zones:      deps.Zones,
		presets:    presets,
		offsets:    offsets.State{ActivePreset: offsets.NeutralPreset},
		wake:       deps.Wake,
		sensors:    deps.Sensors,
		sensorIDs:  deps.SensorIDs,
		sun:        sunProvider,
		driver:     deps.Driver,
		sinks:      deps.Sinks,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger,
	}

	var notifier timer.Notifier
	if deps.Driver != nil {
		notifier = deps.Driver
	}
	c.timers = timer.NewManager(deps.Store, notifier, c, dispatcher, deps.BaseTimeout, logger)
	for _, z := range deps.Zones {
		c.timers.Register(z.ID)
	}

	return c
}

// WithClock replaces the time source of the controller and its state machines
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	c.timers.WithClock(now)
	if c.wake != nil {
		c.wake.WithClock(now)
	}
	return c
}

// Restore loads persisted timer state
func (c *Controller) Restore(ctx context.Context) error {
	return c.timers.Restore(ctx)
}

// Tick expires timers, recomputes every source and emits boundaries for all
// zones.
func (c *Controller) Tick(ctx context.Context, trigger string) *TickEvent {
	expired := c.timers.Update(ctx)
	for _, id := range expired {
		c.restoreAdaptive(id)
	}
	if len(expired) > 0 && !c.timers.AnyActive() && c.offsets.HasManual() {
		c.logger.Info("Last manual timer expired, resetting manual offsets",
			"manual_brightness", c.offsets.ManualBrightness,
			"manual_warmth", c.offsets.ManualWarmth)
		c.offsets.ResetManual()
	}

	now := c.now()
	env := c.environmental(now)
	sunset := boost.CalculateSunsetBoost(c.lux(), c.elevation(now))

	var wakeBoost int
	var wakeStatus wake.Status
	if c.wake != nil {
		wakeBoost = c.wake.Boost(c.wake.TargetZone())
		wakeStatus = c.wake.Status()
	}

	event := &TickEvent{
		ID:            uuid.New(),
		Timestamp:     now,
		Trigger:       trigger,
		Offsets:       c.offsets,
		Environmental: env,
		Sunset:        sunset,
		Wake:          wakeStatus,
		WakeBoost:     wakeBoost,
		Zones:         make([]ZoneResult, 0, len(c.zones)),
		Expired:       expired,
	}
	if event.Expired == nil {
		event.Expired = []string{}
	}

	for _, z := range c.zones {
		contrib := Contributions{
			Manual:       c.offsets.ManualBrightness,
			Scene:        c.offsets.SceneBrightness,
			ManualWarmth: c.offsets.ManualWarmth,
			SceneWarmth:  c.offsets.SceneWarmth,
		}
		if z.EnvironmentalEnabled() {
			contrib.Environmental = env.Boost
		}
		if z.SunsetEnabled() {
			contrib.Sunset = sunset.Boost
		}
		if z.WakeEnabled() && c.wake != nil && z.ID == c.wake.TargetZone() {
			contrib.Wake = wakeBoost
		}

		res := Combine(z.Range(), contrib)
		event.Zones = append(event.Zones, res)

		switch res.Status {
		case StatusInvalidRange:
			c.logger.Warn("Skipping zone with invalid range", "zone", z.ID, "error", res.Error)
			continue
		case StatusCollapsed:
			c.logger.Info("Zone boundaries collapsed", "zone", z.ID, "applied_offset", res.AppliedOffset)
		}
		if res.Cap != nil {
			event.CapEvents = append(event.CapEvents, *res.Cap)
			c.logger.Info("Boost capped to preserve adaptive range",
				"zone", z.ID,
				"raw", res.Cap.Raw,
				"applied", res.Cap.Applied,
				"width", res.Cap.Width)
		}
		c.applyBoundaries(res)
	}

	c.logger.Debug("Tick complete",
		"trigger", trigger,
		"environmental_boost", env.Boost,
		"sunset_boost", sunset.Boost,
		"wake_boost", wakeBoost,
		"expired", len(expired),
		"capped", len(event.CapEvents))

	c.emit(*event)
	c.lastTick = event
	return event
}

// LastTick returns the most recent tick event, or nil before the first tick
func (c *Controller) LastTick() *TickEvent {
	return c.lastTick
}

// Offsets returns the current offset layers
func (c *Controller) Offsets() offsets.State {
	return c.offsets
}

// Timers returns the timer state of every zone
func (c *Controller) Timers() []timer.ZoneState {
	return c.timers.States()
}

// SetManual replaces the manual offsets. A temporary change also starts the
// override timer of every zone.
func (c *Controller) SetManual(ctx context.Context, brightness, warmth int, temporary bool) {
	c.offsets.SetManual(brightness, warmth)
	c.logger.Info("Manual offsets set",
		"brightness", c.offsets.ManualBrightness,
		"warmth", c.offsets.ManualWarmth,
		"temporary", temporary)
	if temporary {
		c.StartAllTimers(ctx)
	}
}

// AdjustManual steps the manual offsets, as a button press does
func (c *Controller) AdjustManual(ctx context.Context, deltaBrightness, deltaWarmth int, temporary bool) {
	c.SetManual(ctx, c.offsets.ManualBrightness+deltaBrightness, c.offsets.ManualWarmth+deltaWarmth, temporary)
}

// ResetManual clears the manual layer without touching the scene layer
func (c *Controller) ResetManual() {
	c.offsets.ResetManual()
	c.logger.Info("Manual offsets reset")
}

// ApplyPreset sets the scene layer. Timers and manual offsets are untouched.
func (c *Controller) ApplyPreset(name string) error {
	preset, err := c.presets.Lookup(name)
	if err != nil {
		return err
	}
	if preset.Name == offsets.NeutralPreset {
		c.offsets.ResetScene()
	} else {
		c.offsets.ApplyPreset(preset)
	}
	c.logger.Info("Preset applied",
		"preset", preset.Name,
		"brightness_offset", c.offsets.SceneBrightness,
		"warmth_offset", c.offsets.SceneWarmth)
	return nil
}

// StartTimer puts a zone under manual control; zero duration is smart
func (c *Controller) StartTimer(ctx context.Context, zoneID string, duration time.Duration) (time.Time, error) {
	return c.timers.Start(ctx, zoneID, duration)
}

// CancelTimer returns a zone to adaptive control
func (c *Controller) CancelTimer(ctx context.Context, zoneID string) error {
	return c.timers.Cancel(ctx, zoneID)
}

// CancelAllTimers returns every zone to adaptive control
func (c *Controller) CancelAllTimers(ctx context.Context) {
	for _, z := range c.zones {
		if err := c.timers.Cancel(ctx, z.ID); err != nil {
			c.logger.Warn("Failed to cancel timer", "zone", z.ID, "error", err)
		}
	}
}

// SetAlarm arms the wake sequence, optionally retargeting it first
func (c *Controller) SetAlarm(alarm time.Time, zoneID string) error {
	if c.wake == nil {
		return fmt.Errorf("wake sequence not configured")
	}
	if zoneID != "" && !c.hasZone(zoneID) {
		return fmt.Errorf("zone %s: %w", zoneID, timer.ErrUnknownZone)
	}
	prev := c.wake.TargetZone()
	if zoneID != "" {
		c.wake.SetTargetZone(zoneID)
	}
	if err := c.wake.SetAlarm(alarm); err != nil {
		c.wake.SetTargetZone(prev)
		return err
	}
	return nil
}

// ClearAlarm disarms the wake sequence
func (c *Controller) ClearAlarm() {
	if c.wake != nil {
		c.wake.ClearAlarm()
	}
}

// SetSkipNext toggles skipping the next wake ramp
func (c *Controller) SetSkipNext(skip bool) {
	if c.wake != nil {
		c.wake.SetSkipNext(skip)
		c.logger.Info("Wake skip flag set", "skip_next", skip)
	}
}

// SunElevation implements timer.DurationHints
func (c *Controller) SunElevation() (float64, bool) {
	return c.sun.Elevation(c.now())
}

// EnvironmentalBoost implements timer.DurationHints
func (c *Controller) EnvironmentalBoost() int {
	return c.environmental(c.now()).Boost
}

func (c *Controller) environmental(now time.Time) boost.Breakdown {
	return boost.CalculateEnvironmentalBoost(boost.EnvironmentalInputs{
		Lux:              c.lux(),
		WeatherCondition: sensors.String(c.sensors, c.sensorIDs.Weather),
		CloudCoverage:    sensors.Float(c.sensors, c.sensorIDs.CloudCoverage),
		Now:              now,
	})
}

func (c *Controller) lux() *float64 {
	return sensors.Float(c.sensors, c.sensorIDs.Lux)
}

func (c *Controller) elevation(now time.Time) *float64 {
	e, ok := c.sun.Elevation(now)
	if !ok {
		return nil
	}
	return &e
}

// StartAllTimers puts every zone under manual control with a smart duration
func (c *Controller) StartAllTimers(ctx context.Context) {
	for _, z := range c.zones {
		if _, err := c.timers.Start(ctx, z.ID, 0); err != nil {
			c.logger.Warn("Failed to start timer", "zone", z.ID, "error", err)
		}
	}
}

func (c *Controller) hasZone(id string) bool {
	for _, z := range c.zones {
		if z.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) restoreAdaptive(zoneID string) {
	if c.driver == nil {
		return
	}
	c.dispatcher.GoLatest("restore_adaptive", "manual_control/"+zoneID, func(ctx context.Context) error {
		return c.driver.SetManualControl(ctx, zoneID, false)
	}, "zone", zoneID)
}

func (c *Controller) applyBoundaries(res ZoneResult) {
	if c.driver == nil || res.Boundaries == nil {
		return
	}
	b := *res.Boundaries
	c.dispatcher.GoLatest("apply_boundaries", "boundaries/"+b.ZoneID, func(ctx context.Context) error {
		return c.driver.ApplyBoundaries(ctx, b)
	}, "zone", b.ZoneID)
}

func (c *Controller) emit(event TickEvent) {
	for _, sink := range c.sinks {
		c.dispatcher.Go("tick_event", func(ctx context.Context) error {
			return sink.RecordTick(ctx, event)
		}, "event_id", event.ID.String())
	}
}
