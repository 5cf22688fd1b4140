package timer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/saaga0h/jeeves-adaptive/internal/dispatch"
)

// Smart duration parameters
const (
	DefaultBaseDuration = 1800 * time.Second
	DarkSkyElevation    = -6.0
	DarkSkyMultiplier   = 1.5
	HighBoostThreshold  = 10
	HighBoostMultiplier = 1.3
)

// ErrUnknownZone is returned for operations on zones that were never registered
var ErrUnknownZone = errors.New("unknown zone")

// Notifier tells the lighting driver whether a zone is under manual control
type Notifier interface {
	SetManualControl(ctx context.Context, zoneID string, manual bool) error
}

// DurationHints exposes the ambient signals used for smart durations
type DurationHints interface {
	SunElevation() (float64, bool)
	EnvironmentalBoost() int
}

// ZoneState is the in-memory timer state of one zone
type ZoneState struct {
	ZoneID       string
	ManualActive bool
	Expiry       *time.Time
	Duration     time.Duration
	LastTrigger  *time.Time
}

// Manager runs the Idle/ManualActive state machine for every zone.
// It is the only writer of the timer store. Callers serialize access.
type Manager struct {
	zones        map[string]*ZoneState
	store        Store
	notifier     Notifier
	hints        DurationHints
	dispatcher   *dispatch.Dispatcher
	baseDuration time.Duration

	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates a manager; baseDuration <= 0 uses DefaultBaseDuration
func NewManager(store Store, notifier Notifier, hints DurationHints, dispatcher *dispatch.Dispatcher, baseDuration time.Duration, logger *slog.Logger) *Manager {
	if baseDuration <= 0 {
		baseDuration = DefaultBaseDuration
	}
	return &Manager{
		zones:        make(map[string]*ZoneState),
		store:        store,
		notifier:     notifier,
		hints:        hints,
		dispatcher:   dispatcher,
		baseDuration: baseDuration,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the time source, used by tests
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Register creates an idle state for a zone if it does not exist yet
func (m *Manager) Register(zoneID string) {
	if _, exists := m.zones[zoneID]; exists {
		return
	}
	m.zones[zoneID] = &ZoneState{ZoneID: zoneID}
}

// SmartDuration computes the override length from ambient darkness.
// The multipliers stack, so the longest result is 1.95x the base.
func (m *Manager) SmartDuration() time.Duration {
	multiplier := 1.0
	if m.hints != nil {
		if elevation, ok := m.hints.SunElevation(); ok && elevation < DarkSkyElevation {
			multiplier *= DarkSkyMultiplier
		}
		if m.hints.EnvironmentalBoost() > HighBoostThreshold {
			multiplier *= HighBoostMultiplier
		}
	}
	seconds := math.Round(float64(m.baseDuration/time.Second) * multiplier)
	return time.Duration(seconds) * time.Second
}

// Start puts a zone under manual control. A zero duration uses SmartDuration.
// A new start supersedes any pending timer for the zone.
func (m *Manager) Start(ctx context.Context, zoneID string, duration time.Duration) (time.Time, error) {
	state, ok := m.zones[zoneID]
	if !ok {
		return time.Time{}, fmt.Errorf("zone %s: %w", zoneID, ErrUnknownZone)
	}

	smart := duration <= 0
	if smart {
		duration = m.SmartDuration()
	}

	now := m.now()
	expiry := now.Add(duration)
	state.ManualActive = true
	state.Expiry = &expiry
	state.Duration = duration
	state.LastTrigger = &now

	m.logger.Info("Manual control started",
		"zone", zoneID,
		"duration_sec", int(duration.Seconds()),
		"smart_duration", smart,
		"expires_at", expiry.Format(time.RFC3339))

	m.persist(ctx)
	m.notify(zoneID, true)

	return expiry, nil
}

// Cancel returns a zone to adaptive control
func (m *Manager) Cancel(ctx context.Context, zoneID string) error {
	state, ok := m.zones[zoneID]
	if !ok {
		return fmt.Errorf("zone %s: %w", zoneID, ErrUnknownZone)
	}

	wasActive := state.ManualActive
	state.ManualActive = false
	state.Expiry = nil

	m.logger.Info("Manual control cancelled", "zone", zoneID, "was_active", wasActive)

	m.persist(ctx)
	m.notify(zoneID, false)
	return nil
}

// Update expires due timers and returns the zones that went idle. The caller
// restores adaptive control for each of them.
func (m *Manager) Update(ctx context.Context) []string {
	now := m.now()
	var expired []string

	for _, id := range m.zoneIDs() {
		state := m.zones[id]
		if !state.ManualActive || state.Expiry == nil {
			continue
		}
		if state.Expiry.After(now) {
			continue
		}
		state.ManualActive = false
		state.Expiry = nil
		expired = append(expired, id)
	}

	if len(expired) > 0 {
		m.logger.Info("Manual control timers expired", "zones", expired)
		m.persist(ctx)
	}

	return expired
}

// IsActive reports whether a zone is under manual control
func (m *Manager) IsActive(zoneID string) bool {
	state, ok := m.zones[zoneID]
	return ok && state.ManualActive
}

// AnyActive reports whether any zone is under manual control
func (m *Manager) AnyActive() bool {
	for _, state := range m.zones {
		if state.ManualActive {
			return true
		}
	}
	return false
}

// States returns copies of all zone states sorted by zone id
func (m *Manager) States() []ZoneState {
	out := make([]ZoneState, 0, len(m.zones))
	for _, id := range m.zoneIDs() {
		out = append(out, *m.zones[id])
	}
	return out
}

// Snapshot builds the persisted representation of all zones
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{Version: CurrentVersion, Zones: make(map[string]Record, len(m.zones))}
	for id, state := range m.zones {
		snap.Zones[id] = Record{
			ZoneID:              id,
			ManualControlActive: state.ManualActive,
			TimerExpiry:         state.Expiry,
			TimerDuration:       int(state.Duration.Seconds()),
			LastManualTrigger:   state.LastTrigger,
		}
	}
	return snap
}

// Restore loads persisted state for registered zones. Records whose expiry
// already passed come back idle. Zones still active are re-announced to the
// driver.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	snap, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore timers: %w", err)
	}
	if snap == nil {
		m.logger.Info("No persisted timer state found")
		return nil
	}

	now := m.now()
	restored, normalized := 0, 0

	for id, rec := range snap.Zones {
		state, ok := m.zones[id]
		if !ok {
			m.logger.Warn("Dropping timer state for unregistered zone", "zone", id)
			continue
		}

		state.Duration = time.Duration(rec.TimerDuration) * time.Second
		state.LastTrigger = rec.LastManualTrigger
		state.ManualActive = rec.ManualControlActive
		state.Expiry = rec.TimerExpiry

		if state.ManualActive && (state.Expiry == nil || !state.Expiry.After(now)) {
			state.ManualActive = false
			state.Expiry = nil
			normalized++
			continue
		}
		if !state.ManualActive {
			state.Expiry = nil
		}
		restored++
	}

	m.logger.Info("Restored timer state",
		"version", snap.Version,
		"zones", restored,
		"normalized_stale", normalized)

	if normalized > 0 {
		m.persist(ctx)
	}
	for _, id := range m.zoneIDs() {
		if m.zones[id].ManualActive {
			m.notify(id, true)
		}
	}
	return nil
}

// persist writes every zone. Failures are logged; memory stays authoritative.
func (m *Manager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(ctx, m.Snapshot()); err != nil {
		m.logger.Error("Failed to persist timer state", "error", err)
	}
}

func (m *Manager) notify(zoneID string, manual bool) {
	if m.notifier == nil || m.dispatcher == nil {
		return
	}
	m.dispatcher.GoLatest("manual_control", "manual_control/"+zoneID, func(ctx context.Context) error {
		return m.notifier.SetManualControl(ctx, zoneID, manual)
	}, "zone", zoneID, "manual", manual)
}

func (m *Manager) zoneIDs() []string {
	ids := make([]string, 0, len(m.zones))
	for id := range m.zones {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
