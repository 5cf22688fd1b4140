package adaptive

import (
	"context"
	"sync"
	"time"
)

// TickMonitor remembers the latest tick for readers outside the loop, such as
// the health endpoint
type TickMonitor struct {
	mu      sync.RWMutex
	last    time.Time
	trigger string
	capped  int
	ticks   uint64
}

// NewTickMonitor creates an empty monitor
func NewTickMonitor() *TickMonitor {
	return &TickMonitor{}
}

// RecordTick implements EventSink
func (m *TickMonitor) RecordTick(ctx context.Context, event TickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// sinks run concurrently; keep the newest
	if event.Timestamp.Before(m.last) {
		m.ticks++
		return nil
	}
	m.last = event.Timestamp
	m.trigger = event.Trigger
	m.capped = len(event.CapEvents)
	m.ticks++
	return nil
}

// LastTick returns the timestamp of the newest tick, zero before the first one
func (m *TickMonitor) LastTick() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Details summarises the newest tick for diagnostics
func (m *TickMonitor) Details() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	details := map[string]interface{}{
		"ticks":        m.ticks,
		"last_trigger": m.trigger,
		"capped_zones": m.capped,
	}
	if !m.last.IsZero() {
		details["last_tick"] = m.last.UTC().Format(time.RFC3339)
	}
	return details
}
