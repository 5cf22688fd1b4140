// Package history stores adaptive tick events in Postgres for later analysis
// of boosts, caps and manual overrides.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/saaga0h/jeeves-adaptive/internal/adaptive"
	"github.com/saaga0h/jeeves-adaptive/pkg/postgres"
)

const schema = `
	CREATE TABLE IF NOT EXISTS adaptive_tick_events (
		id                  UUID PRIMARY KEY,
		recorded_at         TIMESTAMPTZ NOT NULL,
		trigger             TEXT NOT NULL,
		environmental_boost INT NOT NULL,
		sunset_boost        INT NOT NULL,
		wake_boost          INT NOT NULL,
		manual_brightness   INT NOT NULL,
		active_preset       TEXT,
		expired_zones       TEXT[] NOT NULL DEFAULT '{}',
		capped_zones        TEXT[] NOT NULL DEFAULT '{}',
		payload             JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS adaptive_tick_events_recorded_at_idx
		ON adaptive_tick_events (recorded_at);
`

// Recorder is an adaptive.EventSink backed by Postgres
type Recorder struct {
	pg     postgres.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder over a connected client
func NewRecorder(pg postgres.Client, logger *slog.Logger) *Recorder {
	return &Recorder{pg: pg, logger: logger, now: time.Now}
}

// EnsureSchema creates the events table when missing
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.pg.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tick history schema: %w", err)
	}
	return nil
}

// RecordTick implements adaptive.EventSink
func (r *Recorder) RecordTick(ctx context.Context, event adaptive.TickEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal tick event: %w", err)
	}

	capped := make([]string, 0, len(event.CapEvents))
	for _, c := range event.CapEvents {
		capped = append(capped, c.ZoneID)
	}
	expired := event.Expired
	if expired == nil {
		expired = []string{}
	}

	var preset interface{}
	if event.Offsets.ActivePreset != "" {
		preset = event.Offsets.ActivePreset
	}

	query := `
		INSERT INTO adaptive_tick_events (
			id, recorded_at, trigger, environmental_boost, sunset_boost,
			wake_boost, manual_brightness, active_preset, expired_zones,
			capped_zones, payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = r.pg.Exec(ctx, query,
		event.ID.String(),
		event.Timestamp,
		event.Trigger,
		event.Environmental.Boost,
		event.Sunset.Boost,
		event.WakeBoost,
		event.Offsets.ManualBrightness,
		preset,
		pq.Array(expired),
		pq.Array(capped),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tick event: %w", err)
	}

	if len(capped) > 0 {
		r.logger.Debug("Tick event stored", "id", event.ID, "capped_zones", capped)
	}
	return nil
}

// Prune deletes events older than the retention period. A non-positive
// retention keeps everything.
func (r *Recorder) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}

	res, err := r.pg.Exec(ctx,
		`DELETE FROM adaptive_tick_events WHERE recorded_at < $1`,
		r.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune tick history: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned rows: %w", err)
	}
	if deleted > 0 {
		r.logger.Info("Pruned tick history", "deleted", deleted, "retention", retention)
	}
	return deleted, nil
}
