package timer

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// CurrentVersion is the persisted schema version written by this package
const CurrentVersion = 2

// Record is the persisted form of one zone's timer state
type Record struct {
	ZoneID              string     `json:"zone_id"`
	ManualControlActive bool       `json:"manual_control_active"`
	TimerExpiry         *time.Time `json:"timer_expiry"`
	TimerDuration       int        `json:"timer_duration"`
	LastManualTrigger   *time.Time `json:"last_manual_trigger"`
}

// Snapshot is the versioned envelope holding all zone records
type Snapshot struct {
	Version int               `json:"version"`
	Zones   map[string]Record `json:"zones"`
}

// migration upgrades a payload from one version to the next
type migration func(data []byte) ([]byte, error)

// migrations is keyed by the version a migration upgrades from
var migrations = map[int]migration{
	1: migrateV1,
}

// legacyRecord is the unversioned layout: a bare zone map whose records carry
// no zone id and may hold fractional durations
type legacyRecord struct {
	ManualControlActive bool       `json:"manual_control_active"`
	TimerExpiry         *time.Time `json:"timer_expiry"`
	TimerDuration       float64    `json:"timer_duration"`
	LastManualTrigger   *time.Time `json:"last_manual_trigger"`
}

func migrateV1(data []byte) ([]byte, error) {
	var legacy map[string]legacyRecord
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, fmt.Errorf("failed to parse v1 timer state: %w", err)
	}

	snap := Snapshot{Version: 2, Zones: make(map[string]Record, len(legacy))}
	for zoneID, rec := range legacy {
		snap.Zones[zoneID] = Record{
			ZoneID:              zoneID,
			ManualControlActive: rec.ManualControlActive,
			TimerExpiry:         rec.TimerExpiry,
			TimerDuration:       int(math.Round(rec.TimerDuration)),
			LastManualTrigger:   rec.LastManualTrigger,
		}
	}

	return json.Marshal(snap)
}

// detectVersion reads the envelope version; payloads without one are v1
func detectVersion(data []byte) int {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil || probe.Version == nil {
		return 1
	}
	return *probe.Version
}

// Encode serializes a snapshot at the current version
func Encode(snap Snapshot) ([]byte, error) {
	snap.Version = CurrentVersion
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timer state: %w", err)
	}
	return data, nil
}

// Decode parses a payload of any known version, migrating it forward
func Decode(data []byte) (*Snapshot, error) {
	version := detectVersion(data)
	if version > CurrentVersion {
		return nil, fmt.Errorf("timer state version %d is newer than supported %d", version, CurrentVersion)
	}

	for version < CurrentVersion {
		migrate, ok := migrations[version]
		if !ok {
			return nil, fmt.Errorf("no migration from timer state version %d", version)
		}
		upgraded, err := migrate(data)
		if err != nil {
			return nil, err
		}
		data = upgraded
		version = detectVersion(data)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse timer state: %w", err)
	}
	if snap.Zones == nil {
		snap.Zones = make(map[string]Record)
	}
	return &snap, nil
}
