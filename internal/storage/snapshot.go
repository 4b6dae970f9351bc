package storage

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/vida-loka-empire/internal/types"
	"lukechampine.com/blake3"
)

// SnapshotVersion is the envelope layout written by this build
const SnapshotVersion = 1

// Checksum is the blake3-256 digest of the state's canonical JSON
func Checksum(state *types.WorldState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewSnapshot wraps a state in a persistence envelope
func NewSnapshot(state *types.WorldState, savedAt time.Time) (*types.Snapshot, error) {
	if state == nil {
		return nil, fmt.Errorf("failed to snapshot: nil state")
	}
	sum, err := Checksum(state)
	if err != nil {
		return nil, err
	}
	return &types.Snapshot{
		Version:  SnapshotVersion,
		PlayerID: state.PlayerID,
		Day:      state.Day,
		SavedAt:  savedAt.UTC(),
		Checksum: sum,
		State:    state,
	}, nil
}

// Newer reports whether a is strictly newer than b, comparing day then save time.
// Any snapshot is newer than nil.
func Newer(a, b *types.Snapshot) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if a.Day != b.Day {
		return a.Day > b.Day
	}
	return a.SavedAt.After(b.SavedAt)
}

// Encode serializes a snapshot envelope
func Encode(snap *types.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

type rawSnapshot struct {
	Version  int             `json:"version"`
	PlayerID string          `json:"playerId"`
	Day      int             `json:"day"`
	SavedAt  time.Time       `json:"savedAt"`
	Checksum string          `json:"checksum"`
	State    json.RawMessage `json:"state"`
}

// Decode parses a snapshot envelope, migrating the embedded state.
// A bare WorldState without an envelope is accepted as a legacy save.
func Decode(data []byte) (*types.Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	payload := raw.State
	if len(payload) == 0 || string(payload) == "null" {
		payload = data
	}

	state, err := MigrateState(payload)
	if err != nil {
		return nil, err
	}
	snap := &types.Snapshot{
		Version:  raw.Version,
		PlayerID: raw.PlayerID,
		Day:      raw.Day,
		SavedAt:  raw.SavedAt,
		Checksum: raw.Checksum,
		State:    state,
	}
	if snap.PlayerID == "" {
		snap.PlayerID = state.PlayerID
	}
	if snap.Day == 0 {
		snap.Day = state.Day
	}
	return snap, nil
}
