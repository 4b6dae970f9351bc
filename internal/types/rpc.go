package types

import (
	"encoding/json"
	"time"
)

// ServerFields is the authoritative subset of state returned by the backend.
// Nil fields are left untouched by the merge.
type ServerFields struct {
	Money           *int              `json:"money,omitempty"`
	DirtyMoney      *int              `json:"dirtyMoney,omitempty"`
	Heat            *int              `json:"heat,omitempty"`
	PersonalHeat    *int              `json:"personalHeat,omitempty"`
	Reputation      *int              `json:"reputation,omitempty"`
	XP              *int              `json:"xp,omitempty"`
	Level           *int              `json:"level,omitempty"`
	SkillPoints     *int              `json:"skillPoints,omitempty"`
	MeritPoints     *int              `json:"meritPoints,omitempty"`
	HP              *int              `json:"hp,omitempty"`
	MaxHP           *int              `json:"maxHp,omitempty"`
	Unlocked        []string          `json:"unlocked"`
	District        *string           `json:"district,omitempty"`
	Inventory       map[string]int    `json:"inventory"`
	Vehicles        []Vehicle         `json:"vehicles"`
	ActiveVehicleID *string           `json:"activeVehicleId,omitempty"`
	Gear            []string          `json:"gear"`
	Equipped        map[string]string `json:"equipped"`
	Businesses      []Business        `json:"businesses"`
	Prison          *PrisonState      `json:"prison,omitempty"`
	Free            *bool             `json:"free,omitempty"`
	Counters        *Counters         `json:"counters,omitempty"`
	Daily           *DailyFlags       `json:"daily,omitempty"`
}

// MergePayload carries ServerFields into MERGE_SERVER_FIELDS
type MergePayload struct {
	Fields ServerFields `json:"fields"`
}

// RPCRequest is the body of every backend call
type RPCRequest struct {
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RPCResponse is the reply of every backend call
type RPCResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// InitPlayerRequest registers a new player
type InitPlayerRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// InitPlayerData is returned by init_player
type InitPlayerData struct {
	PlayerID string      `json:"playerId"`
	Token    string      `json:"token"`
	State    *WorldState `json:"state"`
}

// Snapshot is the versioned persistence envelope of a WorldState
type Snapshot struct {
	Version  int         `json:"version"`
	PlayerID string      `json:"playerId"`
	Day      int         `json:"day"`
	SavedAt  time.Time   `json:"savedAt"`
	Checksum string      `json:"checksum"`
	State    *WorldState `json:"state"`
}

// StateSummary is pushed to websocket subscribers after authoritative changes
type StateSummary struct {
	PlayerID string `json:"playerId"`
	Day      int    `json:"day"`
	Money    int    `json:"money"`
	Heat     int    `json:"heat"`
	District string `json:"district"`
	Activity string `json:"activity"`
	Op       string `json:"op"`
}

// OpResult is the data of a server-authoritative operation. Applied is false
// when the action was a precondition no-op.
type OpResult struct {
	Applied       bool           `json:"applied"`
	Fields        ServerFields   `json:"fields"`
	Notifications []Notification `json:"notifications,omitempty"`
}

// SaveStateData is returned by save_state. Snapshot is the one that now wins.
type SaveStateData struct {
	Accepted bool      `json:"accepted"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}
