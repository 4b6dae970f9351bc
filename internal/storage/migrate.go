package storage

import (
	"encoding/json"
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

// CurrentSchemaVersion matches the WorldState layout of this build
const CurrentSchemaVersion = 5

type migration func(m map[string]any)

// migrations[i] upgrades schema i to i+1. Every step only fills what is
// missing, so running it twice is harmless.
var migrations = []migration{
	migrateSplitHeat,
	migrateCorruption,
	migrateConfinement,
	migrateTypedPhaseTwo,
	migrateDailyFlags,
}

func setDefault(m map[string]any, key string, v any) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

func intField(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// v0 -> v1: one heat value becomes personal heat plus per-vehicle heat
func migrateSplitHeat(m map[string]any) {
	heat, _ := intField(m, "heat")
	setDefault(m, "personalHeat", float64(heat))
	setDefault(m, "activeVehicleId", "")
	vehicles, _ := m["vehicles"].([]any)
	for _, v := range vehicles {
		if vm, ok := v.(map[string]any); ok {
			setDefault(vm, "heat", float64(0))
			setDefault(vm, "condition", float64(100))
		}
	}
}

// v1 -> v2: escape flag and the corruption network
func migrateCorruption(m map[string]any) {
	setDefault(m, "contacts", []any{})
	if prison, ok := m["prison"].(map[string]any); ok {
		setDefault(prison, "escapeAttempted", false)
		if days, ok := intField(prison, "daysRemaining"); ok {
			setDefault(prison, "sentence", float64(days))
		}
		return
	}
	if days, ok := intField(m, "jailDays"); ok && days > 0 {
		setDefault(m, "prison", map[string]any{
			"daysRemaining":   float64(days),
			"sentence":        float64(days),
			"reason":          "",
			"escapeAttempted": false,
		})
	}
}

// v2 -> v3: hospital, villa and drug empire
func migrateConfinement(m map[string]any) {
	setDefault(m, "maxHp", float64(100))
	maxHP, _ := intField(m, "maxHp")
	setDefault(m, "hp", float64(maxHP))
	setDefault(m, "hospitalizations", float64(0))
	if inHospital, _ := m["inHospital"].(bool); inHospital {
		days, ok := intField(m, "hospitalDays")
		if !ok || days <= 0 {
			days = 1
		}
		setDefault(m, "hospital", map[string]any{"daysRemaining": float64(days), "bill": float64(0)})
	}
}

// v3 -> v4: typed nemesis, challenges, counters and story progress
func migrateTypedPhaseTwo(m map[string]any) {
	setDefault(m, "challenges", []any{})
	setDefault(m, "counters", map[string]any{})
	setDefault(m, "storyProgress", map[string]any{})
	setDefault(m, "unlocked", []any{})
	setDefault(m, "achievements", map[string]any{})
	setDefault(m, "bossDefeated", map[string]any{})
	setDefault(m, "conqueredFactions", []any{})
	setDefault(m, "factionProgress", map[string]any{})
	setDefault(m, "heistCooldowns", map[string]any{})
}

// v4 -> v5: daily flags, login reward and perks
func migrateDailyFlags(m map[string]any) {
	setDefault(m, "daily", map[string]any{})
	setDefault(m, "dailyReward", map[string]any{})
	setDefault(m, "perks", []any{})
	setDefault(m, "endgamePhase", float64(0))
	phase, _ := intField(m, "endgamePhase")
	setDefault(m, "phaseAnnounced", float64(phase))
}

// Migrate upgrades a raw state map in place to the current schema and
// returns the version it started from
func Migrate(m map[string]any) int {
	from, _ := intField(m, "schemaVersion")
	for v := max(from, 0); v < len(migrations); v++ {
		migrations[v](m)
	}
	if from < CurrentSchemaVersion {
		m["schemaVersion"] = float64(CurrentSchemaVersion)
	}
	return from
}

// MigrateState decodes raw state JSON through the migration chain
func MigrateState(data []byte) (*types.WorldState, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("failed to parse state: empty document")
	}
	Migrate(m)

	upgraded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode state: %w", err)
	}
	var state types.WorldState
	if err := json.Unmarshal(upgraded, &state); err != nil {
		return nil, fmt.Errorf("failed to decode migrated state: %w", err)
	}
	Normalize(&state)
	return &state, nil
}

// Normalize repairs nil collections and out-of-range scalars on a loaded state
func Normalize(s *types.WorldState) {
	if s.Inventory == nil {
		s.Inventory = make(map[string]int)
	}
	if s.Vehicles == nil {
		s.Vehicles = make([]types.Vehicle, 0)
	}
	if s.Gear == nil {
		s.Gear = make([]string, 0)
	}
	if s.Equipped == nil {
		s.Equipped = make(map[string]string)
	}
	if s.Crew == nil {
		s.Crew = make([]types.CrewMember, 0)
	}
	if s.Businesses == nil {
		s.Businesses = make([]types.Business, 0)
	}
	if s.Safehouses == nil {
		s.Safehouses = make([]types.Safehouse, 0)
	}
	if s.Contacts == nil {
		s.Contacts = make([]types.Contact, 0)
	}
	if s.Market == nil {
		s.Market = make(map[string]map[string]int)
	}
	if s.FactionProgress == nil {
		s.FactionProgress = make(map[string]int)
	}
	if s.ConqueredFactions == nil {
		s.ConqueredFactions = make([]string, 0)
	}
	if s.HeistCooldowns == nil {
		s.HeistCooldowns = make(map[string]int)
	}
	if s.Achievements == nil {
		s.Achievements = make(map[string]int)
	}
	if s.Challenges == nil {
		s.Challenges = make([]types.Challenge, 0)
	}
	if s.Unlocked == nil {
		s.Unlocked = make([]string, 0)
	}
	if s.BossDefeated == nil {
		s.BossDefeated = make(map[string]bool)
	}
	if s.StoryProgress == nil {
		s.StoryProgress = make(map[string]int)
	}
	if s.Perks == nil {
		s.Perks = make([]string, 0)
	}

	if s.Level < 1 {
		s.Level = 1
	}
	if s.Day < 1 {
		s.Day = 1
	}
	if s.MaxHP <= 0 {
		s.MaxHP = 100
	}
	s.HP = min(max(s.HP, 0), s.MaxHP)
	s.PersonalHeat = min(max(s.PersonalHeat, 0), 100)
	s.Heat = min(max(s.Heat, 0), 100)
	for i := range s.Vehicles {
		s.Vehicles[i].Heat = min(max(s.Vehicles[i].Heat, 0), 100)
	}
	s.Money = max(s.Money, 0)
	s.DirtyMoney = max(s.DirtyMoney, 0)
	s.Debt = max(s.Debt, 0)
	if s.SchemaVersion < CurrentSchemaVersion {
		s.SchemaVersion = CurrentSchemaVersion
	}
}
