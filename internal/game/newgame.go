package game

import (
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
)

// CurrentSchemaVersion is the WorldState layout written by this build
const CurrentSchemaVersion = storage.CurrentSchemaVersion

// Stats
const (
	StatMuscle   = "muscle"
	StatBrains   = "brains"
	StatCharisma = "charisma"
	StatStealth  = "stealth"
)

// Villa modules
const (
	ModuleTunnel  = "tunnel"
	ModuleHelipad = "helipad"
	ModuleVault   = "vault"
	ModuleLab     = "lab"
)

// Unlockable content keys
const (
	UnlockSafehouse  = "safehouse"
	UnlockVilla      = "villa"
	UnlockDrugEmpire = "drug_empire"
	UnlockNemesis    = "nemesis"
	UnlockBoss       = "boss"
)

// Contact kinds
const (
	ContactLawyer  = "lawyer"
	ContactCop     = "cop"
	ContactJudge   = "judge"
	ContactCustoms = "customs"
)

// Perks
const (
	PerkIronLungs    = "pulmao_de_aco"
	PerkSmoothTalker = "bom_de_papo"
	PerkGhost        = "fantasma"
	PerkAccountant   = "contador"
)

// Challenge metrics
const (
	MetricTrades    = "trades"
	MetricFightsWon = "fights_won"
	MetricHeists    = "heists"
	MetricNetWorth  = "net_worth"
)

// BaseMarket builds undrifted prices for every district
func BaseMarket(c *Content) map[string]map[string]int {
	market := make(map[string]map[string]int, len(c.Districts))
	for _, district := range c.Districts {
		prices := make(map[string]int, len(c.Goods))
		for _, good := range c.Goods {
			mod := 100
			if m, ok := district.PriceMod[good.ID]; ok {
				mod = m
			}
			prices[good.ID] = max(1, pct(good.BasePrice, mod))
		}
		market[district.ID] = prices
	}
	return market
}

// NewWorldState creates a fresh day-one state
func NewWorldState(playerID, name string, c *Content, t *Tuning) *types.WorldState {
	if c == nil {
		c = DefaultContent()
	}
	if t == nil {
		t = DefaultTuning()
	}

	challenges := make([]types.Challenge, 0, len(c.Challenges))
	for _, def := range c.Challenges {
		challenges = append(challenges, types.Challenge{ID: def.ID, Goal: def.Goal})
	}

	s := &types.WorldState{
		SchemaVersion:     CurrentSchemaVersion,
		PlayerID:          playerID,
		PlayerName:        name,
		Day:               1,
		Money:             t.StartMoney,
		Level:             1,
		Stats:             types.Stats{Muscle: 1, Brains: 1, Charisma: 1, Stealth: 1},
		Perks:             make([]string, 0),
		HP:                t.StartHP,
		MaxHP:             t.StartHP,
		District:          c.StartDistrict,
		Inventory:         make(map[string]int),
		Vehicles:          make([]types.Vehicle, 0),
		Gear:              make([]string, 0),
		Equipped:          make(map[string]string),
		Crew:              make([]types.CrewMember, 0),
		Businesses:        make([]types.Business, 0),
		Safehouses:        make([]types.Safehouse, 0),
		Contacts:          make([]types.Contact, 0),
		Market:            BaseMarket(c),
		FactionProgress:   make(map[string]int),
		ConqueredFactions: make([]string, 0),
		HeistCooldowns:    make(map[string]int),
		Achievements:      make(map[string]int),
		Challenges:        challenges,
		Unlocked:          make([]string, 0),
		BossDefeated:      make(map[string]bool),
		StoryProgress:     make(map[string]int),
		Weather:           "sol",
	}
	s.MaxInv = MaxInventory(s, c, t)
	return s
}

// NewGamePlus restarts a won game, carrying rank, unlocks, achievements,
// perks and a tenth of the money. It does not modify prev.
func NewGamePlus(prev *types.WorldState, c *Content, t *Tuning) *types.WorldState {
	if t == nil {
		t = DefaultTuning()
	}
	next := NewWorldState(prev.PlayerID, prev.PlayerName, c, t)
	next.NewGamePlus = prev.NewGamePlus + 1
	next.Rank = prev.Rank + 1
	next.Money = t.StartMoney + prev.Money/10
	next.Unlocked = cloneSlice(prev.Unlocked)
	next.Achievements = cloneMap(prev.Achievements)
	next.Perks = cloneSlice(prev.Perks)
	next.StoryProgress = cloneMap(prev.StoryProgress)
	if containsString(prev.Perks, PerkIronLungs) {
		next.MaxHP += ironLungsHP
		next.HP = next.MaxHP
	}
	return next
}
