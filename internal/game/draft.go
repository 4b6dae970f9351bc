package game

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/user/vida-loka-empire/internal/types"
)

// Env carries everything a dispatch may consult besides the state itself.
// Two dispatches with equal state, action, roller seed and Now produce equal results.
type Env struct {
	Rng          Roller
	Now          time.Time
	NewID        func() string
	Content      *Content
	Tuning       *Tuning
	SkipDaySteps map[string]bool
}

func (e Env) withDefaults() Env {
	if e.Rng == nil {
		e.Rng = NewSeededRoller(0)
	}
	if e.Content == nil {
		e.Content = DefaultContent()
	}
	if e.Tuning == nil {
		e.Tuning = DefaultTuning()
	}
	if e.NewID == nil {
		rng := e.Rng
		e.NewID = func() string {
			id, err := uuid.NewRandomFromReader(rollerReader{r: rng})
			if err != nil {
				return uuid.Nil.String()
			}
			return id.String()
		}
	}
	return e
}

// ownership bits for copy-on-write members
const (
	ownInventory uint64 = 1 << iota
	ownVehicles
	ownGear
	ownEquipped
	ownCrew
	ownBusinesses
	ownSafehouses
	ownContacts
	ownMarket
	ownFactionProgress
	ownConquered
	ownHeistCooldowns
	ownAchievements
	ownChallenges
	ownUnlocked
	ownBossDefeated
	ownStoryProgress
	ownPerks
	ownPrison
	ownHospital
	ownCombat
	ownHeistPlan
	ownActiveHeist
	ownVilla
	ownDrugEmpire
	ownNemesis
)

// draft is a copy-on-write view over the previous state. Scalars live in the
// shallow root copy; collections and sub-states are cloned on first mutable access.
// Handlers must never mutate a collection reached through d.s directly.
type draft struct {
	s     *types.WorldState
	env   Env
	owned uint64
	notes []types.Notification
}

func newDraft(prev *types.WorldState, env Env) *draft {
	root := *prev
	return &draft{s: &root, env: env}
}

func (d *draft) take(bit uint64) bool {
	if d.owned&bit != 0 {
		return false
	}
	d.owned |= bit
	return true
}

func (d *draft) notify(kind, title, body string) {
	d.notes = append(d.notes, types.Notification{Kind: kind, Title: title, Body: body})
}

func (d *draft) rng() Roller { return d.env.Rng }
func (d *draft) content() *Content { return d.env.Content }
func (d *draft) tuning() *Tuning { return d.env.Tuning }

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return make(map[K]V)
	}
	return maps.Clone(m)
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return make([]T, 0)
	}
	return slices.Clone(s)
}

func (d *draft) Inventory() map[string]int {
	if d.take(ownInventory) {
		d.s.Inventory = cloneMap(d.s.Inventory)
	}
	return d.s.Inventory
}

func (d *draft) Vehicles() []types.Vehicle {
	if d.take(ownVehicles) {
		d.s.Vehicles = cloneSlice(d.s.Vehicles)
	}
	return d.s.Vehicles
}

func (d *draft) Gear() []string {
	if d.take(ownGear) {
		d.s.Gear = cloneSlice(d.s.Gear)
	}
	return d.s.Gear
}

func (d *draft) Equipped() map[string]string {
	if d.take(ownEquipped) {
		d.s.Equipped = cloneMap(d.s.Equipped)
	}
	return d.s.Equipped
}

func (d *draft) Crew() []types.CrewMember {
	if d.take(ownCrew) {
		d.s.Crew = cloneSlice(d.s.Crew)
	}
	return d.s.Crew
}

func (d *draft) Businesses() []types.Business {
	if d.take(ownBusinesses) {
		d.s.Businesses = cloneSlice(d.s.Businesses)
	}
	return d.s.Businesses
}

func (d *draft) Safehouses() []types.Safehouse {
	if d.take(ownSafehouses) {
		d.s.Safehouses = cloneSlice(d.s.Safehouses)
	}
	return d.s.Safehouses
}

func (d *draft) Contacts() []types.Contact {
	if d.take(ownContacts) {
		d.s.Contacts = cloneSlice(d.s.Contacts)
	}
	return d.s.Contacts
}

func (d *draft) Market() map[string]map[string]int {
	if d.take(ownMarket) {
		m := make(map[string]map[string]int, len(d.s.Market))
		for district, prices := range d.s.Market {
			m[district] = cloneMap(prices)
		}
		d.s.Market = m
	}
	return d.s.Market
}

func (d *draft) FactionProgress() map[string]int {
	if d.take(ownFactionProgress) {
		d.s.FactionProgress = cloneMap(d.s.FactionProgress)
	}
	return d.s.FactionProgress
}

func (d *draft) Conquered() []string {
	if d.take(ownConquered) {
		d.s.ConqueredFactions = cloneSlice(d.s.ConqueredFactions)
	}
	return d.s.ConqueredFactions
}

func (d *draft) HeistCooldowns() map[string]int {
	if d.take(ownHeistCooldowns) {
		d.s.HeistCooldowns = cloneMap(d.s.HeistCooldowns)
	}
	return d.s.HeistCooldowns
}

func (d *draft) Achievements() map[string]int {
	if d.take(ownAchievements) {
		d.s.Achievements = cloneMap(d.s.Achievements)
	}
	return d.s.Achievements
}

func (d *draft) Challenges() []types.Challenge {
	if d.take(ownChallenges) {
		d.s.Challenges = cloneSlice(d.s.Challenges)
	}
	return d.s.Challenges
}

func (d *draft) Unlocked() []string {
	if d.take(ownUnlocked) {
		d.s.Unlocked = cloneSlice(d.s.Unlocked)
	}
	return d.s.Unlocked
}

func (d *draft) BossDefeated() map[string]bool {
	if d.take(ownBossDefeated) {
		d.s.BossDefeated = cloneMap(d.s.BossDefeated)
	}
	return d.s.BossDefeated
}

func (d *draft) StoryProgress() map[string]int {
	if d.take(ownStoryProgress) {
		d.s.StoryProgress = cloneMap(d.s.StoryProgress)
	}
	return d.s.StoryProgress
}

func (d *draft) Perks() []string {
	if d.take(ownPerks) {
		d.s.Perks = cloneSlice(d.s.Perks)
	}
	return d.s.Perks
}

func (d *draft) Prison() *types.PrisonState {
	if d.s.Prison != nil && d.take(ownPrison) {
		p := *d.s.Prison
		d.s.Prison = &p
	}
	return d.s.Prison
}

func (d *draft) Hospital() *types.HospitalState {
	if d.s.Hospital != nil && d.take(ownHospital) {
		h := *d.s.Hospital
		d.s.Hospital = &h
	}
	return d.s.Hospital
}

func (d *draft) Combat() *types.CombatState {
	if d.s.ActiveCombat != nil && d.take(ownCombat) {
		c := *d.s.ActiveCombat
		c.Log = cloneSlice(c.Log)
		d.s.ActiveCombat = &c
	}
	return d.s.ActiveCombat
}

func (d *draft) HeistPlan() *types.HeistPlan {
	if d.s.HeistPlan != nil && d.take(ownHeistPlan) {
		p := *d.s.HeistPlan
		p.Equipment = cloneSlice(p.Equipment)
		p.Crew = cloneSlice(p.Crew)
		d.s.HeistPlan = &p
	}
	return d.s.HeistPlan
}

func (d *draft) ActiveHeist() *types.ActiveHeist {
	if d.s.ActiveHeist != nil && d.take(ownActiveHeist) {
		h := *d.s.ActiveHeist
		h.Crew = cloneSlice(h.Crew)
		h.Log = cloneSlice(h.Log)
		h.CrewDamage = cloneMap(h.CrewDamage)
		if h.Complication != nil {
			c := *h.Complication
			h.Complication = &c
		}
		d.s.ActiveHeist = &h
	}
	return d.s.ActiveHeist
}

func (d *draft) Villa() *types.Villa {
	if d.s.Villa != nil && d.take(ownVilla) {
		v := *d.s.Villa
		v.Modules = cloneSlice(v.Modules)
		d.s.Villa = &v
	}
	return d.s.Villa
}

func (d *draft) DrugEmpire() *types.DrugEmpire {
	if d.s.DrugEmpire != nil && d.take(ownDrugEmpire) {
		e := *d.s.DrugEmpire
		d.s.DrugEmpire = &e
	}
	return d.s.DrugEmpire
}

func (d *draft) Nemesis() *types.NemesisState {
	if d.s.Nemesis != nil && d.take(ownNemesis) {
		n := *d.s.Nemesis
		d.s.Nemesis = &n
	}
	return d.s.Nemesis
}
