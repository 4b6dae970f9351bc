package types

import "time"

// Stats are the allocatable character attributes
type Stats struct {
	Muscle   int `json:"muscle"`
	Brains   int `json:"brains"`
	Charisma int `json:"charisma"`
	Stealth  int `json:"stealth"`
}

// Vehicle is an owned vehicle with its own heat pool
type Vehicle struct {
	ID              string `json:"id"`
	Model           string `json:"model"`
	Heat            int    `json:"heat"`
	Condition       int    `json:"condition"`
	Stolen          bool   `json:"stolen"`
	ReplateReadyDay int    `json:"replateReadyDay"`
}

// CrewMember is a hired member of the player's crew
type CrewMember struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Skill   int    `json:"skill"`
	Loyalty int    `json:"loyalty"`
	Wage    int    `json:"wage"`
	HP      int    `json:"hp"`
	Injured bool   `json:"injured"`
}

// Business is an owned front business
type Business struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	BoughtDay int    `json:"boughtDay"`
}

// Safehouse is an owned hideout in a district
type Safehouse struct {
	ID        string `json:"id"`
	District  string `json:"district"`
	Capacity  int    `json:"capacity"`
	BoughtDay int    `json:"boughtDay"`
}

// Contact is a member of the corruption network
type Contact struct {
	ID           string `json:"id"`
	Kind         string `json:"kind"`
	Loyalty      int    `json:"loyalty"`
	MonthlyFee   int    `json:"monthlyFee"`
	Active       bool   `json:"active"`
	Compromised  bool   `json:"compromised"`
	RecruitedDay int    `json:"recruitedDay"`
}

// PrisonState exists only while the player is imprisoned
type PrisonState struct {
	DaysRemaining   int    `json:"daysRemaining"`
	Sentence        int    `json:"sentence"`
	Reason          string `json:"reason"`
	ArrestedDay     int    `json:"arrestedDay"`
	EscapeAttempted bool   `json:"escapeAttempted"`
}

// HospitalState exists only while the player is hospitalized
type HospitalState struct {
	DaysRemaining int `json:"daysRemaining"`
	Bill          int `json:"bill"`
}

// Combatant is one side of a fight
type Combatant struct {
	Name    string `json:"name"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"maxHp"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
	Stunned bool   `json:"stunned"`
}

// CombatState is the turn-based fight in progress
type CombatState struct {
	Kind            string    `json:"kind"`
	TargetID        string    `json:"targetId"`
	Phase           int       `json:"phase"`
	Phases          int       `json:"phases"`
	Turn            int       `json:"turn"`
	Player          Combatant `json:"player"`
	Enemy           Combatant `json:"enemy"`
	EnvironmentUsed bool      `json:"environmentUsed"`
	Log             []string  `json:"log"`
	Finished        bool      `json:"finished"`
	Won             bool      `json:"won"`
}

// HeistPlan is a heist being prepared
type HeistPlan struct {
	Template   string   `json:"template"`
	ReconDone  bool     `json:"reconDone"`
	Intel      int      `json:"intel"`
	Equipment  []string `json:"equipment"`
	Crew       []string `json:"crew"`
	PlannedDay int      `json:"plannedDay"`
}

// Complication interrupts a running heist until resolved
type Complication struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
}

// ActiveHeist is a launched heist
type ActiveHeist struct {
	Template      string         `json:"template"`
	Phase         int            `json:"phase"`
	Phases        int            `json:"phases"`
	Crew          []string       `json:"crew"`
	Intel         int            `json:"intel"`
	AccruedReward int            `json:"accruedReward"`
	AccruedHeat   int            `json:"accruedHeat"`
	CrewDamage    map[string]int `json:"crewDamage"`
	Complication  *Complication  `json:"complication,omitempty"`
	Finished      bool           `json:"finished"`
	Success       bool           `json:"success"`
	Log           []string       `json:"log"`
}

// Villa is the late-game estate with installable modules
type Villa struct {
	Modules   []string `json:"modules"`
	BoughtDay int      `json:"boughtDay"`
}

// DrugEmpire tracks labs and nightly production
type DrugEmpire struct {
	Labs     int `json:"labs"`
	Quality  int `json:"quality"`
	Produced int `json:"produced"`
}

// NemesisState is the recurring rival
type NemesisState struct {
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Defeats    int    `json:"defeats"`
	TruceUntil int    `json:"truceUntil"`
	Active     bool   `json:"active"`
}

// WeekEvent is a multi-day world modifier
type WeekEvent struct {
	ID       string `json:"id"`
	StartDay int    `json:"startDay"`
	EndDay   int    `json:"endDay"`
}

// PendingEvent is a popup awaiting a player choice
type PendingEvent struct {
	ID          string   `json:"id"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Choices     []string `json:"choices"`
	Day         int      `json:"day"`
}

// VictoryData records the final boss win
type VictoryData struct {
	Day         int    `json:"day"`
	Level       int    `json:"level"`
	Money       int    `json:"money"`
	Reputation  int    `json:"reputation"`
	Boss        string `json:"boss"`
	NewGamePlus int    `json:"newGamePlus"`
}

// Challenge is a running goal resynced after every turn step
type Challenge struct {
	ID       string `json:"id"`
	Goal     int    `json:"goal"`
	Progress int    `json:"progress"`
	Done     bool   `json:"done"`
}

// DailyFlags reset at the end of every turn
type DailyFlags struct {
	RaceUsed    bool `json:"raceUsed"`
	WashUsed    bool `json:"washUsed"`
	HelipadUsed bool `json:"helipadUsed"`
	SolosToday  int  `json:"solosToday"`
}

// DailyReward tracks the login reward streak
type DailyReward struct {
	LastClaim time.Time `json:"lastClaim"`
	Streak    int       `json:"streak"`
}

// Counters are lifetime tallies used by achievements and challenges
type Counters struct {
	Trades         int `json:"trades"`
	Arrests        int `json:"arrests"`
	Escapes        int `json:"escapes"`
	FightsWon      int `json:"fightsWon"`
	FightsLost     int `json:"fightsLost"`
	HeistsFailed   int `json:"heistsFailed"`
	VehiclesStolen int `json:"vehiclesStolen"`
	MoneyWashed    int `json:"moneyWashed"`
	Betrayals      int `json:"betrayals"`
}

// WorldState is the complete simulation state of one player
type WorldState struct {
	SchemaVersion int    `json:"schemaVersion"`
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Day           int    `json:"day"`

	Money      int `json:"money"`
	DirtyMoney int `json:"dirtyMoney"`
	Debt       int `json:"debt"`
	Reputation int `json:"reputation"`
	Karma      int `json:"karma"`

	XP          int      `json:"xp"`
	Level       int      `json:"level"`
	SkillPoints int      `json:"skillPoints"`
	MeritPoints int      `json:"meritPoints"`
	Stats       Stats    `json:"stats"`
	Perks       []string `json:"perks"`
	HP          int      `json:"hp"`
	MaxHP       int      `json:"maxHp"`

	Heat         int `json:"heat"`
	PersonalHeat int `json:"personalHeat"`

	District  string         `json:"district"`
	Inventory map[string]int `json:"inventory"`
	MaxInv    int            `json:"maxInv"`

	Vehicles        []Vehicle         `json:"vehicles"`
	ActiveVehicleID string            `json:"activeVehicleId"`
	Gear            []string          `json:"gear"`
	Equipped        map[string]string `json:"equipped"`
	Crew            []CrewMember      `json:"crew"`
	Businesses      []Business        `json:"businesses"`
	Safehouses      []Safehouse       `json:"safehouses"`
	Contacts        []Contact         `json:"contacts"`

	Market            map[string]map[string]int `json:"market"`
	FactionProgress   map[string]int            `json:"factionProgress"`
	ConqueredFactions []string                  `json:"conqueredFactions"`

	Prison           *PrisonState   `json:"prison,omitempty"`
	Hospital         *HospitalState `json:"hospital,omitempty"`
	Hospitalizations int            `json:"hospitalizations"`
	GameOver         bool           `json:"gameOver"`

	ActiveCombat    *CombatState   `json:"activeCombat,omitempty"`
	HeistPlan       *HeistPlan     `json:"heistPlan,omitempty"`
	ActiveHeist     *ActiveHeist   `json:"activeHeist,omitempty"`
	HeistCooldowns  map[string]int `json:"heistCooldowns"`
	HeistsCompleted int            `json:"heistsCompleted"`

	Villa        *Villa        `json:"villa,omitempty"`
	DrugEmpire   *DrugEmpire   `json:"drugEmpire,omitempty"`
	Nemesis      *NemesisState `json:"nemesis,omitempty"`
	WeekEvent    *WeekEvent    `json:"weekEvent,omitempty"`
	PendingEvent *PendingEvent `json:"pendingEvent,omitempty"`

	Weather  string `json:"weather"`
	Headline string `json:"headline"`

	Achievements   map[string]int  `json:"achievements"`
	Challenges     []Challenge     `json:"challenges"`
	Unlocked       []string        `json:"unlocked"`
	EndgamePhase   int             `json:"endgamePhase"`
	PhaseAnnounced int             `json:"phaseAnnounced"`
	BossDefeated   map[string]bool `json:"bossDefeated"`
	Victory        *VictoryData    `json:"victory,omitempty"`
	NewGamePlus    int             `json:"newGamePlus"`
	Rank           int             `json:"rank"`

	Daily         DailyFlags     `json:"daily"`
	DailyReward   DailyReward    `json:"dailyReward"`
	Counters      Counters       `json:"counters"`
	StoryProgress map[string]int `json:"storyProgress"`
}

// Activity is the derived exclusive mode the player is in
type Activity string

const (
	ActivityFree         Activity = "free"
	ActivityImprisoned   Activity = "imprisoned"
	ActivityHospitalized Activity = "hospitalized"
	ActivityInCombat     Activity = "in_combat"
	ActivityInHeist      Activity = "in_heist"
	ActivityGameOver     Activity = "game_over"
)

// Activity derives the current mode from the optional sub-states.
// Precedence: game over, prison, hospital, combat, heist.
func (s *WorldState) Activity() Activity {
	switch {
	case s.GameOver:
		return ActivityGameOver
	case s.Prison != nil:
		return ActivityImprisoned
	case s.Hospital != nil:
		return ActivityHospitalized
	case s.ActiveCombat != nil:
		return ActivityInCombat
	case s.ActiveHeist != nil:
		return ActivityInHeist
	default:
		return ActivityFree
	}
}

// ActiveVehicle returns the active vehicle or nil
func (s *WorldState) ActiveVehicle() *Vehicle {
	if s.ActiveVehicleID == "" {
		return nil
	}
	for i := range s.Vehicles {
		if s.Vehicles[i].ID == s.ActiveVehicleID {
			return &s.Vehicles[i]
		}
	}
	return nil
}

// InventoryUsed returns the number of goods carried
func (s *WorldState) InventoryUsed() int {
	total := 0
	for _, qty := range s.Inventory {
		total += qty
	}
	return total
}

// HasUnlocked reports whether a content key is unlocked
func (s *WorldState) HasUnlocked(key string) bool {
	for _, u := range s.Unlocked {
		if u == key {
			return true
		}
	}
	return false
}

// ActiveContact returns the first active, uncompromised contact of a kind
func (s *WorldState) ActiveContact(kind string) *Contact {
	for i := range s.Contacts {
		c := &s.Contacts[i]
		if c.Kind == kind && c.Active && !c.Compromised {
			return c
		}
	}
	return nil
}

// CrewMemberByID finds a crew member
func (s *WorldState) CrewMemberByID(id string) *CrewMember {
	for i := range s.Crew {
		if s.Crew[i].ID == id {
			return &s.Crew[i]
		}
	}
	return nil
}

// HasCrewRole reports whether a healthy crew member fills a role
func (s *WorldState) HasCrewRole(role string) bool {
	for _, c := range s.Crew {
		if c.Role == role && !c.Injured {
			return true
		}
	}
	return false
}

// HasVillaModule reports whether the villa has a module installed
func (s *WorldState) HasVillaModule(module string) bool {
	if s.Villa == nil {
		return false
	}
	for _, m := range s.Villa.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// IsConquered reports whether a faction has been conquered
func (s *WorldState) IsConquered(faction string) bool {
	for _, f := range s.ConqueredFactions {
		if f == faction {
			return true
		}
	}
	return false
}

// Notification is a side-channel message produced by a dispatch
type Notification struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Notification kinds
const (
	NotifyToast = "toast"
	NotifyPhone = "phone"
)
