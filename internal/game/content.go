package game

// Good is a tradeable commodity
type Good struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BasePrice  int    `json:"base_price"`
	Volatility int    `json:"volatility"`
	Illegal    bool   `json:"illegal"`
}

// District is a travel destination with its own market and controlling faction
type District struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Faction    string         `json:"faction"`
	TravelCost int            `json:"travel_cost"`
	PriceMod   map[string]int `json:"price_mod"`
}

// GearDef describes a piece of equipment
type GearDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slot     string `json:"slot"`
	Price    int    `json:"price"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Capacity int    `json:"capacity"`
	MinLevel int    `json:"min_level"`
}

// VehicleDef describes a purchasable vehicle model
type VehicleDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Capacity int    `json:"capacity"`
	Speed    int    `json:"speed"`
}

// BusinessDef describes a front business
type BusinessDef struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	Income       int    `json:"income"`
	WashCapacity int    `json:"wash_capacity"`
	MinLevel     int    `json:"min_level"`
}

// RecipeDef turns inventory goods into another good
type RecipeDef struct {
	ID        string         `json:"id"`
	Inputs    map[string]int `json:"inputs"`
	Output    string         `json:"output"`
	OutputQty int            `json:"output_qty"`
	Cost      int            `json:"cost"`
}

// SoloOpDef is a small crime run by the player alone
type SoloOpDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MinReward int    `json:"min_reward"`
	MaxReward int    `json:"max_reward"`
	Heat      int    `json:"heat"`
	Risk      int    `json:"risk"`
	XP        int    `json:"xp"`
	Stat      string `json:"stat"`
	Severity  int    `json:"severity"`
}

// HeistTemplate describes a multi-phase heist
type HeistTemplate struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MinLevel     int      `json:"min_level"`
	Phases       int      `json:"phases"`
	Difficulty   int      `json:"difficulty"`
	Reward       int      `json:"reward"`
	Heat         int      `json:"heat"`
	XP           int      `json:"xp"`
	ReconCost    int      `json:"recon_cost"`
	LaunchCost   int      `json:"launch_cost"`
	Equipment    []string `json:"equipment"`
	CrewRequired int      `json:"crew_required"`
	CooldownDays int      `json:"cooldown_days"`
}

// ComplicationDef is a heist complication template
type ComplicationDef struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
}

// FactionDef is a rival gang controlling a district
type FactionDef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	District string `json:"district"`
	HP       int    `json:"hp"`
	Attack   int    `json:"attack"`
	Defense  int    `json:"defense"`
	Reward   int    `json:"reward"`
	Rep      int    `json:"rep"`
}

// BossPhase is one phase of a boss fight
type BossPhase struct {
	Name    string `json:"name"`
	HP      int    `json:"hp"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
}

// BossDef is a multi-phase endgame boss
type BossDef struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Phases []BossPhase `json:"phases"`
	Reward int         `json:"reward"`
}

// ContactDef prices a corruption contact
type ContactDef struct {
	Kind        string `json:"kind"`
	RecruitCost int    `json:"recruit_cost"`
	MonthlyFee  int    `json:"monthly_fee"`
}

// CrewRoleDef prices a crew hire
type CrewRoleDef struct {
	Role     string `json:"role"`
	HireCost int    `json:"hire_cost"`
	Wage     int    `json:"wage"`
	Skill    int    `json:"skill"`
}

// PerkDef is a merit perk
type PerkDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int    `json:"cost"`
}

// WeekEventDef is a multi-day world modifier
type WeekEventDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	PriceMod  int    `json:"price_mod"`
	ArrestMod int    `json:"arrest_mod"`
	RewardMod int    `json:"reward_mod"`
}

// StreetEventDef is an immediate random street event
type StreetEventDef struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Money       int    `json:"money"`
	Heat        int    `json:"heat"`
	HP          int    `json:"hp"`
}

// PopupChoice is one answer of a popup event
type PopupChoice struct {
	Label   string `json:"label"`
	Money   int    `json:"money"`
	Heat    int    `json:"heat"`
	Rep     int    `json:"rep"`
	Karma   int    `json:"karma"`
	Loyalty int    `json:"loyalty"`
}

// PopupEventDef is a popup awaiting a player choice
type PopupEventDef struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Description string        `json:"description"`
	Choices     []PopupChoice `json:"choices"`
}

// AchievementDef names an achievement and its reward
type AchievementDef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Reward int    `json:"reward"`
}

// ChallengeDef is a running goal over a tracked metric
type ChallengeDef struct {
	ID     string `json:"id"`
	Metric string `json:"metric"`
	Goal   int    `json:"goal"`
}

// Content holds the read-only lookup tables the simulation consults
type Content struct {
	Goods          []Good            `json:"goods"`
	Districts      []District        `json:"districts"`
	Gear           []GearDef         `json:"gear"`
	Vehicles       []VehicleDef      `json:"vehicles"`
	Businesses     []BusinessDef     `json:"businesses"`
	Recipes        []RecipeDef       `json:"recipes"`
	SoloOps        []SoloOpDef       `json:"solo_ops"`
	Heists         []HeistTemplate   `json:"heists"`
	HeistEquipment map[string]int    `json:"heist_equipment"`
	Complications  []ComplicationDef `json:"complications"`
	Factions       []FactionDef      `json:"factions"`
	Bosses         []BossDef         `json:"bosses"`
	Contacts       []ContactDef      `json:"contacts"`
	CrewRoles      []CrewRoleDef     `json:"crew_roles"`
	CrewNames      []string          `json:"crew_names"`
	Perks          []PerkDef         `json:"perks"`
	VillaModules   map[string]int    `json:"villa_modules"`
	WeekEvents     []WeekEventDef    `json:"week_events"`
	StreetEvents   []StreetEventDef  `json:"street_events"`
	PopupEvents    []PopupEventDef   `json:"popup_events"`
	Achievements   []AchievementDef  `json:"achievements"`
	Challenges     []ChallengeDef    `json:"challenges"`
	Weather        []string          `json:"weather"`
	Headlines      []string          `json:"headlines"`
	NemesisNames   []string          `json:"nemesis_names"`
	StartDistrict  string            `json:"start_district"`
}

// Good looks up a good by id
func (c *Content) Good(id string) (Good, bool) {
	for _, g := range c.Goods {
		if g.ID == id {
			return g, true
		}
	}
	return Good{}, false
}

// District looks up a district by id
func (c *Content) District(id string) (District, bool) {
	for _, d := range c.Districts {
		if d.ID == id {
			return d, true
		}
	}
	return District{}, false
}

// GearItem looks up a gear definition by id
func (c *Content) GearItem(id string) (GearDef, bool) {
	for _, g := range c.Gear {
		if g.ID == id {
			return g, true
		}
	}
	return GearDef{}, false
}

// Vehicle looks up a vehicle model by id
func (c *Content) Vehicle(id string) (VehicleDef, bool) {
	for _, v := range c.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return VehicleDef{}, false
}

// Business looks up a business definition by id
func (c *Content) Business(id string) (BusinessDef, bool) {
	for _, b := range c.Businesses {
		if b.ID == id {
			return b, true
		}
	}
	return BusinessDef{}, false
}

// Recipe looks up a crafting recipe by id
func (c *Content) Recipe(id string) (RecipeDef, bool) {
	for _, r := range c.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return RecipeDef{}, false
}

// SoloOp looks up a solo operation by id
func (c *Content) SoloOp(id string) (SoloOpDef, bool) {
	for _, op := range c.SoloOps {
		if op.ID == id {
			return op, true
		}
	}
	return SoloOpDef{}, false
}

// Heist looks up a heist template by id
func (c *Content) Heist(id string) (HeistTemplate, bool) {
	for _, h := range c.Heists {
		if h.ID == id {
			return h, true
		}
	}
	return HeistTemplate{}, false
}

// Faction looks up a faction by id
func (c *Content) Faction(id string) (FactionDef, bool) {
	for _, f := range c.Factions {
		if f.ID == id {
			return f, true
		}
	}
	return FactionDef{}, false
}

// Boss looks up a boss by id
func (c *Content) Boss(id string) (BossDef, bool) {
	for _, b := range c.Bosses {
		if b.ID == id {
			return b, true
		}
	}
	return BossDef{}, false
}

// Contact looks up a contact kind
func (c *Content) Contact(kind string) (ContactDef, bool) {
	for _, ct := range c.Contacts {
		if ct.Kind == kind {
			return ct, true
		}
	}
	return ContactDef{}, false
}

// CrewRole looks up a crew role
func (c *Content) CrewRole(role string) (CrewRoleDef, bool) {
	for _, r := range c.CrewRoles {
		if r.Role == role {
			return r, true
		}
	}
	return CrewRoleDef{}, false
}

// Perk looks up a merit perk
func (c *Content) Perk(id string) (PerkDef, bool) {
	for _, p := range c.Perks {
		if p.ID == id {
			return p, true
		}
	}
	return PerkDef{}, false
}

// WeekEvent looks up a week event
func (c *Content) WeekEvent(id string) (WeekEventDef, bool) {
	for _, w := range c.WeekEvents {
		if w.ID == id {
			return w, true
		}
	}
	return WeekEventDef{}, false
}

// PopupEvent looks up a popup event
func (c *Content) PopupEvent(id string) (PopupEventDef, bool) {
	for _, p := range c.PopupEvents {
		if p.ID == id {
			return p, true
		}
	}
	return PopupEventDef{}, false
}

// Achievement looks up an achievement
func (c *Content) Achievement(id string) (AchievementDef, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return AchievementDef{}, false
}
