package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// HeatTier adds a buy surcharge once heat reaches MinHeat
type HeatTier struct {
	MinHeat int `yaml:"min_heat"`
	Pct     int `yaml:"pct"`
}

// SentenceBand maps a heat band to base sentence days
type SentenceBand struct {
	MinHeat int `yaml:"min_heat"`
	Days    int `yaml:"days"`
}

// Tuning holds the balance constants of the simulation
type Tuning struct {
	StartMoney int `yaml:"start_money"`
	StartHP    int `yaml:"start_hp"`

	BaseInventory   int `yaml:"base_inventory"`
	VaultCapacity   int `yaml:"vault_capacity"`
	SoloOpsPerDay   int `yaml:"solo_ops_per_day"`
	MaxCrew         int `yaml:"max_crew"`
	MaxStat         int `yaml:"max_stat"`
	CrewHealCost    int `yaml:"crew_heal_cost"`
	RepairCostPoint int `yaml:"repair_cost_point"`

	Heat Heat `yaml:"heat"`
	Law  Law  `yaml:"law"`

	Hospital Hospital `yaml:"hospital"`

	WashFeePct      int `yaml:"wash_fee_pct"`
	WashFeeMinPct   int `yaml:"wash_fee_min_pct"`
	DebtLimit       int `yaml:"debt_limit"`
	LoanLimit       int `yaml:"loan_limit"`
	DebtInterestPct int `yaml:"debt_interest_pct"`
	TributePerTurf  int `yaml:"tribute_per_turf"`
	DailyRewardBase int `yaml:"daily_reward_base"`

	SafehousePrice    int `yaml:"safehouse_price"`
	SafehouseCapacity int `yaml:"safehouse_capacity"`
	VillaPrice        int `yaml:"villa_price"`
	DrugEmpirePrice   int `yaml:"drug_empire_price"`
	LabPrice          int `yaml:"lab_price"`
	QualityPrice      int `yaml:"quality_price"`
	MaxLabs           int `yaml:"max_labs"`
	MaxQuality        int `yaml:"max_quality"`

	RaidHeat        int `yaml:"raid_heat"`
	RaidChance      int `yaml:"raid_chance"`
	RaidLossPct     int `yaml:"raid_loss_pct"`
	StolenDecay     int `yaml:"stolen_decay"`
	WeekEventEvery  int `yaml:"week_event_every"`
	WeekEventLength int `yaml:"week_event_length"`

	FactionWinsToConquer int `yaml:"faction_wins_to_conquer"`
	NemesisHarassChance  int `yaml:"nemesis_harass_chance"`
	LastStandChance      int `yaml:"last_stand_chance"`
	ComplicationChance   int `yaml:"complication_chance"`
}

// Heat holds heat pool constants
type Heat struct {
	PersonalWeight    int        `yaml:"personal_weight"`
	VehicleWeight     int        `yaml:"vehicle_weight"`
	WantedThreshold   int        `yaml:"wanted_threshold"`
	PersonalDecay     int        `yaml:"personal_decay"`
	CopContactDecay   int        `yaml:"cop_contact_decay"`
	VehicleDecay      int        `yaml:"vehicle_decay"`
	Surcharge         []HeatTier `yaml:"surcharge"`
	ReplateCost       int        `yaml:"replate_cost"`
	ReplateCooldown   int        `yaml:"replate_cooldown"`
	BribeMin          int        `yaml:"bribe_min"`
	BribePerPoint     int        `yaml:"bribe_per_point"`
	LayLowReduction   int        `yaml:"lay_low_reduction"`
	IllegalTradeHeat  int        `yaml:"illegal_trade_heat"`
	StolenVehicleHeat int        `yaml:"stolen_vehicle_heat"`
}

// Law holds arrest, prison and corruption constants
type Law struct {
	ArrestBase          int            `yaml:"arrest_base"`
	ArrestPerHeat       int            `yaml:"arrest_per_heat"`
	Sentences           []SentenceBand `yaml:"sentences"`
	LawyerReductionPct  int            `yaml:"lawyer_reduction_pct"`
	BribePerDay         int            `yaml:"bribe_per_day"`
	LawyerDiscountPct   int            `yaml:"lawyer_discount_pct"`
	EscapeBase          int            `yaml:"escape_base"`
	EscapePerBrains     int            `yaml:"escape_per_brains"`
	EscapeHackerBonus   int            `yaml:"escape_hacker_bonus"`
	EscapeTunnelBonus   int            `yaml:"escape_tunnel_bonus"`
	EscapeMax           int            `yaml:"escape_max"`
	EscapeFailDays      int            `yaml:"escape_fail_days"`
	EscapeHeat          int            `yaml:"escape_heat"`
	ContactStartLoyalty int            `yaml:"contact_start_loyalty"`
	ContactDecay        int            `yaml:"contact_decay"`
	BillingPeriod       int            `yaml:"billing_period"`
	UnpaidLoyaltyLoss   int            `yaml:"unpaid_loyalty_loss"`
	BetrayalHeat        int            `yaml:"betrayal_heat"`
	BetrayalMoneyPct    int            `yaml:"betrayal_money_pct"`
	BetrayalArrest      int            `yaml:"betrayal_arrest"`
}

// Hospital holds hospitalization constants
type Hospital struct {
	BaseCost  int `yaml:"base_cost"`
	Days      int `yaml:"days"`
	MaxVisits int `yaml:"max_visits"`
}

// DefaultTuning returns the built-in balance constants
func DefaultTuning() *Tuning {
	return &Tuning{
		StartMoney:      2000,
		StartHP:         100,
		BaseInventory:   20,
		VaultCapacity:   50,
		SoloOpsPerDay:   3,
		MaxCrew:         6,
		MaxStat:         10,
		CrewHealCost:    1000,
		RepairCostPoint: 20,
		Heat: Heat{
			PersonalWeight:  60,
			VehicleWeight:   40,
			WantedThreshold: 60,
			PersonalDecay:   3,
			CopContactDecay: 2,
			VehicleDecay:    2,
			Surcharge: []HeatTier{
				{MinHeat: 50, Pct: 20},
				{MinHeat: 80, Pct: 40},
			},
			ReplateCost:       1500,
			ReplateCooldown:   7,
			BribeMin:          500,
			BribePerPoint:     100,
			LayLowReduction:   10,
			IllegalTradeHeat:  2,
			StolenVehicleHeat: 40,
		},
		Law: Law{
			ArrestBase:    10,
			ArrestPerHeat: 2,
			Sentences: []SentenceBand{
				{MinHeat: 90, Days: 7},
				{MinHeat: 80, Days: 5},
				{MinHeat: 70, Days: 3},
				{MinHeat: 0, Days: 2},
			},
			LawyerReductionPct:  30,
			BribePerDay:         2500,
			LawyerDiscountPct:   25,
			EscapeBase:          20,
			EscapePerBrains:     4,
			EscapeHackerBonus:   10,
			EscapeTunnelBonus:   25,
			EscapeMax:           90,
			EscapeFailDays:      3,
			EscapeHeat:          15,
			ContactStartLoyalty: 70,
			ContactDecay:        1,
			BillingPeriod:       30,
			UnpaidLoyaltyLoss:   20,
			BetrayalHeat:        20,
			BetrayalMoneyPct:    10,
			BetrayalArrest:      25,
		},
		Hospital: Hospital{
			BaseCost:  2000,
			Days:      2,
			MaxVisits: 3,
		},
		WashFeePct:           20,
		WashFeeMinPct:        10,
		DebtLimit:            50000,
		LoanLimit:            40000,
		DebtInterestPct:      2,
		TributePerTurf:       1000,
		DailyRewardBase:      500,
		SafehousePrice:       15000,
		SafehouseCapacity:    20,
		VillaPrice:           250000,
		DrugEmpirePrice:      50000,
		LabPrice:             25000,
		QualityPrice:         20000,
		MaxLabs:              5,
		MaxQuality:           5,
		RaidHeat:             80,
		RaidChance:           30,
		RaidLossPct:          30,
		StolenDecay:          5,
		WeekEventEvery:       7,
		WeekEventLength:      3,
		FactionWinsToConquer: 3,
		NemesisHarassChance:  15,
		LastStandChance:      15,
		ComplicationChance:   25,
	}
}

// LoadTuning reads a YAML tuning file over the defaults.
// A missing file yields the defaults.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(raw, t); err != nil {
		return nil, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
