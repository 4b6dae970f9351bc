package types

import "encoding/json"

// ActionType tags an Action
type ActionType string

// Action is a tagged record describing one intended state transition
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewAction builds an action with a JSON-encoded payload
func NewAction(t ActionType, payload any) Action {
	if payload == nil {
		return Action{Type: t}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Action{Type: t}
	}
	return Action{Type: t, Payload: data}
}

// Economy
const (
	ActionTrade            ActionType = "TRADE"
	ActionTravel           ActionType = "TRAVEL"
	ActionSoloOp           ActionType = "SOLO_OP"
	ActionBuyGear          ActionType = "BUY_GEAR"
	ActionEquipGear        ActionType = "EQUIP_GEAR"
	ActionUnequipGear      ActionType = "UNEQUIP_GEAR"
	ActionBuyVehicle       ActionType = "BUY_VEHICLE"
	ActionSellVehicle      ActionType = "SELL_VEHICLE"
	ActionSwitchVehicle    ActionType = "SWITCH_VEHICLE"
	ActionRepairVehicle    ActionType = "REPAIR_VEHICLE"
	ActionStealVehicle     ActionType = "STEAL_VEHICLE"
	ActionStreetRace       ActionType = "STREET_RACE"
	ActionWashMoney        ActionType = "WASH_MONEY"
	ActionBuyBusiness      ActionType = "BUY_BUSINESS"
	ActionCraft            ActionType = "CRAFT"
	ActionBuySafehouse     ActionType = "BUY_SAFEHOUSE"
	ActionBuyVilla         ActionType = "BUY_VILLA"
	ActionInstallVilla     ActionType = "INSTALL_VILLA_MODULE"
	ActionTakeLoan         ActionType = "TAKE_LOAN"
	ActionRepayDebt        ActionType = "REPAY_DEBT"
	ActionClaimDailyReward ActionType = "CLAIM_DAILY_REWARD"
)

// Law enforcement
const (
	ActionBribePolice    ActionType = "BRIBE_POLICE"
	ActionReplateVehicle ActionType = "REPLATE_VEHICLE"
	ActionLayLow         ActionType = "LAY_LOW"
	ActionPrisonBribe    ActionType = "PRISON_BRIBE"
	ActionAttemptEscape  ActionType = "ATTEMPT_ESCAPE"
	ActionRecruitContact ActionType = "RECRUIT_CONTACT"
	ActionDismissContact ActionType = "DISMISS_CONTACT"
)

// Combat
const (
	ActionStartFactionFight ActionType = "START_FACTION_FIGHT"
	ActionStartNemesisFight ActionType = "START_NEMESIS_FIGHT"
	ActionStartBossFight    ActionType = "START_BOSS_FIGHT"
	ActionCombatAction      ActionType = "COMBAT_ACTION"
	ActionNegotiateNemesis  ActionType = "NEGOTIATE_NEMESIS"
	ActionFleeCombat        ActionType = "FLEE_COMBAT"
)

// Heists
const (
	ActionPlanHeist           ActionType = "PLAN_HEIST"
	ActionHeistRecon          ActionType = "HEIST_RECON"
	ActionHeistBuyEquipment   ActionType = "HEIST_BUY_EQUIPMENT"
	ActionHeistAssignCrew     ActionType = "HEIST_ASSIGN_CREW"
	ActionCancelHeist         ActionType = "CANCEL_HEIST"
	ActionLaunchHeist         ActionType = "LAUNCH_HEIST"
	ActionAdvanceHeist        ActionType = "ADVANCE_HEIST"
	ActionResolveComplication ActionType = "RESOLVE_COMPLICATION"
	ActionFinishHeist         ActionType = "FINISH_HEIST"
)

// Crew, drug empire and progression
const (
	ActionHireCrew          ActionType = "HIRE_CREW"
	ActionFireCrew          ActionType = "FIRE_CREW"
	ActionHealCrew          ActionType = "HEAL_CREW"
	ActionStartDrugEmpire   ActionType = "START_DRUG_EMPIRE"
	ActionBuildLab          ActionType = "BUILD_LAB"
	ActionUpgradeLabQuality ActionType = "UPGRADE_LAB_QUALITY"
	ActionAllocateSkill     ActionType = "ALLOCATE_SKILL"
	ActionSpendMerit        ActionType = "SPEND_MERIT"
	ActionStartNewGamePlus  ActionType = "START_NEW_GAME_PLUS"
)

// World and lifecycle
const (
	ActionEndTurn           ActionType = "END_TURN"
	ActionResolveEvent      ActionType = "RESOLVE_EVENT"
	ActionMergeServerFields ActionType = "MERGE_SERVER_FIELDS"
	ActionLoadState         ActionType = "LOAD_STATE"
	ActionResetGame         ActionType = "RESET_GAME"
)

// TradePayload buys or sells goods at the current district market
type TradePayload struct {
	Good string `json:"good"`
	Qty  int    `json:"qty"`
	Side string `json:"side"`
}

// Trade sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TravelPayload moves the player to another district
type TravelPayload struct {
	District   string `json:"district"`
	UseHelipad bool   `json:"useHelipad,omitempty"`
}

// IDPayload addresses a content entry or owned entity by id
type IDPayload struct {
	ID string `json:"id"`
}

// AmountPayload carries a money amount
type AmountPayload struct {
	Amount int `json:"amount"`
}

// CombatMovePayload selects a combat move
type CombatMovePayload struct {
	Move string `json:"move"`
}

// ComplicationPayload resolves a heist complication; Forced overrides the roll
type ComplicationPayload struct {
	Choice string `json:"choice"`
	Forced string `json:"forced,omitempty"`
}

// ChoicePayload answers a pending popup event
type ChoicePayload struct {
	Choice int `json:"choice"`
}

// ResetPayload starts a fresh game
type ResetPayload struct {
	Name string `json:"name"`
}

// LoadStatePayload replaces the whole state
type LoadStatePayload struct {
	State *WorldState `json:"state"`
}
