package game

import (
	"github.com/user/vida-loka-empire/internal/types"
)

// Result is the outcome of one dispatch
type Result struct {
	State         *types.WorldState
	Changed       bool
	Notifications []types.Notification
}

type handler func(d *draft, a types.Action) bool

var actionDispatch map[types.ActionType]handler

func init() {
	actionDispatch = map[types.ActionType]handler{
		types.ActionTrade:            handleTrade,
		types.ActionTravel:           handleTravel,
		types.ActionSoloOp:           handleSoloOp,
		types.ActionBuyGear:          handleBuyGear,
		types.ActionEquipGear:        handleEquipGear,
		types.ActionUnequipGear:      handleUnequipGear,
		types.ActionBuyVehicle:       handleBuyVehicle,
		types.ActionSellVehicle:      handleSellVehicle,
		types.ActionSwitchVehicle:    handleSwitchVehicle,
		types.ActionRepairVehicle:    handleRepairVehicle,
		types.ActionStealVehicle:     handleStealVehicle,
		types.ActionStreetRace:       handleStreetRace,
		types.ActionWashMoney:        handleWashMoney,
		types.ActionBuyBusiness:      handleBuyBusiness,
		types.ActionCraft:            handleCraft,
		types.ActionBuySafehouse:     handleBuySafehouse,
		types.ActionBuyVilla:         handleBuyVilla,
		types.ActionInstallVilla:     handleInstallVillaModule,
		types.ActionTakeLoan:         handleTakeLoan,
		types.ActionRepayDebt:        handleRepayDebt,
		types.ActionClaimDailyReward: handleClaimDailyReward,

		types.ActionBribePolice:    handleBribePolice,
		types.ActionReplateVehicle: handleReplateVehicle,
		types.ActionLayLow:         handleLayLow,
		types.ActionPrisonBribe:    handlePrisonBribe,
		types.ActionAttemptEscape:  handleAttemptEscape,
		types.ActionRecruitContact: handleRecruitContact,
		types.ActionDismissContact: handleDismissContact,

		types.ActionStartFactionFight: handleStartFactionFight,
		types.ActionStartNemesisFight: handleStartNemesisFight,
		types.ActionStartBossFight:    handleStartBossFight,
		types.ActionCombatAction:      handleCombatAction,
		types.ActionNegotiateNemesis:  handleNegotiateNemesis,
		types.ActionFleeCombat:        handleFleeCombat,

		types.ActionPlanHeist:           handlePlanHeist,
		types.ActionHeistRecon:          handleHeistRecon,
		types.ActionHeistBuyEquipment:   handleHeistBuyEquipment,
		types.ActionHeistAssignCrew:     handleHeistAssignCrew,
		types.ActionCancelHeist:         handleCancelHeist,
		types.ActionLaunchHeist:         handleLaunchHeist,
		types.ActionAdvanceHeist:        handleAdvanceHeist,
		types.ActionResolveComplication: handleResolveComplication,
		types.ActionFinishHeist:         handleFinishHeist,

		types.ActionHireCrew:          handleHireCrew,
		types.ActionFireCrew:          handleFireCrew,
		types.ActionHealCrew:          handleHealCrew,
		types.ActionStartDrugEmpire:   handleStartDrugEmpire,
		types.ActionBuildLab:          handleBuildLab,
		types.ActionUpgradeLabQuality: handleUpgradeLabQuality,
		types.ActionAllocateSkill:     handleAllocateSkill,
		types.ActionSpendMerit:        handleSpendMerit,
		types.ActionStartNewGamePlus:  handleStartNewGamePlus,

		types.ActionEndTurn:           handleEndTurn,
		types.ActionResolveEvent:      handleResolveEvent,
		types.ActionMergeServerFields: handleMergeServerFields,
		types.ActionLoadState:         handleLoadState,
		types.ActionResetGame:         handleResetGame,
	}
	if err := validateActionDispatchMap(); err != nil {
		panic(err)
	}
}

// Dispatch applies one action and returns the next state. The input state is
// never modified. Unknown actions, undecodable payloads and failed
// preconditions return the input state with Changed false.
func Dispatch(state *types.WorldState, action types.Action, env Env) Result {
	unchanged := Result{State: state}
	if state == nil {
		return unchanged
	}
	h, ok := actionDispatch[action.Type]
	if !ok || !Allowed(state, action.Type) {
		return unchanged
	}

	d := newDraft(state, env.withDefaults())
	if !h(d, action) {
		return unchanged
	}
	d.finalize()
	return Result{State: d.s, Changed: true, Notifications: d.notes}
}

// finalize restores derived fields after any handler
func (d *draft) finalize() {
	d.recomposeHeat()
	d.recomputeMaxInv()
	d.resyncChallenges()
}

func handleMergeServerFields(d *draft, a types.Action) bool {
	p, ok := decode[types.MergePayload](a)
	if !ok {
		return false
	}
	f := p.Fields
	if f.Money != nil {
		d.s.Money = max(0, *f.Money)
	}
	if f.DirtyMoney != nil {
		d.s.DirtyMoney = max(0, *f.DirtyMoney)
	}
	if f.PersonalHeat != nil {
		d.s.PersonalHeat = clamp(*f.PersonalHeat, 0, maxHeat)
	}
	if f.Heat != nil {
		d.s.Heat = clamp(*f.Heat, 0, maxHeat)
	}
	if f.Reputation != nil {
		d.s.Reputation = max(0, *f.Reputation)
	}
	if f.XP != nil {
		d.s.XP = max(0, *f.XP)
	}
	if f.Level != nil {
		d.s.Level = max(1, *f.Level)
	}
	if f.SkillPoints != nil {
		d.s.SkillPoints = max(0, *f.SkillPoints)
	}
	if f.MeritPoints != nil {
		d.s.MeritPoints = max(0, *f.MeritPoints)
	}
	if f.MaxHP != nil {
		d.s.MaxHP = max(1, *f.MaxHP)
	}
	if f.HP != nil {
		d.s.HP = clamp(*f.HP, 0, d.s.MaxHP)
	}
	if f.Unlocked != nil {
		d.take(ownUnlocked)
		d.s.Unlocked = cloneSlice(f.Unlocked)
	}
	if f.District != nil {
		d.s.District = *f.District
	}
	if f.Inventory != nil {
		d.take(ownInventory)
		d.s.Inventory = cloneMap(f.Inventory)
	}
	if f.Vehicles != nil {
		d.take(ownVehicles)
		d.s.Vehicles = cloneSlice(f.Vehicles)
	}
	if f.ActiveVehicleID != nil {
		d.s.ActiveVehicleID = *f.ActiveVehicleID
	}
	if f.Gear != nil {
		d.take(ownGear)
		d.s.Gear = cloneSlice(f.Gear)
	}
	if f.Equipped != nil {
		d.take(ownEquipped)
		d.s.Equipped = cloneMap(f.Equipped)
	}
	if f.Businesses != nil {
		d.take(ownBusinesses)
		d.s.Businesses = cloneSlice(f.Businesses)
	}
	switch {
	case f.Prison != nil:
		prison := *f.Prison
		d.s.Prison = &prison
		d.take(ownPrison)
	case f.Free != nil && *f.Free:
		d.s.Prison = nil
	}
	if f.Counters != nil {
		d.s.Counters = *f.Counters
	}
	if f.Daily != nil {
		d.s.Daily = *f.Daily
	}
	return true
}

func handleLoadState(d *draft, a types.Action) bool {
	p, ok := decode[types.LoadStatePayload](a)
	if !ok || p.State == nil {
		return false
	}
	*d.s = *p.State
	d.owned = ^uint64(0)
	return true
}

func handleResetGame(d *draft, a types.Action) bool {
	name := d.s.PlayerName
	if p, ok := decode[types.ResetPayload](a); ok && p.Name != "" {
		name = p.Name
	}
	*d.s = *NewWorldState(d.s.PlayerID, name, d.content(), d.tuning())
	d.owned = ^uint64(0)
	return true
}

// ServerFieldsOf extracts the authoritative subset returned to clients
func ServerFieldsOf(s *types.WorldState) types.ServerFields {
	money := s.Money
	dirty := s.DirtyMoney
	heat := s.Heat
	personal := s.PersonalHeat
	rep := s.Reputation
	xp := s.XP
	level := s.Level
	skill := s.SkillPoints
	merit := s.MeritPoints
	hp := s.HP
	maxHP := s.MaxHP
	district := s.District
	active := s.ActiveVehicleID
	counters := s.Counters
	daily := s.Daily

	fields := types.ServerFields{
		Money:           &money,
		DirtyMoney:      &dirty,
		Heat:            &heat,
		PersonalHeat:    &personal,
		Reputation:      &rep,
		XP:              &xp,
		Level:           &level,
		SkillPoints:     &skill,
		MeritPoints:     &merit,
		HP:              &hp,
		MaxHP:           &maxHP,
		Unlocked:        cloneSlice(s.Unlocked),
		District:        &district,
		Inventory:       cloneMap(s.Inventory),
		Vehicles:        cloneSlice(s.Vehicles),
		ActiveVehicleID: &active,
		Gear:            cloneSlice(s.Gear),
		Equipped:        cloneMap(s.Equipped),
		Businesses:      cloneSlice(s.Businesses),
		Counters:        &counters,
		Daily:           &daily,
	}
	if s.Prison != nil {
		prison := *s.Prison
		fields.Prison = &prison
	} else {
		free := true
		fields.Free = &free
	}
	return fields
}
