package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

var supportedActionTypes = []types.ActionType{
	types.ActionTrade,
	types.ActionTravel,
	types.ActionSoloOp,
	types.ActionBuyGear,
	types.ActionEquipGear,
	types.ActionUnequipGear,
	types.ActionBuyVehicle,
	types.ActionSellVehicle,
	types.ActionSwitchVehicle,
	types.ActionRepairVehicle,
	types.ActionStealVehicle,
	types.ActionStreetRace,
	types.ActionWashMoney,
	types.ActionBuyBusiness,
	types.ActionCraft,
	types.ActionBuySafehouse,
	types.ActionBuyVilla,
	types.ActionInstallVilla,
	types.ActionTakeLoan,
	types.ActionRepayDebt,
	types.ActionClaimDailyReward,

	types.ActionBribePolice,
	types.ActionReplateVehicle,
	types.ActionLayLow,
	types.ActionPrisonBribe,
	types.ActionAttemptEscape,
	types.ActionRecruitContact,
	types.ActionDismissContact,

	types.ActionStartFactionFight,
	types.ActionStartNemesisFight,
	types.ActionStartBossFight,
	types.ActionCombatAction,
	types.ActionNegotiateNemesis,
	types.ActionFleeCombat,

	types.ActionPlanHeist,
	types.ActionHeistRecon,
	types.ActionHeistBuyEquipment,
	types.ActionHeistAssignCrew,
	types.ActionCancelHeist,
	types.ActionLaunchHeist,
	types.ActionAdvanceHeist,
	types.ActionResolveComplication,
	types.ActionFinishHeist,

	types.ActionHireCrew,
	types.ActionFireCrew,
	types.ActionHealCrew,
	types.ActionStartDrugEmpire,
	types.ActionBuildLab,
	types.ActionUpgradeLabQuality,
	types.ActionAllocateSkill,
	types.ActionSpendMerit,
	types.ActionStartNewGamePlus,

	types.ActionEndTurn,
	types.ActionResolveEvent,
	types.ActionMergeServerFields,
	types.ActionLoadState,
	types.ActionResetGame,
}

// activity gating masks
type activityMask uint8

const (
	allowFree activityMask = 1 << iota
	allowPrison
	allowHospital
	allowCombat
	allowHeist
	allowGameOver

	allowAny      = allowFree | allowPrison | allowHospital | allowCombat | allowHeist | allowGameOver
	allowConfined = allowFree | allowPrison | allowHospital
	allowAlive    = allowFree | allowPrison | allowHospital | allowCombat | allowHeist
)

func maskFor(a types.Activity) activityMask {
	switch a {
	case types.ActivityImprisoned:
		return allowPrison
	case types.ActivityHospitalized:
		return allowHospital
	case types.ActivityInCombat:
		return allowCombat
	case types.ActivityInHeist:
		return allowHeist
	case types.ActivityGameOver:
		return allowGameOver
	}
	return allowFree
}

// actionActivities overrides the default free-only gate
var actionActivities = map[types.ActionType]activityMask{
	types.ActionPrisonBribe:         allowPrison,
	types.ActionAttemptEscape:       allowPrison,
	types.ActionEndTurn:             allowConfined,
	types.ActionResolveEvent:        allowConfined,
	types.ActionRepayDebt:           allowConfined,
	types.ActionClaimDailyReward:    allowConfined,
	types.ActionDismissContact:      allowConfined,
	types.ActionAllocateSkill:       allowAlive,
	types.ActionSpendMerit:          allowAlive,
	types.ActionCombatAction:        allowCombat,
	types.ActionFleeCombat:          allowCombat,
	types.ActionAdvanceHeist:        allowHeist,
	types.ActionResolveComplication: allowHeist,
	types.ActionFinishHeist:         allowHeist,
	types.ActionCancelHeist:         allowFree | allowHeist,
	types.ActionMergeServerFields:   allowAny,
	types.ActionLoadState:           allowAny,
	types.ActionResetGame:           allowAny,
}

// Allowed reports whether an action may run in the state's current activity
func Allowed(s *types.WorldState, t types.ActionType) bool {
	mask, ok := actionActivities[t]
	if !ok {
		mask = allowFree
	}
	return mask&maskFor(s.Activity()) != 0
}

// SupportedActionTypes lists every action tag the dispatcher handles
func SupportedActionTypes() []types.ActionType {
	out := make([]types.ActionType, len(supportedActionTypes))
	copy(out, supportedActionTypes)
	return out
}

func validateActionDispatchMap() error {
	return validateDispatchMap("actionDispatch", actionDispatch, supportedActionTypes)
}

func validateDispatchMap[T any](name string, handlers map[types.ActionType]T, supported []types.ActionType) error {
	allowed := make(map[types.ActionType]struct{}, len(supported))
	for _, k := range supported {
		if k == "" {
			return fmt.Errorf("%s: empty supported key", name)
		}
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("%s: duplicate supported key %q", name, k)
		}
		allowed[k] = struct{}{}
	}
	if len(handlers) != len(allowed) {
		return fmt.Errorf("%s size mismatch: got=%d want=%d", name, len(handlers), len(allowed))
	}
	for k := range handlers {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("%s has unsupported key %q", name, k)
		}
	}
	for k := range allowed {
		if _, ok := handlers[k]; !ok {
			return fmt.Errorf("%s missing key %q", name, k)
		}
	}
	return nil
}

// serverOps maps server-authoritative actions to their RPC operation
var serverOps = map[types.ActionType]string{
	types.ActionTrade:         "trade",
	types.ActionTravel:        "travel",
	types.ActionSoloOp:        "solo_op",
	types.ActionBuyGear:       "buy_gear",
	types.ActionEquipGear:     "equip_gear",
	types.ActionUnequipGear:   "unequip_gear",
	types.ActionBuyVehicle:    "buy_vehicle",
	types.ActionSwitchVehicle: "switch_vehicle",
	types.ActionWashMoney:     "wash_money",
	types.ActionBribePolice:   "bribe_police",
	types.ActionBuyBusiness:   "buy_business",
}

// ServerOp returns the RPC operation for a server-authoritative action
func ServerOp(t types.ActionType) (string, bool) {
	op, ok := serverOps[t]
	return op, ok
}

// ActionForOp is the inverse of ServerOp
func ActionForOp(op string) (types.ActionType, bool) {
	for t, o := range serverOps {
		if o == op {
			return t, true
		}
	}
	return "", false
}
