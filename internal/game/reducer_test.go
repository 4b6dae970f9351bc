package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/internal/types"
)

func TestDispatchMapCoversEveryAction(t *testing.T) {
	require.NoError(t, validateActionDispatchMap())
	assert.Len(t, actionDispatch, len(SupportedActionTypes()))

	for _, at := range SupportedActionTypes() {
		_, ok := actionDispatch[at]
		assert.True(t, ok, "missing handler for %s", at)
	}
}

func TestValidateDispatchMapRejectsMismatch(t *testing.T) {
	handlers := map[types.ActionType]int{types.ActionTrade: 1}
	err := validateDispatchMap("test", handlers, []types.ActionType{types.ActionTrade, types.ActionTravel})
	assert.ErrorContains(t, err, "size mismatch")

	err = validateDispatchMap("test", handlers, []types.ActionType{types.ActionTrade, types.ActionTrade})
	assert.ErrorContains(t, err, "duplicate")
}

func TestDispatchUnknownActionIsNoop(t *testing.T) {
	// Setup
	s := newTestState()

	// Test case 1: unknown tag
	res := Dispatch(s, types.Action{Type: "DANCE"}, testEnv(fixedRoller(0)))
	assert.False(t, res.Changed)
	assert.Same(t, s, res.State)

	// Test case 2: undecodable payload
	res = Dispatch(s, types.Action{Type: types.ActionTrade, Payload: []byte(`{"qty":"many"}`)}, testEnv(fixedRoller(0)))
	assert.False(t, res.Changed)
	assert.Same(t, s, res.State)

	// Test case 3: missing payload
	res = Dispatch(s, types.Action{Type: types.ActionBuyVehicle}, testEnv(fixedRoller(0)))
	assert.False(t, res.Changed)

	// Test case 4: nil state
	res = Dispatch(nil, act(types.ActionEndTurn, nil), testEnv(fixedRoller(0)))
	assert.Nil(t, res.State)
}

func TestDispatchNeverMutatesInput(t *testing.T) {
	// Setup
	s := newTestState()
	s.Money = 500000
	s.Level = 30
	s.Unlocked = []string{UnlockSafehouse, UnlockVilla, UnlockDrugEmpire, UnlockNemesis}
	env := testEnv(fixedRoller(0))
	s = run(t, s, env,
		act(types.ActionBuyVehicle, types.IDPayload{ID: "sedan"}),
		act(types.ActionBuyGear, types.IDPayload{ID: "mochila"}),
		act(types.ActionEquipGear, types.IDPayload{ID: "mochila"}),
		act(types.ActionHireCrew, types.IDPayload{ID: "hacker"}),
		act(types.ActionBuyBusiness, types.IDPayload{ID: "lava_jato"}),
		act(types.ActionBuyVilla, nil),
		act(types.ActionStartDrugEmpire, nil),
		act(types.ActionRecruitContact, types.IDPayload{ID: "cop"}),
	)
	require.NotEmpty(t, s.Vehicles)
	require.NotNil(t, s.Villa)

	actions := []types.Action{
		act(types.ActionTrade, types.TradePayload{Good: "cigarros", Qty: 3, Side: types.SideBuy}),
		act(types.ActionTravel, types.TravelPayload{District: "centro"}),
		act(types.ActionInstallVilla, types.IDPayload{ID: ModuleVault}),
		act(types.ActionBuildLab, nil),
		act(types.ActionRepairVehicle, types.IDPayload{ID: s.Vehicles[0].ID}),
		act(types.ActionUnequipGear, types.IDPayload{ID: "bag"}),
		act(types.ActionPlanHeist, types.IDPayload{ID: "conveniencia"}),
		act(types.ActionEndTurn, nil),
	}

	// Test case 1: every action leaves its input byte-identical
	for _, a := range actions {
		before := snapshotJSON(t, s)
		res := Dispatch(s, a, env)
		assert.Equal(t, before, snapshotJSON(t, s), "action %s mutated its input", a.Type)
		if res.Changed {
			assert.NotSame(t, s, res.State)
		}
		s = res.State
	}
}

func TestActivityGating(t *testing.T) {
	// Setup
	s := newTestState()
	s.Prison = &types.PrisonState{DaysRemaining: 3, Sentence: 3}
	env := testEnv(fixedRoller(0))

	// Test case 1: prison blocks free-world actions
	res := Dispatch(s, act(types.ActionTrade, types.TradePayload{Good: "cigarros", Qty: 1, Side: types.SideBuy}), env)
	assert.False(t, res.Changed)
	assert.False(t, Allowed(s, types.ActionTravel))

	// Test case 2: prison allows its own actions and the day
	assert.True(t, Allowed(s, types.ActionPrisonBribe))
	assert.True(t, Allowed(s, types.ActionAttemptEscape))
	assert.True(t, Allowed(s, types.ActionEndTurn))

	// Test case 3: game over only allows meta actions
	over := newTestState()
	over.GameOver = true
	assert.False(t, Allowed(over, types.ActionEndTurn))
	assert.True(t, Allowed(over, types.ActionResetGame))
	assert.True(t, Allowed(over, types.ActionLoadState))

	// Test case 4: combat actions require a fight
	free := newTestState()
	assert.False(t, Allowed(free, types.ActionCombatAction))
	assert.True(t, Allowed(free, types.ActionTrade))
}

func TestActivityPrecedence(t *testing.T) {
	s := newTestState()
	s.ActiveHeist = &types.ActiveHeist{Template: "conveniencia"}
	assert.Equal(t, types.ActivityInHeist, s.Activity())

	s.ActiveCombat = &types.CombatState{}
	assert.Equal(t, types.ActivityInCombat, s.Activity())

	s.Hospital = &types.HospitalState{DaysRemaining: 1}
	assert.Equal(t, types.ActivityHospitalized, s.Activity())

	s.Prison = &types.PrisonState{DaysRemaining: 1}
	assert.Equal(t, types.ActivityImprisoned, s.Activity())

	s.GameOver = true
	assert.Equal(t, types.ActivityGameOver, s.Activity())
}

func TestMergeServerFields(t *testing.T) {
	// Setup
	local := newTestState()
	local.Inventory["maconha"] = 4
	money := 7777
	district := "porto"
	fields := types.ServerFields{
		Money:     &money,
		District:  &district,
		Inventory: map[string]int{},
	}

	// Test case 1: set fields are applied, nil fields untouched
	res := Dispatch(local, act(types.ActionMergeServerFields, types.MergePayload{Fields: fields}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.Equal(t, 7777, res.State.Money)
	assert.Equal(t, "porto", res.State.District)
	assert.Empty(t, res.State.Inventory)
	assert.Equal(t, local.Reputation, res.State.Reputation)
	assert.Equal(t, 4, local.Inventory["maconha"])

	// Test case 2: a full server projection converges the client
	server := newTestState()
	server.Money = 10000
	server = run(t, server, testEnv(fixedRoller(0)),
		act(types.ActionBuyVehicle, types.IDPayload{ID: "moto"}),
		act(types.ActionTrade, types.TradePayload{Good: "cigarros", Qty: 5, Side: types.SideBuy}),
	)
	res = Dispatch(newTestState(), act(types.ActionMergeServerFields, types.MergePayload{Fields: ServerFieldsOf(server)}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.Equal(t, server.Money, res.State.Money)
	assert.Equal(t, server.Inventory, res.State.Inventory)
	assert.Equal(t, server.Vehicles, res.State.Vehicles)
	assert.Equal(t, server.ActiveVehicleID, res.State.ActiveVehicleID)
	assert.Equal(t, server.MaxInv, res.State.MaxInv)

	// Test case 3: a release on the server frees the client
	jailed := newTestState()
	jailed.Prison = &types.PrisonState{DaysRemaining: 3, Sentence: 3}
	res = Dispatch(jailed, act(types.ActionMergeServerFields, types.MergePayload{Fields: ServerFieldsOf(newTestState())}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.Nil(t, res.State.Prison)
	assert.Equal(t, types.ActivityFree, res.State.Activity())
	assert.NotNil(t, jailed.Prison)

	// Test case 4: a partial payload leaves the sentence alone
	res = Dispatch(jailed, act(types.ActionMergeServerFields, types.MergePayload{Fields: fields}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	require.NotNil(t, res.State.Prison)
	assert.Equal(t, 3, res.State.Prison.DaysRemaining)
}

func TestLoadAndResetState(t *testing.T) {
	// Setup
	loaded := newTestState()
	loaded.Day = 42
	loaded.Money = 123

	// Test case 1: LOAD_STATE replaces everything
	res := Dispatch(newTestState(), act(types.ActionLoadState, types.LoadStatePayload{State: loaded}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.Equal(t, 42, res.State.Day)
	assert.Equal(t, 123, res.State.Money)

	// Test case 2: RESET_GAME starts over even after game over
	over := newTestState()
	over.GameOver = true
	over.Day = 90
	res = Dispatch(over, act(types.ActionResetGame, types.ResetPayload{Name: "Novo"}), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.False(t, res.State.GameOver)
	assert.Equal(t, 1, res.State.Day)
	assert.Equal(t, "Novo", res.State.PlayerName)
	assert.Equal(t, over.PlayerID, res.State.PlayerID)
}

func TestServerOpsRoundTrip(t *testing.T) {
	for _, at := range []types.ActionType{types.ActionTrade, types.ActionTravel, types.ActionBuyBusiness} {
		op, ok := ServerOp(at)
		require.True(t, ok)
		back, ok := ActionForOp(op)
		require.True(t, ok)
		assert.Equal(t, at, back)
	}
	_, ok := ServerOp(types.ActionEndTurn)
	assert.False(t, ok)
	_, ok = ActionForOp("end_turn")
	assert.False(t, ok)
}

// A long random walk must keep heat and money inside their bounds
func TestRandomWalkKeepsBounds(t *testing.T) {
	// Setup
	env := testEnv(NewSeededRoller(7))
	pick := rand.New(rand.NewSource(11))
	goods := []string{"cigarros", "maconha", "po", "armas"}
	districts := []string{"favela", "centro", "porto", "zona_sul", "baixada"}
	s := newTestState()

	for i := 0; i < 600; i++ {
		var a types.Action
		switch pick.Intn(9) {
		case 0:
			a = act(types.ActionTrade, types.TradePayload{Good: goods[pick.Intn(len(goods))], Qty: 1 + pick.Intn(5), Side: types.SideBuy})
		case 1:
			a = act(types.ActionTrade, types.TradePayload{Good: goods[pick.Intn(len(goods))], Qty: 1 + pick.Intn(5), Side: types.SideSell})
		case 2:
			a = act(types.ActionTravel, types.TravelPayload{District: districts[pick.Intn(len(districts))]})
		case 3:
			a = act(types.ActionSoloOp, types.IDPayload{ID: "assalto"})
		case 4:
			a = act(types.ActionStealVehicle, nil)
		case 5:
			a = act(types.ActionBribePolice, types.AmountPayload{Amount: 500 + pick.Intn(3000)})
		case 6:
			a = act(types.ActionAttemptEscape, nil)
		case 7:
			a = act(types.ActionPrisonBribe, nil)
		default:
			a = act(types.ActionEndTurn, nil)
		}
		s = Dispatch(s, a, env).State

		require.GreaterOrEqual(t, s.Heat, 0)
		require.LessOrEqual(t, s.Heat, 100)
		require.GreaterOrEqual(t, s.PersonalHeat, 0)
		require.LessOrEqual(t, s.PersonalHeat, 100)
		require.GreaterOrEqual(t, s.Money, 0)
		require.GreaterOrEqual(t, s.DirtyMoney, 0)
		for _, v := range s.Vehicles {
			require.GreaterOrEqual(t, v.Heat, 0)
			require.LessOrEqual(t, v.Heat, 100)
		}
	}
}
