package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/internal/types"
)

func duel() types.CombatState {
	return types.CombatState{
		Kind:   CombatFaction,
		Phase:  1,
		Phases: 1,
		Player: types.Combatant{Name: "Zé", HP: 100, MaxHP: 100, Attack: 10, Defense: 4},
		Enemy:  types.Combatant{Name: "Capanga", HP: 50, MaxHP: 50, Attack: 8, Defense: 4},
		Log:    []string{"início"},
	}
}

func move(m string) types.Action {
	return act(types.ActionCombatAction, types.CombatMovePayload{Move: m})
}

func fighting(cs types.CombatState) *types.WorldState {
	s := newTestState()
	s.HP = cs.Player.HP
	s.ActiveCombat = &cs
	return s
}

func TestResolveCombatTurnMoves(t *testing.T) {
	r := fixedRoller(0)

	// Test case 1: attack trades blows
	cs := duel()
	next := ResolveCombatTurn(cs, MoveAttack, r)
	assert.Equal(t, 42, next.Enemy.HP)
	assert.Equal(t, 94, next.Player.HP)
	assert.Equal(t, 1, next.Turn)
	assert.Len(t, next.Log, 3)
	assert.Len(t, cs.Log, 1)
	assert.Equal(t, 50, cs.Enemy.HP)

	// Test case 2: heavy hits harder
	next = ResolveCombatTurn(cs, MoveHeavy, r)
	assert.Equal(t, 38, next.Enemy.HP)

	// Test case 3: defend heals and cuts incoming damage
	hurt := duel()
	hurt.Player.HP = 90
	next = ResolveCombatTurn(hurt, MoveDefend, r)
	assert.Equal(t, 93, next.Player.HP)
	assert.Equal(t, 50, next.Enemy.HP)

	// Test case 4: environment works once
	next = ResolveCombatTurn(cs, MoveEnvironment, r)
	assert.Equal(t, 25, next.Enemy.HP)
	assert.True(t, next.EnvironmentUsed)
	again := ResolveCombatTurn(next, MoveEnvironment, r)
	assert.Equal(t, next.Turn, again.Turn)

	// Test case 5: tactical stuns, so the enemy loses its swing
	next = ResolveCombatTurn(cs, MoveTactical, r)
	assert.Equal(t, 46, next.Enemy.HP)
	assert.Equal(t, 100, next.Player.HP)
	assert.False(t, next.Enemy.Stunned)

	// Test case 6: unknown moves and finished fights are ignored
	assert.Equal(t, cs.Turn, ResolveCombatTurn(cs, "bite", r).Turn)
	done := cs
	done.Finished = true
	assert.Equal(t, done, ResolveCombatTurn(done, MoveAttack, r))
}

func TestResolveCombatTurnFinishes(t *testing.T) {
	cs := duel()
	cs.Enemy.HP = 5
	next := ResolveCombatTurn(cs, MoveAttack, fixedRoller(0))
	assert.True(t, next.Finished)
	assert.True(t, next.Won)
	assert.Equal(t, 0, next.Enemy.HP)

	cs = duel()
	cs.Player.HP = 3
	next = ResolveCombatTurn(cs, MoveAttack, fixedRoller(0))
	assert.True(t, next.Finished)
	assert.False(t, next.Won)
	assert.Equal(t, 0, next.Player.HP)
}

func TestStartFactionFight(t *testing.T) {
	// Setup
	env := testEnv(fixedRoller(0))
	s := newTestState()

	// Test case 1: only the faction of the current district
	assert.False(t, Dispatch(s, act(types.ActionStartFactionFight, types.IDPayload{ID: "bicheiros"}), env).Changed)

	// Test case 2: starts a fight
	res := Dispatch(s, act(types.ActionStartFactionFight, types.IDPayload{ID: "comando"}), env)
	require.True(t, res.Changed)
	require.NotNil(t, res.State.ActiveCombat)
	assert.Equal(t, types.ActivityInCombat, res.State.Activity())
	assert.Equal(t, 8, res.State.ActiveCombat.Player.Attack)
	assert.Equal(t, 60, res.State.ActiveCombat.Enemy.HP)

	// Test case 3: tactical needs brains
	assert.False(t, Dispatch(res.State, move(MoveTactical), env).Changed)

	// Test case 4: too hurt to fight
	weak := newTestState()
	weak.HP = 20
	assert.False(t, Dispatch(weak, act(types.ActionStartFactionFight, types.IDPayload{ID: "comando"}), env).Changed)
}

func TestWinFactionFight(t *testing.T) {
	// Setup
	cs := duel()
	cs.TargetID = "comando"
	cs.Enemy.HP = 1
	s := fighting(cs)
	s.FactionProgress["comando"] = 2

	// Test case 1: rewards and conquest on the third win
	res := Dispatch(s, move(MoveAttack), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	st := res.State
	assert.Nil(t, st.ActiveCombat)
	assert.Equal(t, 3000, st.DirtyMoney)
	assert.Equal(t, 40, st.Reputation)
	assert.Equal(t, 5, st.PersonalHeat)
	assert.Equal(t, 3, st.FactionProgress["comando"])
	assert.Contains(t, st.ConqueredFactions, "comando")
	assert.Equal(t, 1, st.Counters.FightsWon)
	assert.Equal(t, 1, st.EndgamePhase)
	assert.Equal(t, 1, st.PhaseAnnounced)
	assert.Equal(t, 1, countNotifications(res.Notifications, "Nova fase"))
	assert.Equal(t, 2, s.FactionProgress["comando"])
	assert.Equal(t, 0, s.EndgamePhase)

	// Test case 2: the phase is announced once
	rematch := duel()
	rematch.TargetID = "comando"
	rematch.Enemy.HP = 1
	again := fighting(rematch)
	again.FactionProgress = st.FactionProgress
	again.ConqueredFactions = st.ConqueredFactions
	again.EndgamePhase = st.EndgamePhase
	again.PhaseAnnounced = st.PhaseAnnounced
	res = Dispatch(again, move(MoveAttack), testEnv(fixedRoller(0)))
	require.True(t, res.Changed)
	assert.Equal(t, 1, res.State.EndgamePhase)
	assert.Equal(t, 0, countNotifications(res.Notifications, "Nova fase"))
}

func countNotifications(ns []types.Notification, title string) int {
	n := 0
	for _, note := range ns {
		if note.Title == title {
			n++
		}
	}
	return n
}

func TestLoseFightHospitalizes(t *testing.T) {
	// Setup
	cs := duel()
	cs.Player.HP = 1
	cs.Enemy.Attack = 50
	cs.Enemy.HP = 100
	s := fighting(cs)
	s.Money = 500

	// Test case 1: no last stand, admitted with the bill partly as debt
	res := Dispatch(s, move(MoveAttack), testEnv(fixedRoller(99)))
	require.True(t, res.Changed)
	st := res.State
	assert.Nil(t, st.ActiveCombat)
	require.NotNil(t, st.Hospital)
	assert.Equal(t, 2, st.Hospital.DaysRemaining)
	assert.Equal(t, 2000, st.Hospital.Bill)
	assert.Equal(t, 0, st.Money)
	assert.Equal(t, 1500, st.Debt)
	assert.Equal(t, 1, st.HP)
	assert.Equal(t, 1, st.Hospitalizations)
	assert.Equal(t, types.ActivityHospitalized, st.Activity())

	// Test case 2: last stand skips the hospital
	res = Dispatch(s, move(MoveAttack), testEnv(fixedRoller(0)))
	assert.Nil(t, res.State.Hospital)
	assert.Equal(t, 1, res.State.HP)
	assert.Equal(t, 0, res.State.Hospitalizations)

	// Test case 3: the fourth admission ends the game
	s.Hospitalizations = 3
	res = Dispatch(s, move(MoveAttack), testEnv(fixedRoller(99)))
	assert.True(t, res.State.GameOver)
	assert.Equal(t, types.ActivityGameOver, res.State.Activity())
}

func bossFight(phase int, enemyHP int) *types.WorldState {
	boss, _ := DefaultContent().Boss("o_patrao")
	cs := duel()
	cs.Kind = CombatBoss
	cs.TargetID = boss.ID
	cs.Phase = phase
	cs.Phases = len(boss.Phases)
	cs.Enemy = bossCombatant(boss.Phases[phase-1])
	cs.Enemy.HP = enemyHP
	s := fighting(cs)
	s.Unlocked = []string{UnlockBoss}
	s.EndgamePhase = 3
	s.PhaseAnnounced = 3
	return s
}

func TestBossPhasesChain(t *testing.T) {
	// Setup
	env := testEnv(fixedRoller(0))

	// Test case 1: winning a phase spawns the next one
	s := bossFight(1, 1)
	res := Dispatch(s, move(MoveAttack), env)
	require.True(t, res.Changed)
	cs := res.State.ActiveCombat
	require.NotNil(t, cs)
	assert.Equal(t, 2, cs.Phase)
	assert.Equal(t, "Braço Direito", cs.Enemy.Name)
	assert.Equal(t, 160, cs.Enemy.HP)
	assert.Equal(t, res.State.HP, cs.Player.HP)
	assert.False(t, cs.Finished)

	// Test case 2: the final phase completes the endgame
	s = bossFight(3, 1)
	s.PersonalHeat = 80
	res = Dispatch(s, move(MoveAttack), env)
	require.True(t, res.Changed)
	st := res.State
	assert.Nil(t, st.ActiveCombat)
	require.NotNil(t, st.Victory)
	assert.Equal(t, "o_patrao", st.Victory.Boss)
	assert.True(t, st.BossDefeated["o_patrao"])
	assert.Equal(t, 0, st.PersonalHeat)
	assert.Equal(t, 0, st.Heat)
	assert.Equal(t, st.MaxHP, st.HP)
	assert.Equal(t, 4, st.EndgamePhase)
	assert.GreaterOrEqual(t, st.Money, 500000)
}

func TestBossFinalPhaseLossIsGameOver(t *testing.T) {
	s := bossFight(3, 200)
	s.ActiveCombat.Player.HP = 1
	s.HP = 1

	res := Dispatch(s, move(MoveAttack), testEnv(fixedRoller(99)))
	require.True(t, res.Changed)
	assert.True(t, res.State.GameOver)
	assert.Nil(t, res.State.Hospital)

	// an earlier phase only hospitalizes
	s = bossFight(1, 200)
	s.ActiveCombat.Player.HP = 1
	s.HP = 1
	res = Dispatch(s, move(MoveAttack), testEnv(fixedRoller(99)))
	assert.False(t, res.State.GameOver)
	assert.NotNil(t, res.State.Hospital)
}

func TestStartBossFightRequiresEndgame(t *testing.T) {
	env := testEnv(fixedRoller(0))
	s := newTestState()
	start := act(types.ActionStartBossFight, types.IDPayload{ID: "o_patrao"})

	assert.False(t, Dispatch(s, start, env).Changed)

	s.Unlocked = []string{UnlockBoss}
	s.EndgamePhase = 3
	res := Dispatch(s, start, env)
	require.True(t, res.Changed)
	assert.Equal(t, 1, res.State.ActiveCombat.Phase)
	assert.Equal(t, 3, res.State.ActiveCombat.Phases)

	s.BossDefeated["o_patrao"] = true
	assert.False(t, Dispatch(s, start, env).Changed)
}

func TestFleeCombat(t *testing.T) {
	env := testEnv(fixedRoller(0))
	s := fighting(duel())
	s.Reputation = 50

	res := Dispatch(s, act(types.ActionFleeCombat, nil), env)
	require.True(t, res.Changed)
	assert.Nil(t, res.State.ActiveCombat)
	assert.Equal(t, 40, res.State.Reputation)

	assert.False(t, Dispatch(bossFight(1, 100), act(types.ActionFleeCombat, nil), env).Changed)
}

func TestNemesis(t *testing.T) {
	// Setup
	env := testEnv(fixedRoller(0))
	s := newTestState()
	s.Day = 30
	s.Money = 20000
	s.Nemesis = &types.NemesisState{Name: "Sombra", Level: 1, Active: true}

	// Test case 1: negotiation buys a truce
	res := Dispatch(s, act(types.ActionNegotiateNemesis, nil), env)
	require.True(t, res.Changed)
	assert.False(t, res.State.Nemesis.Active)
	assert.Equal(t, 37, res.State.Nemesis.TruceUntil)
	assert.Equal(t, 10000, res.State.Money)
	assert.True(t, s.Nemesis.Active)

	// Test case 2: beating the nemesis makes it stronger
	res = Dispatch(s, act(types.ActionStartNemesisFight, nil), env)
	require.True(t, res.Changed)
	fight := res.State
	fight.ActiveCombat.Enemy.HP = 1
	res = Dispatch(fight, move(MoveAttack), env)
	require.True(t, res.Changed)
	n := res.State.Nemesis
	assert.Equal(t, 2, n.Level)
	assert.Equal(t, 1, n.Defeats)
	assert.False(t, n.Active)
	assert.Equal(t, 35, n.TruceUntil)
	assert.Equal(t, 5000, res.State.DirtyMoney)
}
