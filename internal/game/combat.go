package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

// Combat moves
const (
	MoveAttack      = "attack"
	MoveHeavy       = "heavy"
	MoveDefend      = "defend"
	MoveEnvironment = "environment"
	MoveTactical    = "tactical"
)

// Combat kinds
const (
	CombatFaction = "faction"
	CombatNemesis = "nemesis"
	CombatBoss    = "boss"
)

const environmentDamage = 25

// ResolveCombatTurn plays one exchange of blows. It is pure: cs is not modified.
// An invalid move returns cs unchanged.
func ResolveCombatTurn(cs types.CombatState, move string, rng Roller) types.CombatState {
	if cs.Finished {
		return cs
	}
	if move == MoveEnvironment && cs.EnvironmentUsed {
		return cs
	}
	switch move {
	case MoveAttack, MoveHeavy, MoveDefend, MoveEnvironment, MoveTactical:
	default:
		return cs
	}

	next := cs
	next.Log = cloneSlice(cs.Log)
	next.Turn++
	defending := false

	strike := func(mult int) int {
		raw := next.Player.Attack + rng.Intn(6) - next.Enemy.Defense/2
		return max(1, raw*mult/10)
	}

	switch move {
	case MoveAttack:
		dmg := strike(10)
		next.Enemy.HP -= dmg
		next.Log = append(next.Log, fmt.Sprintf("Você acertou %s: -%d", next.Enemy.Name, dmg))
	case MoveHeavy:
		if chance(rng, 70) {
			dmg := strike(16)
			next.Enemy.HP -= dmg
			next.Log = append(next.Log, fmt.Sprintf("Golpe pesado em %s: -%d", next.Enemy.Name, dmg))
		} else {
			next.Log = append(next.Log, "Golpe pesado errou")
		}
	case MoveDefend:
		defending = true
		next.Player.HP = min(next.Player.MaxHP, next.Player.HP+5)
		next.Log = append(next.Log, "Você se protegeu")
	case MoveEnvironment:
		next.EnvironmentUsed = true
		next.Enemy.HP -= environmentDamage
		next.Log = append(next.Log, fmt.Sprintf("Você usou o cenário: -%d", environmentDamage))
	case MoveTactical:
		dmg := strike(5)
		next.Enemy.HP -= dmg
		next.Enemy.Stunned = true
		next.Log = append(next.Log, fmt.Sprintf("Manobra tática: %s atordoado, -%d", next.Enemy.Name, dmg))
	}

	if next.Enemy.HP <= 0 {
		next.Enemy.HP = 0
		next.Finished = true
		next.Won = true
		next.Log = append(next.Log, fmt.Sprintf("%s caiu", next.Enemy.Name))
		return next
	}

	if next.Enemy.Stunned {
		next.Enemy.Stunned = false
		next.Log = append(next.Log, fmt.Sprintf("%s está atordoado", next.Enemy.Name))
		return next
	}

	dmg := max(1, next.Enemy.Attack+rng.Intn(6)-next.Player.Defense/2)
	if defending {
		dmg = max(1, dmg*4/10)
	}
	next.Player.HP -= dmg
	next.Log = append(next.Log, fmt.Sprintf("%s acertou você: -%d", next.Enemy.Name, dmg))
	if next.Player.HP <= 0 {
		next.Player.HP = 0
		next.Finished = true
		next.Won = false
		next.Log = append(next.Log, "Você caiu")
	}
	return next
}

// PlayerCombatant derives the player's fighting stats from attributes and gear
func PlayerCombatant(s *types.WorldState, c *Content) types.Combatant {
	attack := 6 + 2*s.Stats.Muscle
	defense := 2 + s.Stats.Stealth
	for _, gearID := range s.Equipped {
		if def, ok := c.GearItem(gearID); ok {
			attack += def.Attack
			defense += def.Defense
		}
	}
	return types.Combatant{
		Name:    s.PlayerName,
		HP:      s.HP,
		MaxHP:   s.MaxHP,
		Attack:  attack,
		Defense: defense,
	}
}

func (d *draft) startCombat(kind, target string, phase, phases int, enemy types.Combatant) {
	d.s.ActiveCombat = &types.CombatState{
		Kind:     kind,
		TargetID: target,
		Phase:    phase,
		Phases:   phases,
		Player:   PlayerCombatant(d.s, d.content()),
		Enemy:    enemy,
		Log:      make([]string, 0),
	}
}

func handleStartFactionFight(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	f, ok := d.content().Faction(p.ID)
	if !ok || d.s.IsConquered(f.ID) || d.s.District != f.District || d.s.HP <= d.s.MaxHP/5 {
		return false
	}
	// each win hardens the faction
	wins := d.s.FactionProgress[f.ID]
	d.startCombat(CombatFaction, f.ID, 1, 1, types.Combatant{
		Name:    f.Name,
		HP:      f.HP + 15*wins,
		MaxHP:   f.HP + 15*wins,
		Attack:  f.Attack + 2*wins,
		Defense: f.Defense + wins,
	})
	return true
}

func nemesisCombatant(n *types.NemesisState) types.Combatant {
	return types.Combatant{
		Name:    n.Name,
		HP:      60 + 25*n.Level,
		MaxHP:   60 + 25*n.Level,
		Attack:  8 + 3*n.Level,
		Defense: 4 + 2*n.Level,
	}
}

func handleStartNemesisFight(d *draft, _ types.Action) bool {
	n := d.s.Nemesis
	if n == nil || !n.Active || d.s.HP <= d.s.MaxHP/5 {
		return false
	}
	d.startCombat(CombatNemesis, n.Name, 1, 1, nemesisCombatant(n))
	return true
}

func bossCombatant(phase BossPhase) types.Combatant {
	return types.Combatant{
		Name:    phase.Name,
		HP:      phase.HP,
		MaxHP:   phase.HP,
		Attack:  phase.Attack,
		Defense: phase.Defense,
	}
}

func handleStartBossFight(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || !d.s.HasUnlocked(UnlockBoss) || d.s.EndgamePhase < 3 {
		return false
	}
	boss, ok := d.content().Boss(p.ID)
	if !ok || len(boss.Phases) == 0 || d.s.BossDefeated[boss.ID] {
		return false
	}
	d.startCombat(CombatBoss, boss.ID, 1, len(boss.Phases), bossCombatant(boss.Phases[0]))
	return true
}

func handleCombatAction(d *draft, a types.Action) bool {
	p, ok := decode[types.CombatMovePayload](a)
	if !ok || d.s.ActiveCombat == nil || d.s.ActiveCombat.Finished {
		return false
	}
	if p.Move == MoveTactical && d.s.Stats.Brains < 3 {
		return false
	}

	current := *d.s.ActiveCombat
	next := ResolveCombatTurn(current, p.Move, d.rng())
	if next.Turn == current.Turn {
		return false
	}
	d.s.HP = next.Player.HP
	d.s.ActiveCombat = &next
	d.take(ownCombat)

	if !next.Finished {
		return true
	}
	if next.Won {
		d.winCombat(next)
	} else {
		d.loseCombat(next)
	}
	d.updateEndgamePhase()
	d.evaluateAchievements()
	return true
}

func (d *draft) rewardMod() int {
	if ev, ok := weekEventDef(d.s, d.content()); ok {
		return 100 + ev.RewardMod
	}
	return 100
}

func (d *draft) winCombat(cs types.CombatState) {
	d.s.Counters.FightsWon++

	switch cs.Kind {
	case CombatFaction:
		d.s.ActiveCombat = nil
		f, _ := d.content().Faction(cs.TargetID)
		d.earnDirty(pct(f.Reward, d.rewardMod()))
		d.addRep(f.Rep)
		d.addPersonalHeat(5)
		d.addXP(50)
		progress := d.FactionProgress()
		progress[f.ID]++
		if progress[f.ID] >= d.tuning().FactionWinsToConquer && !d.s.IsConquered(f.ID) {
			d.s.ConqueredFactions = append(d.Conquered(), f.ID)
			d.notify(types.NotifyPhone, "Território conquistado", fmt.Sprintf("%s agora é seu.", f.Name))
		}
	case CombatNemesis:
		d.s.ActiveCombat = nil
		if n := d.Nemesis(); n != nil {
			d.earnDirty(5000 * n.Level)
			n.Level++
			n.Defeats++
			n.Active = false
			n.TruceUntil = d.s.Day + 5
		}
		d.addRep(30)
		d.addXP(120)
		d.notify(types.NotifyPhone, "Nêmesis derrotado", "Ele vai voltar mais forte.")
	case CombatBoss:
		boss, _ := d.content().Boss(cs.TargetID)
		if cs.Phase < cs.Phases && cs.Phase < len(boss.Phases) {
			phase := boss.Phases[cs.Phase]
			d.startCombat(CombatBoss, boss.ID, cs.Phase+1, cs.Phases, bossCombatant(phase))
			d.notify(types.NotifyToast, boss.Name, fmt.Sprintf("Fase %d: %s", cs.Phase+1, phase.Name))
			return
		}
		d.completeEndgame(boss)
	}
}

// completeEndgame settles the final boss win
func (d *draft) completeEndgame(boss BossDef) {
	d.s.ActiveCombat = nil
	d.s.HP = d.s.MaxHP
	d.earn(boss.Reward)
	d.addRep(500)
	d.addXP(1000)

	d.s.PersonalHeat = 0
	if len(d.s.Vehicles) > 0 {
		vehicles := d.Vehicles()
		for i := range vehicles {
			vehicles[i].Heat = 0
		}
	}
	d.recomposeHeat()

	d.BossDefeated()[boss.ID] = true
	d.s.Victory = &types.VictoryData{
		Day:         d.s.Day,
		Level:       d.s.Level,
		Money:       d.s.Money,
		Reputation:  d.s.Reputation,
		Boss:        boss.ID,
		NewGamePlus: d.s.NewGamePlus,
	}
	d.updateEndgamePhase()
	d.notify(types.NotifyPhone, "Vitória", fmt.Sprintf("%s caiu. A cidade é sua.", boss.Name))
}

func (d *draft) loseCombat(cs types.CombatState) {
	d.s.ActiveCombat = nil
	d.s.Counters.FightsLost++

	if chance(d.rng(), d.tuning().LastStandChance) {
		d.s.HP = 1
		d.notify(types.NotifyToast, "Última resistência", "Você escapou por pouco")
		return
	}
	if cs.Kind == CombatBoss && cs.Phase >= cs.Phases {
		d.s.GameOver = true
		d.notify(types.NotifyPhone, "Fim de jogo", "O Patrão venceu.")
		return
	}
	if cs.Kind == CombatFaction {
		d.addRep(-10)
	}
	d.hospitalize()
}

// hospitalize admits the player at an escalating cost; unpaid bills become debt
func (d *draft) hospitalize() {
	h := d.tuning().Hospital
	visits := d.s.Hospitalizations + 1
	d.s.Hospitalizations = visits
	if visits > h.MaxVisits {
		d.s.GameOver = true
		d.notify(types.NotifyPhone, "Fim de jogo", "Seu corpo não aguentou mais uma internação.")
		return
	}

	bill := h.BaseCost * visits
	d.s.Debt += d.spendUpTo(bill)
	d.s.HP = 1
	d.s.Hospital = &types.HospitalState{DaysRemaining: h.Days, Bill: bill}
	d.notify(types.NotifyPhone, "Hospital", fmt.Sprintf("Internado por %d dias. Conta: %d.", h.Days, bill))
}

func handleFleeCombat(d *draft, _ types.Action) bool {
	cs := d.s.ActiveCombat
	if cs == nil || cs.Kind == CombatBoss {
		return false
	}
	d.s.ActiveCombat = nil
	d.addRep(-10)
	return true
}

func handleNegotiateNemesis(d *draft, _ types.Action) bool {
	n := d.s.Nemesis
	if n == nil || !n.Active {
		return false
	}
	cost := 10000 * n.Level
	if !d.spend(cost) {
		return false
	}
	if chance(d.rng(), clamp(30+5*d.s.Stats.Charisma, 5, 90)) {
		nem := d.Nemesis()
		nem.Active = false
		nem.TruceUntil = d.s.Day + 7
		d.notify(types.NotifyPhone, "Trégua", fmt.Sprintf("%s aceitou o acordo por uma semana.", n.Name))
		return true
	}
	d.addRep(-5)
	d.notify(types.NotifyToast, "Negociação", fmt.Sprintf("%s pegou o dinheiro e riu na sua cara.", n.Name))
	return true
}
