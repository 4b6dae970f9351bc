package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

const ironLungsHP = 20

// XPForLevel is the XP needed to leave a level
func XPForLevel(level int) int {
	return 100 * level
}

var milestones = []struct {
	level  int
	unlock string
	title  string
}{
	{5, UnlockSafehouse, "Esconderijos liberados"},
	{10, UnlockVilla, "Mansão liberada"},
	{15, UnlockDrugEmpire, "Império das drogas liberado"},
	{20, UnlockNemesis, "Alguém quer a sua cabeça"},
	{25, UnlockBoss, "O Patrão sabe o seu nome"},
}

// addXP grants experience and resolves level-ups and milestones
func (d *draft) addXP(amount int) {
	if amount <= 0 {
		return
	}
	d.s.XP += amount
	for d.s.XP >= XPForLevel(d.s.Level) {
		d.s.XP -= XPForLevel(d.s.Level)
		d.s.Level++
		d.s.SkillPoints++
		if d.s.Level%5 == 0 {
			d.s.MeritPoints += 2
		} else {
			d.s.MeritPoints++
		}
		d.s.MaxHP += 5
		d.s.HP = min(d.s.MaxHP, d.s.HP+5)
		d.notify(types.NotifyToast, "Subiu de nível", fmt.Sprintf("Nível %d", d.s.Level))

		for _, m := range milestones {
			if m.level == d.s.Level && d.unlock(m.unlock) {
				d.earn(1000 * m.level)
				d.notify(types.NotifyPhone, m.title, fmt.Sprintf("Bônus de nível %d: +%d", m.level, 1000*m.level))
			}
		}
	}
}

func handleAllocateSkill(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.SkillPoints <= 0 {
		return false
	}
	limit := d.tuning().MaxStat
	stats := &d.s.Stats
	var target *int
	switch p.ID {
	case StatMuscle:
		target = &stats.Muscle
	case StatBrains:
		target = &stats.Brains
	case StatCharisma:
		target = &stats.Charisma
	case StatStealth:
		target = &stats.Stealth
	default:
		return false
	}
	if *target >= limit {
		return false
	}
	*target++
	d.s.SkillPoints--
	return true
}

func handleSpendMerit(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.hasPerk(p.ID) {
		return false
	}
	perk, ok := d.content().Perk(p.ID)
	if !ok || d.s.MeritPoints < perk.Cost {
		return false
	}
	d.s.MeritPoints -= perk.Cost
	d.s.Perks = append(d.Perks(), perk.ID)
	if perk.ID == PerkIronLungs {
		d.s.MaxHP += ironLungsHP
		d.s.HP += ironLungsHP
	}
	return true
}

// NetWorth is clean plus dirty money minus debt
func NetWorth(s *types.WorldState) int {
	return s.Money + s.DirtyMoney - s.Debt
}

var achievementChecks = map[string]func(s *types.WorldState) bool{
	"primeiro_milhao": func(s *types.WorldState) bool { return NetWorth(s) >= 1_000_000 },
	"fugitivo":        func(s *types.WorldState) bool { return s.Counters.Escapes > 0 },
	"dono_da_rua":     func(s *types.WorldState) bool { return len(s.ConqueredFactions) > 0 },
	"mestre_do_roubo": func(s *types.WorldState) bool { return s.HeistsCompleted >= 5 },
	"lavanderia":      func(s *types.WorldState) bool { return s.Counters.MoneyWashed >= 100_000 },
	"sobrevivente":    func(s *types.WorldState) bool { return s.Hospitalizations > 0 && s.Hospital == nil },
}

// evaluateAchievements grants each satisfied achievement once
func (d *draft) evaluateAchievements() {
	for _, def := range d.content().Achievements {
		if _, done := d.s.Achievements[def.ID]; done {
			continue
		}
		check, ok := achievementChecks[def.ID]
		if !ok || !check(d.s) {
			continue
		}
		d.Achievements()[def.ID] = d.s.Day
		d.earn(def.Reward)
		d.notify(types.NotifyToast, "Conquista", def.Name)
	}
}

// ComputeEndgamePhase derives the phase from conquests, reputation and boss wins
func ComputeEndgamePhase(s *types.WorldState) int {
	conquered := len(s.ConqueredFactions)
	for _, won := range s.BossDefeated {
		if won {
			return 4
		}
	}
	switch {
	case conquered >= 5 && s.Reputation >= 1000:
		return 3
	case conquered >= 3 && s.Reputation >= 500:
		return 2
	case conquered >= 1 || s.Reputation >= 200:
		return 1
	}
	return 0
}

var phaseTitles = []string{"Rua", "Gerente", "Dono do Morro", "Chefão", "Lenda"}

// updateEndgamePhase never lowers the phase and announces each new one once
func (d *draft) updateEndgamePhase() {
	phase := max(d.s.EndgamePhase, ComputeEndgamePhase(d.s))
	d.s.EndgamePhase = phase
	if phase > d.s.PhaseAnnounced {
		d.s.PhaseAnnounced = phase
		title := phaseTitles[min(phase, len(phaseTitles)-1)]
		d.notify(types.NotifyPhone, "Nova fase", fmt.Sprintf("Agora você é %s.", title))
	}
}

func challengeMetric(s *types.WorldState, metric string) int {
	switch metric {
	case MetricTrades:
		return s.Counters.Trades
	case MetricFightsWon:
		return s.Counters.FightsWon
	case MetricHeists:
		return s.HeistsCompleted
	case MetricNetWorth:
		return NetWorth(s)
	}
	return 0
}

// resyncChallenges refreshes challenge progress; a challenge completes once
func (d *draft) resyncChallenges() {
	defs := d.content().Challenges
	changed := false
	for _, ch := range d.s.Challenges {
		for _, def := range defs {
			if def.ID != ch.ID {
				continue
			}
			progress := max(0, min(challengeMetric(d.s, def.Metric), ch.Goal))
			if progress != ch.Progress || (!ch.Done && progress >= ch.Goal) {
				changed = true
			}
		}
	}
	if !changed {
		return
	}

	challenges := d.Challenges()
	for i := range challenges {
		ch := &challenges[i]
		for _, def := range defs {
			if def.ID != ch.ID {
				continue
			}
			ch.Progress = max(0, min(challengeMetric(d.s, def.Metric), ch.Goal))
			if !ch.Done && ch.Progress >= ch.Goal {
				ch.Done = true
				d.addXP(100)
				d.notify(types.NotifyToast, "Desafio concluído", ch.ID)
			}
		}
	}
}

func handleStartNewGamePlus(d *draft, _ types.Action) bool {
	if d.s.Victory == nil {
		return false
	}
	next := NewGamePlus(d.s, d.content(), d.tuning())
	*d.s = *next
	d.owned = ^uint64(0)
	d.notify(types.NotifyPhone, "Novo Jogo+", fmt.Sprintf("Rank %d. A rua lembra de você.", next.Rank))
	return true
}
