package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

// Complication choices and forced outcomes
const (
	ChoiceAggressive = "aggressive"
	ChoiceCareful    = "careful"
	ChoiceAbort      = "abort"

	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
)

func handlePlanHeist(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.HeistPlan != nil || d.s.ActiveHeist != nil {
		return false
	}
	tpl, ok := d.content().Heist(p.ID)
	if !ok || d.s.Level < tpl.MinLevel {
		return false
	}
	if d.s.HeistCooldowns[tpl.ID] > d.s.Day {
		return false
	}
	d.s.HeistPlan = &types.HeistPlan{
		Template:   tpl.ID,
		Equipment:  make([]string, 0),
		Crew:       make([]string, 0),
		PlannedDay: d.s.Day,
	}
	return true
}

func handleHeistRecon(d *draft, _ types.Action) bool {
	plan := d.s.HeistPlan
	if plan == nil || plan.ReconDone {
		return false
	}
	tpl, ok := d.content().Heist(plan.Template)
	if !ok || !d.spend(tpl.ReconCost) {
		return false
	}
	p := d.HeistPlan()
	p.ReconDone = true
	p.Intel += 2 + d.s.Stats.Brains/3
	return true
}

func handleHeistBuyEquipment(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.HeistPlan == nil || containsString(d.s.HeistPlan.Equipment, p.ID) {
		return false
	}
	price, ok := d.content().HeistEquipment[p.ID]
	if !ok || !d.spend(price) {
		return false
	}
	plan := d.HeistPlan()
	plan.Equipment = append(plan.Equipment, p.ID)
	return true
}

func handleHeistAssignCrew(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.HeistPlan == nil || containsString(d.s.HeistPlan.Crew, p.ID) {
		return false
	}
	member := d.s.CrewMemberByID(p.ID)
	if member == nil || member.Injured {
		return false
	}
	plan := d.HeistPlan()
	plan.Crew = append(plan.Crew, p.ID)
	return true
}

// handleCancelHeist drops a plan at no cost. Once launched there is no plan left to cancel.
func handleCancelHeist(d *draft, _ types.Action) bool {
	if d.s.HeistPlan == nil || d.s.ActiveHeist != nil {
		return false
	}
	d.s.HeistPlan = nil
	return true
}

// CanLaunchHeist reports whether the current plan satisfies its template
func CanLaunchHeist(s *types.WorldState, c *Content) bool {
	plan := s.HeistPlan
	if plan == nil || s.ActiveHeist != nil {
		return false
	}
	tpl, ok := c.Heist(plan.Template)
	if !ok {
		return false
	}
	for _, item := range tpl.Equipment {
		if !containsString(plan.Equipment, item) {
			return false
		}
	}
	healthy := 0
	for _, id := range plan.Crew {
		if m := s.CrewMemberByID(id); m != nil && !m.Injured {
			healthy++
		}
	}
	return healthy >= tpl.CrewRequired && s.Money >= tpl.LaunchCost
}

func handleLaunchHeist(d *draft, _ types.Action) bool {
	if !CanLaunchHeist(d.s, d.content()) {
		return false
	}
	plan := d.s.HeistPlan
	tpl, _ := d.content().Heist(plan.Template)
	d.spend(tpl.LaunchCost)
	d.s.ActiveHeist = &types.ActiveHeist{
		Template:   tpl.ID,
		Phases:     tpl.Phases,
		Crew:       cloneSlice(plan.Crew),
		Intel:      plan.Intel,
		CrewDamage: make(map[string]int),
		Log:        []string{fmt.Sprintf("%s: em andamento", tpl.Name)},
	}
	d.take(ownActiveHeist)
	d.s.HeistPlan = nil
	return true
}

// PhaseSuccessChance is the percent chance a heist phase goes clean
func PhaseSuccessChance(s *types.WorldState, h *types.ActiveHeist, tpl HeistTemplate) int {
	skill := 0
	members := 0
	for _, id := range h.Crew {
		if m := s.CrewMemberByID(id); m != nil {
			skill += m.Skill
			members++
		}
	}
	avg := 0
	if members > 0 {
		avg = skill / members
	}
	return clamp(55+5*h.Intel+3*avg-8*tpl.Difficulty, 10, 95)
}

// completePhase accrues one phase's share; the last phase takes the remainder
func completePhase(h *types.ActiveHeist, tpl HeistTemplate) {
	h.Phase++
	share := tpl.Reward / tpl.Phases
	heat := tpl.Heat / tpl.Phases
	if h.Phase == tpl.Phases {
		share = tpl.Reward - share*(tpl.Phases-1)
		heat = tpl.Heat - heat*(tpl.Phases-1)
	}
	h.AccruedReward += share
	h.AccruedHeat += heat
	h.Log = append(h.Log, fmt.Sprintf("Fase %d concluída", h.Phase))
	if h.Phase >= tpl.Phases {
		h.Finished = true
		h.Success = true
		h.Log = append(h.Log, "Golpe concluído")
	}
}

func (d *draft) failHeist(h *types.ActiveHeist, tpl HeistTemplate, crewDamage int) {
	h.Finished = true
	h.Success = false
	h.AccruedReward = 0
	h.AccruedHeat += tpl.Heat
	for _, id := range h.Crew {
		h.CrewDamage[id] += crewDamage
	}
	h.Log = append(h.Log, "Golpe fracassado")
}

func handleAdvanceHeist(d *draft, _ types.Action) bool {
	cur := d.s.ActiveHeist
	if cur == nil || cur.Finished || cur.Complication != nil || cur.Phase >= cur.Phases {
		return false
	}
	tpl, ok := d.content().Heist(cur.Template)
	if !ok {
		return false
	}

	h := d.ActiveHeist()
	complications := d.content().Complications
	if len(complications) > 0 && chance(d.rng(), d.tuning().ComplicationChance) {
		def := complications[d.rng().Intn(len(complications))]
		h.Complication = &types.Complication{ID: def.ID, Description: def.Description, Severity: def.Severity}
		h.Log = append(h.Log, def.Description)
		d.notify(types.NotifyToast, "Complicação", def.Description)
		return true
	}

	if chance(d.rng(), PhaseSuccessChance(d.s, h, tpl)) {
		completePhase(h, tpl)
		return true
	}
	d.failHeist(h, tpl, between(d.rng(), 10, 40))
	return true
}

func handleResolveComplication(d *draft, a types.Action) bool {
	p, ok := decode[types.ComplicationPayload](a)
	cur := d.s.ActiveHeist
	if !ok || cur == nil || cur.Complication == nil || cur.Finished {
		return false
	}
	switch p.Forced {
	case "", OutcomeSuccess, OutcomeFail:
	default:
		return false
	}
	tpl, ok := d.content().Heist(cur.Template)
	if !ok {
		return false
	}

	h := d.ActiveHeist()
	severity := h.Complication.Severity

	if p.Choice == ChoiceAbort {
		h.Complication = nil
		h.Finished = true
		h.Success = false
		h.AccruedReward /= 2
		h.Log = append(h.Log, "Abortado com parte do dinheiro")
		return true
	}

	var successChance int
	switch p.Choice {
	case ChoiceCareful:
		successChance = 60 + 5*h.Intel + 2*d.s.Stats.Stealth - 10*severity
	case ChoiceAggressive:
		successChance = 50 + 3*d.s.Stats.Muscle + 5*len(h.Crew) - 10*severity
	default:
		return false
	}

	var won bool
	switch p.Forced {
	case OutcomeSuccess:
		won = true
	case OutcomeFail:
		won = false
	default:
		won = chance(d.rng(), clamp(successChance, 5, 95))
	}

	h.Complication = nil
	if won {
		if p.Choice == ChoiceAggressive {
			h.AccruedHeat += 5
		}
		completePhase(h, tpl)
		return true
	}
	if p.Choice == ChoiceCareful {
		h.AccruedHeat += 10
		h.Intel = max(0, h.Intel-1)
		h.Log = append(h.Log, "Saída cuidadosa custou tempo e atenção")
		return true
	}
	d.failHeist(h, tpl, 20)
	return true
}

// handleFinishHeist settles accrued reward, heat, crew damage and XP exactly once
func handleFinishHeist(d *draft, _ types.Action) bool {
	h := d.s.ActiveHeist
	if h == nil || !h.Finished {
		return false
	}
	tpl, ok := d.content().Heist(h.Template)
	if !ok {
		return false
	}

	d.earnDirty(h.AccruedReward)
	d.addPersonalHeat(h.AccruedHeat)
	if len(h.CrewDamage) > 0 {
		crew := d.Crew()
		for i := range crew {
			dmg := h.CrewDamage[crew[i].ID]
			if dmg == 0 {
				continue
			}
			crew[i].HP = max(0, crew[i].HP-dmg)
			if crew[i].HP <= 30 {
				crew[i].Injured = true
			}
		}
	}

	if h.Success {
		d.s.HeistsCompleted++
		d.addXP(tpl.XP)
		d.notify(types.NotifyPhone, tpl.Name, fmt.Sprintf("Golpe limpo: +%d sujo", h.AccruedReward))
	} else {
		d.s.Counters.HeistsFailed++
		d.addXP(tpl.XP / 4)
		d.notify(types.NotifyPhone, tpl.Name, "O golpe deu errado")
	}
	d.HeistCooldowns()[tpl.ID] = d.s.Day + tpl.CooldownDays
	d.s.ActiveHeist = nil
	return true
}
