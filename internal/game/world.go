package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

// Day pipeline step names, usable as Env.SkipDaySteps keys
const (
	StepEconomy      = "economy"
	StepConfinement  = "confinement"
	StepHeatDecay    = "heat_decay"
	StepAchievements = "achievements"
	StepEndgame      = "endgame"
	StepStreetEvent  = "street_event"
	StepPopupEvent   = "popup_event"
	StepWeekEvent    = "week_event"
	StepSafehouse    = "safehouse_raid"
	StepCorruption   = "corruption"
	StepDrugEmpire   = "drug_empire"
	StepStolenDecay  = "stolen_decay"
	StepNemesis      = "nemesis"
	StepCooldowns    = "cooldowns"
	StepMarket       = "dealer_market"
)

// Popup kinds in priority order
const (
	PopupFaction = "faction"
	PopupNPC     = "npc"
	PopupCrew    = "crew"
)

const productGood = "cristal"

type dayStep struct {
	name string
	run  func(d *draft)
}

var dayPipeline = []dayStep{
	{StepEconomy, stepEconomy},
	{StepConfinement, stepConfinement},
	{StepHeatDecay, stepHeatDecay},
	{StepAchievements, func(d *draft) { d.evaluateAchievements() }},
	{StepEndgame, func(d *draft) { d.updateEndgamePhase() }},
	{StepStreetEvent, stepStreetEvent},
	{StepPopupEvent, stepPopupEvent},
	{StepWeekEvent, stepWeekEvent},
	{StepSafehouse, stepSafehouseRaid},
	{StepCorruption, stepCorruption},
	{StepDrugEmpire, stepDrugEmpire},
	{StepStolenDecay, stepStolenDecay},
	{StepNemesis, stepNemesis},
	{StepCooldowns, stepCooldowns},
	{StepMarket, stepMarket},
}

// DayStepNames lists the pipeline in execution order
func DayStepNames() []string {
	names := make([]string, 0, len(dayPipeline))
	for _, step := range dayPipeline {
		names = append(names, step.name)
	}
	return names
}

// TurnBlocked reports whether debt keeps the day from advancing
func TurnBlocked(s *types.WorldState, t *Tuning) bool {
	return s.Debt > t.DebtLimit
}

func handleEndTurn(d *draft, _ types.Action) bool {
	if TurnBlocked(d.s, d.tuning()) {
		return false
	}
	d.s.Day++
	for _, step := range dayPipeline {
		if d.env.SkipDaySteps[step.name] {
			continue
		}
		step.run(d)
		d.resyncChallenges()
	}
	return true
}

// stepEconomy settles business income, debt interest, crew wages and turf tribute
func stepEconomy(d *draft) {
	t := d.tuning()
	for _, b := range d.s.Businesses {
		if def, ok := d.content().Business(b.Kind); ok {
			d.earn(def.Income)
		}
	}
	d.earn(t.TributePerTurf * len(d.s.ConqueredFactions))

	if d.s.Debt > 0 {
		d.s.Debt += max(1, pct(d.s.Debt, t.DebtInterestPct))
	}

	if len(d.s.Crew) == 0 {
		return
	}
	crew := d.Crew()
	quitters := make([]string, 0)
	for i := range crew {
		c := &crew[i]
		if d.s.Money >= c.Wage {
			d.s.Money -= c.Wage
			c.Loyalty = clamp(c.Loyalty+1, 0, 100)
			continue
		}
		c.Loyalty = clamp(c.Loyalty-10, 0, 100)
		if c.Loyalty == 0 {
			quitters = append(quitters, c.ID)
		}
	}
	for _, id := range quitters {
		if d.s.ActiveHeist != nil && containsString(d.s.ActiveHeist.Crew, id) {
			continue
		}
		name := d.s.CrewMemberByID(id).Name
		d.removeCrew(id)
		d.notify(types.NotifyPhone, "Abandono", fmt.Sprintf("%s largou a equipe sem pagamento.", name))
	}
}

func stepStreetEvent(d *draft) {
	c := d.content()
	if len(c.Weather) > 0 {
		d.s.Weather = c.Weather[d.rng().Intn(len(c.Weather))]
	}
	if len(c.Headlines) > 0 {
		d.s.Headline = c.Headlines[d.rng().Intn(len(c.Headlines))]
	}
	if d.s.Activity() != types.ActivityFree || len(c.StreetEvents) == 0 || !chance(d.rng(), 30) {
		return
	}
	ev := c.StreetEvents[d.rng().Intn(len(c.StreetEvents))]
	d.adjustMoney(ev.Money)
	if ev.Heat != 0 {
		d.addPersonalHeat(ev.Heat)
	}
	if ev.HP < 0 {
		d.hurt(-ev.HP)
	}
	d.notify(types.NotifyToast, "Na rua", ev.Description)
}

// stepPopupEvent raises at most one popup: faction before npc before crew
func stepPopupEvent(d *draft) {
	if d.s.PendingEvent != nil || d.s.Activity() != types.ActivityFree {
		return
	}

	rivals := len(d.s.FactionProgress) > 0 && len(d.s.ConqueredFactions) < len(d.content().Factions)
	candidates := []struct {
		kind     string
		eligible bool
		pct      int
	}{
		{PopupFaction, rivals, 20},
		{PopupNPC, true, 15},
		{PopupCrew, len(d.s.Crew) > 0, 10},
	}

	for _, cand := range candidates {
		if !cand.eligible || !chance(d.rng(), cand.pct) {
			continue
		}
		pool := make([]PopupEventDef, 0)
		for _, def := range d.content().PopupEvents {
			if def.Kind == cand.kind {
				pool = append(pool, def)
			}
		}
		if len(pool) == 0 {
			continue
		}
		def := pool[d.rng().Intn(len(pool))]
		labels := make([]string, 0, len(def.Choices))
		for _, ch := range def.Choices {
			labels = append(labels, ch.Label)
		}
		d.s.PendingEvent = &types.PendingEvent{
			ID:          def.ID,
			Kind:        def.Kind,
			Description: def.Description,
			Choices:     labels,
			Day:         d.s.Day,
		}
		d.notify(types.NotifyPhone, "Decisão", def.Description)
		return
	}
}

func handleResolveEvent(d *draft, a types.Action) bool {
	p, ok := decode[types.ChoicePayload](a)
	if !ok || d.s.PendingEvent == nil {
		return false
	}
	def, ok := d.content().PopupEvent(d.s.PendingEvent.ID)
	if !ok || p.Choice < 0 || p.Choice >= len(def.Choices) {
		return false
	}
	choice := def.Choices[p.Choice]
	if choice.Money < 0 && d.s.Money < -choice.Money {
		return false
	}

	d.adjustMoney(choice.Money)
	if choice.Heat != 0 {
		d.addPersonalHeat(choice.Heat)
	}
	d.addRep(choice.Rep)
	d.s.Karma += choice.Karma
	if choice.Loyalty != 0 && len(d.s.Crew) > 0 {
		crew := d.Crew()
		for i := range crew {
			crew[i].Loyalty = clamp(crew[i].Loyalty+choice.Loyalty, 0, 100)
		}
	}
	d.s.PendingEvent = nil
	return true
}

func stepWeekEvent(d *draft) {
	t := d.tuning()
	if d.s.WeekEvent != nil && d.s.Day > d.s.WeekEvent.EndDay {
		d.s.WeekEvent = nil
		d.notify(types.NotifyToast, "Fim do evento", "A cidade voltou ao normal")
	}
	events := d.content().WeekEvents
	if d.s.WeekEvent != nil || len(events) == 0 || t.WeekEventEvery <= 0 || d.s.Day%t.WeekEventEvery != 0 {
		return
	}
	def := events[d.rng().Intn(len(events))]
	d.s.WeekEvent = &types.WeekEvent{
		ID:       def.ID,
		StartDay: d.s.Day,
		EndDay:   d.s.Day + t.WeekEventLength - 1,
	}
	d.notify(types.NotifyPhone, "Evento da semana", def.Name)
}

func stepSafehouseRaid(d *draft) {
	t := d.tuning()
	if len(d.s.Safehouses) == 0 || d.s.PersonalHeat < t.RaidHeat || !chance(d.rng(), t.RaidChance) {
		return
	}
	target := d.s.Safehouses[d.rng().Intn(len(d.s.Safehouses))]
	loss := pct(d.s.DirtyMoney, t.RaidLossPct)
	d.s.DirtyMoney -= loss
	d.addPersonalHeat(-10)
	d.notify(types.NotifyPhone, "Batida policial", fmt.Sprintf("Invadiram seu esconderijo em %s. Perda: %d sujo.", target.District, loss))
}

// stepDrugEmpire produces into inventory, bounded by free capacity
func stepDrugEmpire(d *draft) {
	empire := d.s.DrugEmpire
	if empire == nil {
		return
	}
	qty := empire.Labs * (1 + empire.Quality/2)
	if d.s.HasVillaModule(ModuleLab) {
		qty += empire.Labs
	}
	d.recomputeMaxInv()
	qty = min(qty, d.s.MaxInv-d.s.InventoryUsed())
	if qty <= 0 {
		return
	}
	d.addGoods(productGood, qty)
	d.DrugEmpire().Produced += qty
	d.addPersonalHeat(empire.Labs)
}

// stepStolenDecay wears stolen vehicles down until they are wrecked
func stepStolenDecay(d *draft) {
	decay := d.tuning().StolenDecay
	hasStolen := false
	for _, v := range d.s.Vehicles {
		if v.Stolen {
			hasStolen = true
		}
	}
	if !hasStolen {
		return
	}

	wrecked := make([]string, 0)
	vehicles := d.Vehicles()
	for i := range vehicles {
		if !vehicles[i].Stolen {
			continue
		}
		vehicles[i].Condition -= decay
		if vehicles[i].Condition <= 0 {
			wrecked = append(wrecked, vehicles[i].ID)
		}
	}
	for _, id := range wrecked {
		d.removeVehicle(id)
		d.notify(types.NotifyToast, "Carro perdido", "Um carro roubado virou sucata")
	}
}

func stepNemesis(d *draft) {
	if !d.s.HasUnlocked(UnlockNemesis) {
		return
	}
	names := d.content().NemesisNames
	if d.s.Nemesis == nil {
		name := "Nêmesis"
		if len(names) > 0 {
			name = names[d.rng().Intn(len(names))]
		}
		d.s.Nemesis = &types.NemesisState{Name: name, Level: 1, Active: true}
		d.take(ownNemesis)
		d.notify(types.NotifyPhone, "Nêmesis", fmt.Sprintf("%s quer tomar o seu lugar.", name))
		return
	}

	n := d.s.Nemesis
	if !n.Active {
		if d.s.Day >= n.TruceUntil {
			d.Nemesis().Active = true
			d.notify(types.NotifyPhone, "Nêmesis", fmt.Sprintf("%s voltou.", n.Name))
		}
		return
	}
	if d.s.Activity() == types.ActivityFree && chance(d.rng(), d.tuning().NemesisHarassChance) {
		loss := pct(d.s.Money, 5)
		d.s.Money -= loss
		d.notify(types.NotifyPhone, "Nêmesis", fmt.Sprintf("%s atacou seus negócios: -%d", n.Name, loss))
	}
}

func stepCooldowns(d *draft) {
	d.s.Daily = types.DailyFlags{}
}

// stepMarket re-rolls every price around its district base
func stepMarket(d *draft) {
	c := d.content()
	base := BaseMarket(c)
	market := d.Market()
	for district, prices := range base {
		next := make(map[string]int, len(prices))
		for _, good := range c.Goods {
			price, ok := prices[good.ID]
			if !ok {
				continue
			}
			swing := between(d.rng(), -good.Volatility, good.Volatility)
			next[good.ID] = max(1, pct(price, 100+swing))
		}
		market[district] = next
	}
}
