package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

// ArrestChance is the percent chance of arrest when wanted, zero otherwise
func ArrestChance(s *types.WorldState, c *Content, t *Tuning) int {
	if !IsWanted(s, t) {
		return 0
	}
	p := t.Law.ArrestBase + t.Law.ArrestPerHeat*(s.Heat-t.Heat.WantedThreshold)
	if s.Weather == "chuva" {
		p -= 5
	}
	for _, sh := range s.Safehouses {
		if sh.District == s.District {
			p -= 10
			break
		}
	}
	if containsString(s.Perks, PerkGhost) {
		p -= 5
	}
	if ev, ok := weekEventDef(s, c); ok {
		p += ev.ArrestMod
	}
	return clamp(p, 5, 95)
}

// SentenceDays derives a sentence from displayed heat, offense severity and contacts
func SentenceDays(s *types.WorldState, t *Tuning, severity int) int {
	days := 0
	for _, band := range t.Law.Sentences {
		if s.Heat >= band.MinHeat && band.Days > days {
			days = band.Days
		}
	}
	days += severity
	if s.ActiveContact(ContactLawyer) != nil {
		days -= pct(days, t.Law.LawyerReductionPct)
	}
	if s.ActiveContact(ContactJudge) != nil {
		days /= 2
	}
	return max(1, days)
}

// arrestCheck rolls for arrest when wanted. An arrest replaces the triggering action.
func (d *draft) arrestCheck(reason string, severity int) bool {
	p := ArrestChance(d.s, d.content(), d.tuning())
	if p == 0 || !chance(d.rng(), p) {
		return false
	}
	d.arrest(reason, severity)
	return true
}

// arrest sends the player to prison, confiscating dirty money and illegal goods
func (d *draft) arrest(reason string, severity int) {
	days := SentenceDays(d.s, d.tuning(), severity)
	d.s.Prison = &types.PrisonState{
		DaysRemaining: days,
		Sentence:      days,
		Reason:        reason,
		ArrestedDay:   d.s.Day,
	}

	confiscated := d.s.DirtyMoney
	d.s.DirtyMoney = 0
	for good := range d.s.Inventory {
		if def, ok := d.content().Good(good); ok && def.Illegal {
			delete(d.Inventory(), good)
		}
	}
	d.addPersonalHeat(-30)
	d.s.Counters.Arrests++
	d.notify(types.NotifyPhone, "Preso!", fmt.Sprintf("%s. Pena: %d dias. Apreendido: %d sujo.", reason, days, confiscated))
}

// PrisonBribeCost is the price of walking out today
func PrisonBribeCost(s *types.WorldState, t *Tuning) int {
	if s.Prison == nil {
		return 0
	}
	cost := s.Prison.DaysRemaining * t.Law.BribePerDay
	if s.ActiveContact(ContactLawyer) != nil {
		cost -= pct(cost, t.Law.LawyerDiscountPct)
	}
	return cost
}

// EscapeChance is the percent chance an escape attempt succeeds
func EscapeChance(s *types.WorldState, t *Tuning) int {
	p := t.Law.EscapeBase + t.Law.EscapePerBrains*s.Stats.Brains
	if s.HasCrewRole("hacker") {
		p += t.Law.EscapeHackerBonus
	}
	if s.HasVillaModule(ModuleTunnel) {
		p += t.Law.EscapeTunnelBonus
	}
	return clamp(p, 0, t.Law.EscapeMax)
}

func handlePrisonBribe(d *draft, _ types.Action) bool {
	if d.s.Prison == nil {
		return false
	}
	if !d.spend(PrisonBribeCost(d.s, d.tuning())) {
		return false
	}
	d.s.Prison = nil
	d.notify(types.NotifyToast, "Liberdade", "O juiz aceitou o agrado")
	return true
}

func handleAttemptEscape(d *draft, _ types.Action) bool {
	if d.s.Prison == nil || d.s.Prison.EscapeAttempted {
		return false
	}

	if chance(d.rng(), EscapeChance(d.s, d.tuning())) {
		d.s.Prison = nil
		d.addPersonalHeat(d.tuning().Law.EscapeHeat)
		d.s.Counters.Escapes++
		d.notify(types.NotifyPhone, "Fuga!", "Você pulou o muro. A polícia está atrás de você.")
		return true
	}

	prison := d.Prison()
	prison.DaysRemaining += d.tuning().Law.EscapeFailDays
	prison.EscapeAttempted = true
	d.notify(types.NotifyToast, "Fuga fracassada", fmt.Sprintf("Mais %d dias de pena", d.tuning().Law.EscapeFailDays))
	return true
}

func handleBribePolice(d *draft, a types.Action) bool {
	p, ok := decode[types.AmountPayload](a)
	h := d.tuning().Heat
	if !ok || p.Amount < h.BribeMin || d.s.PersonalHeat == 0 {
		return false
	}
	if !d.spend(p.Amount) {
		return false
	}
	points := p.Amount / h.BribePerPoint
	if d.hasPerk(PerkSmoothTalker) {
		points += pct(points, 25)
	}
	points += pct(points, 5*d.s.Stats.Charisma)
	d.addPersonalHeat(-points)
	return true
}

func handleReplateVehicle(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	v, owned := findVehicle(d.s, p.ID)
	if !owned || d.s.Day < v.ReplateReadyDay {
		return false
	}
	if v.Heat == 0 && !v.Stolen {
		return false
	}
	h := d.tuning().Heat
	if !d.spend(h.ReplateCost) {
		return false
	}
	day := d.s.Day
	d.updateVehicle(v.ID, func(v *types.Vehicle) {
		v.Heat = 0
		v.Stolen = false
		v.ReplateReadyDay = day + h.ReplateCooldown
	})
	d.recomposeHeat()
	return true
}

func handleLayLow(d *draft, _ types.Action) bool {
	t := d.tuning()
	if d.s.Daily.SolosToday >= t.SoloOpsPerDay || d.s.PersonalHeat == 0 {
		return false
	}
	reduction := t.Heat.LayLowReduction
	if d.hasSafehouseIn(d.s.District) {
		reduction *= 2
	}
	d.s.Daily.SolosToday = t.SoloOpsPerDay
	d.addPersonalHeat(-reduction)
	return true
}

func handleRecruitContact(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	def, ok := d.content().Contact(p.ID)
	if !ok || d.s.ActiveContact(def.Kind) != nil {
		return false
	}
	if !d.spend(def.RecruitCost) {
		return false
	}
	d.s.Contacts = append(d.Contacts(), types.Contact{
		ID:           d.env.NewID(),
		Kind:         def.Kind,
		Loyalty:      d.tuning().Law.ContactStartLoyalty,
		MonthlyFee:   def.MonthlyFee,
		Active:       true,
		RecruitedDay: d.s.Day,
	})
	return true
}

func handleDismissContact(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	kept := make([]types.Contact, 0, len(d.s.Contacts))
	for _, c := range d.s.Contacts {
		if c.ID != p.ID {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(d.s.Contacts) {
		return false
	}
	d.Contacts()
	d.s.Contacts = kept
	return true
}

// stepConfinement serves one day of prison or hospital
func stepConfinement(d *draft) {
	if d.s.Prison != nil {
		prison := d.Prison()
		prison.DaysRemaining--
		if prison.DaysRemaining <= 0 {
			d.s.Prison = nil
			d.notify(types.NotifyPhone, "Solto", "Você cumpriu a pena e está livre.")
		}
	}
	if d.s.Hospital != nil {
		hospital := d.Hospital()
		hospital.DaysRemaining--
		if hospital.DaysRemaining <= 0 {
			d.s.Hospital = nil
			d.s.HP = d.s.MaxHP
			d.notify(types.NotifyPhone, "Alta", "Você recebeu alta do hospital.")
		}
	}
}

// stepHeatDecay cools personal and vehicle heat
func stepHeatDecay(d *draft) {
	h := d.tuning().Heat
	decay := h.PersonalDecay
	if d.s.ActiveContact(ContactCop) != nil {
		decay += h.CopContactDecay
	}
	if d.s.PersonalHeat > 0 {
		d.s.PersonalHeat = clamp(d.s.PersonalHeat-decay, 0, maxHeat)
	}
	for _, v := range d.s.Vehicles {
		if v.Heat > 0 {
			vehicles := d.Vehicles()
			for i := range vehicles {
				vehicles[i].Heat = clamp(vehicles[i].Heat-h.VehicleDecay, 0, maxHeat)
			}
			break
		}
	}
	d.recomposeHeat()
}

// stepCorruption decays contact loyalty, rolls betrayals and bills monthly fees
func stepCorruption(d *draft) {
	if len(d.s.Contacts) == 0 {
		return
	}
	law := d.tuning().Law
	contacts := d.Contacts()
	billing := law.BillingPeriod > 0 && d.s.Day%law.BillingPeriod == 0
	betrayed := false

	for i := range contacts {
		c := &contacts[i]
		if !c.Active || c.Compromised {
			continue
		}
		c.Loyalty = clamp(c.Loyalty-law.ContactDecay, 0, 100)

		if billing {
			if d.s.Money >= c.MonthlyFee {
				d.s.Money -= c.MonthlyFee
			} else {
				c.Loyalty = clamp(c.Loyalty-law.UnpaidLoyaltyLoss, 0, 100)
				d.notify(types.NotifyPhone, "Contato insatisfeito", fmt.Sprintf("Seu %s não recebeu o mês.", c.Kind))
			}
		}

		// (100 - loyalty) / 10 percent
		if d.rng().Intn(1000) < 100-c.Loyalty {
			c.Compromised = true
			c.Active = false
			betrayed = true
			d.s.Counters.Betrayals++
			d.notify(types.NotifyPhone, "Traição!", fmt.Sprintf("Seu %s entregou você.", c.Kind))
		}
	}

	if !betrayed {
		return
	}
	d.addPersonalHeat(law.BetrayalHeat)
	d.s.Money -= pct(d.s.Money, law.BetrayalMoneyPct)
	if d.s.Prison == nil && d.s.Hospital == nil && chance(d.rng(), law.BetrayalArrest) {
		d.arrest("Delatado por um contato", 1)
	}
}
