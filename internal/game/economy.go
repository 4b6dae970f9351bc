package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/vida-loka-empire/internal/types"
)

func decode[T any](a types.Action) (T, bool) {
	var p T
	if len(a.Payload) == 0 {
		return p, false
	}
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return p, false
	}
	return p, true
}

// HeatSurcharge returns the buy surcharge percentage for the current heat.
// An active customs contact waives every tier below the top one.
func HeatSurcharge(s *types.WorldState, t *Tuning) int {
	top := 0
	for _, tier := range t.Heat.Surcharge {
		top = max(top, tier.MinHeat)
	}
	customs := s.ActiveContact(ContactCustoms) != nil
	surcharge := 0
	for _, tier := range t.Heat.Surcharge {
		if s.Heat < tier.MinHeat {
			continue
		}
		if customs && tier.MinHeat < top {
			continue
		}
		surcharge = max(surcharge, tier.Pct)
	}
	return surcharge
}

func weekEventDef(s *types.WorldState, c *Content) (WeekEventDef, bool) {
	if s.WeekEvent == nil {
		return WeekEventDef{}, false
	}
	return c.WeekEvent(s.WeekEvent.ID)
}

// BuyPrice is the unit price to buy a good in the current district
func BuyPrice(s *types.WorldState, c *Content, t *Tuning, good string) (int, bool) {
	base, ok := s.Market[s.District][good]
	if !ok || base <= 0 {
		return 0, false
	}
	mod := 100 + HeatSurcharge(s, t)
	if ev, ok := weekEventDef(s, c); ok {
		mod += ev.PriceMod
	}
	return max(1, pct(base, mod)), true
}

// SellPrice is the unit price to sell a good in the current district
func SellPrice(s *types.WorldState, c *Content, good string) (int, bool) {
	base, ok := s.Market[s.District][good]
	if !ok || base <= 0 {
		return 0, false
	}
	mod := 100
	if ev, ok := weekEventDef(s, c); ok {
		mod += ev.PriceMod
	}
	return max(1, pct(base, mod)), true
}

func handleTrade(d *draft, a types.Action) bool {
	p, ok := decode[types.TradePayload](a)
	if !ok || p.Qty <= 0 {
		return false
	}
	good, ok := d.content().Good(p.Good)
	if !ok {
		return false
	}

	switch p.Side {
	case types.SideBuy:
		price, ok := BuyPrice(d.s, d.content(), d.tuning(), good.ID)
		if !ok {
			return false
		}
		d.recomputeMaxInv()
		if p.Qty > d.s.MaxInv-d.s.InventoryUsed() || price <= 0 {
			return false
		}
		cost := price * p.Qty
		if cost/price != p.Qty || d.s.Money < cost {
			return false
		}
		if d.arrestCheck("flagrante na compra", 0) {
			return true
		}
		if !d.spend(cost) {
			return false
		}
		d.addGoods(good.ID, p.Qty)
	case types.SideSell:
		if d.s.Inventory[good.ID] < p.Qty {
			return false
		}
		price, ok := SellPrice(d.s, d.content(), good.ID)
		if !ok {
			return false
		}
		if d.arrestCheck("flagrante na venda", 0) {
			return true
		}
		d.removeGoods(good.ID, p.Qty)
		d.earn(price * p.Qty)
	default:
		return false
	}

	if good.Illegal {
		d.addPersonalHeat(d.tuning().Heat.IllegalTradeHeat)
	}
	d.s.Counters.Trades++
	return true
}

func handleTravel(d *draft, a types.Action) bool {
	p, ok := decode[types.TravelPayload](a)
	if !ok || p.District == d.s.District {
		return false
	}
	district, ok := d.content().District(p.District)
	if !ok {
		return false
	}

	if p.UseHelipad {
		if !d.s.HasVillaModule(ModuleHelipad) || d.s.Daily.HelipadUsed {
			return false
		}
		d.s.Daily.HelipadUsed = true
		d.s.District = district.ID
		return true
	}

	active := d.s.ActiveVehicle()
	cost := district.TravelCost
	if active != nil {
		cost = 0
	}
	if d.s.Money < cost {
		return false
	}
	if d.arrestCheck("parado na blitz", 0) {
		return true
	}
	d.spend(cost)

	if active != nil {
		vehicles := d.Vehicles()
		for i := range vehicles {
			if vehicles[i].ID == d.s.ActiveVehicleID {
				vehicles[i].Condition = max(0, vehicles[i].Condition-2)
				if vehicles[i].Stolen {
					vehicles[i].Heat = clamp(vehicles[i].Heat+5, 0, maxHeat)
				}
			}
		}
	}
	d.s.District = district.ID
	return true
}

func handleSoloOp(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	op, ok := d.content().SoloOp(p.ID)
	if !ok || d.s.Daily.SolosToday >= d.tuning().SoloOpsPerDay {
		return false
	}

	d.s.Daily.SolosToday++
	if d.arrestCheck(op.Name, op.Severity) {
		return true
	}

	successChance := clamp(100-op.Risk+3*d.statValue(op.Stat), 5, 95)
	if chance(d.rng(), successChance) {
		reward := between(d.rng(), op.MinReward, op.MaxReward)
		d.earnDirty(reward)
		d.addPersonalHeat(op.Heat)
		d.addXP(op.XP)
		d.notify(types.NotifyToast, op.Name, fmt.Sprintf("Deu certo: +%d sujo", reward))
		return true
	}

	d.addPersonalHeat(op.Heat * 2)
	d.hurt(10)
	d.addXP(op.XP / 4)
	d.notify(types.NotifyToast, op.Name, "Deu ruim, você saiu machucado")
	return true
}

func handleWashMoney(d *draft, a types.Action) bool {
	p, ok := decode[types.AmountPayload](a)
	if !ok || p.Amount <= 0 || p.Amount > d.s.DirtyMoney {
		return false
	}
	if len(d.s.Businesses) == 0 || d.s.Daily.WashUsed {
		return false
	}

	capacity := 0
	for _, b := range d.s.Businesses {
		if def, ok := d.content().Business(b.Kind); ok {
			capacity += def.WashCapacity
		}
	}
	if p.Amount > capacity {
		return false
	}

	t := d.tuning()
	fee := t.WashFeePct - 2*(len(d.s.Businesses)-1)
	if d.hasPerk(PerkAccountant) {
		fee -= 5
	}
	fee = max(fee, t.WashFeeMinPct)

	d.s.DirtyMoney -= p.Amount
	d.earn(p.Amount - pct(p.Amount, fee))
	d.s.Daily.WashUsed = true
	d.s.Counters.MoneyWashed += p.Amount
	return true
}

func handleBuyBusiness(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	def, ok := d.content().Business(p.ID)
	if !ok || d.s.Level < def.MinLevel {
		return false
	}
	for _, b := range d.s.Businesses {
		if b.Kind == def.ID {
			return false
		}
	}
	if !d.spend(def.Price) {
		return false
	}
	d.s.Businesses = append(d.Businesses(), types.Business{ID: d.env.NewID(), Kind: def.ID, BoughtDay: d.s.Day})
	return true
}

func handleCraft(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	recipe, ok := d.content().Recipe(p.ID)
	if !ok || d.s.Money < recipe.Cost {
		return false
	}
	consumed := 0
	for good, qty := range recipe.Inputs {
		if d.s.Inventory[good] < qty {
			return false
		}
		consumed += qty
	}
	d.recomputeMaxInv()
	if d.s.InventoryUsed()-consumed+recipe.OutputQty > d.s.MaxInv {
		return false
	}

	d.spend(recipe.Cost)
	for good, qty := range recipe.Inputs {
		d.removeGoods(good, qty)
	}
	d.addGoods(recipe.Output, recipe.OutputQty)
	d.addXP(10)
	return true
}

func handleTakeLoan(d *draft, a types.Action) bool {
	p, ok := decode[types.AmountPayload](a)
	if !ok || p.Amount <= 0 || p.Amount > d.tuning().LoanLimit-d.s.Debt {
		return false
	}
	d.s.Debt += p.Amount
	d.earn(p.Amount)
	return true
}

func handleRepayDebt(d *draft, a types.Action) bool {
	p, ok := decode[types.AmountPayload](a)
	if !ok || p.Amount <= 0 || p.Amount > d.s.Debt {
		return false
	}
	if !d.spend(p.Amount) {
		return false
	}
	d.s.Debt -= p.Amount
	return true
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func handleClaimDailyReward(d *draft, _ types.Action) bool {
	if d.env.Now.IsZero() {
		return false
	}
	today := dateOf(d.env.Now)
	last := d.s.DailyReward.LastClaim
	if !last.IsZero() && !dateOf(last).Before(today) {
		return false
	}

	streak := 1
	if !last.IsZero() && dateOf(last).Equal(today.AddDate(0, 0, -1)) {
		streak = d.s.DailyReward.Streak + 1
	}
	d.s.DailyReward = types.DailyReward{LastClaim: today, Streak: streak}
	reward := d.tuning().DailyRewardBase * min(streak, 7)
	d.earn(reward)
	d.notify(types.NotifyToast, "Recompensa diária", fmt.Sprintf("Dia %d seguido: +%d", streak, reward))
	return true
}
