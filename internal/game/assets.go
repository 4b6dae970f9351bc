package game

import (
	"fmt"

	"github.com/user/vida-loka-empire/internal/types"
)

func handleBuyGear(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	def, ok := d.content().GearItem(p.ID)
	if !ok || d.s.Level < def.MinLevel || containsString(d.s.Gear, def.ID) {
		return false
	}
	if !d.spend(def.Price) {
		return false
	}
	d.s.Gear = append(d.Gear(), def.ID)
	return true
}

func handleEquipGear(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || !containsString(d.s.Gear, p.ID) {
		return false
	}
	def, ok := d.content().GearItem(p.ID)
	if !ok || d.s.Equipped[def.Slot] == def.ID {
		return false
	}
	d.Equipped()[def.Slot] = def.ID
	return true
}

func handleUnequipGear(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	if _, equipped := d.s.Equipped[p.ID]; !equipped {
		return false
	}
	// dropping a bag must not leave the inventory over capacity
	if def, ok := d.content().GearItem(d.s.Equipped[p.ID]); ok && def.Capacity > 0 {
		if d.s.InventoryUsed() > MaxInventory(d.s, d.content(), d.tuning())-def.Capacity {
			return false
		}
	}
	delete(d.Equipped(), p.ID)
	return true
}

func findVehicle(s *types.WorldState, id string) (types.Vehicle, bool) {
	for _, v := range s.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return types.Vehicle{}, false
}

func (d *draft) updateVehicle(id string, fn func(v *types.Vehicle)) {
	vehicles := d.Vehicles()
	for i := range vehicles {
		if vehicles[i].ID == id {
			fn(&vehicles[i])
		}
	}
}

func (d *draft) removeVehicle(id string) {
	kept := make([]types.Vehicle, 0, len(d.s.Vehicles))
	for _, v := range d.s.Vehicles {
		if v.ID != id {
			kept = append(kept, v)
		}
	}
	d.Vehicles()
	d.s.Vehicles = kept
	if d.s.ActiveVehicleID == id {
		d.s.ActiveVehicleID = ""
	}
}

func handleBuyVehicle(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	def, ok := d.content().Vehicle(p.ID)
	if !ok || !d.spend(def.Price) {
		return false
	}
	v := types.Vehicle{ID: d.env.NewID(), Model: def.ID, Condition: 100}
	d.s.Vehicles = append(d.Vehicles(), v)
	if d.s.ActiveVehicleID == "" {
		d.s.ActiveVehicleID = v.ID
	}
	return true
}

func handleSwitchVehicle(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || p.ID == d.s.ActiveVehicleID {
		return false
	}
	if _, owned := findVehicle(d.s, p.ID); !owned {
		return false
	}
	d.s.ActiveVehicleID = p.ID
	return true
}

func handleSellVehicle(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	v, owned := findVehicle(d.s, p.ID)
	if !owned {
		return false
	}
	def, ok := d.content().Vehicle(v.Model)
	if !ok {
		return false
	}
	if v.ID == d.s.ActiveVehicleID {
		// selling the active vehicle must not strand cargo
		capacityAfter := MaxInventory(d.s, d.content(), d.tuning()) - def.Capacity
		if d.s.InventoryUsed() > capacityAfter {
			return false
		}
	}

	value := pct(def.Price/2, v.Condition)
	if v.Stolen {
		d.earnDirty(pct(value, 60))
	} else {
		d.earn(value)
	}
	d.removeVehicle(v.ID)
	return true
}

func handleRepairVehicle(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	v, owned := findVehicle(d.s, p.ID)
	if !owned || v.Condition >= 100 {
		return false
	}
	if !d.spend((100 - v.Condition) * d.tuning().RepairCostPoint) {
		return false
	}
	d.updateVehicle(v.ID, func(v *types.Vehicle) { v.Condition = 100 })
	return true
}

func handleStealVehicle(d *draft, _ types.Action) bool {
	models := d.content().Vehicles
	if len(models) == 0 {
		return false
	}

	if !chance(d.rng(), clamp(40+5*d.s.Stats.Stealth, 5, 90)) {
		d.addPersonalHeat(15)
		d.arrestCheck("pego no flagra roubando carro", 1)
		return true
	}

	def := models[d.rng().Intn(len(models))]
	v := types.Vehicle{
		ID:        d.env.NewID(),
		Model:     def.ID,
		Heat:      d.tuning().Heat.StolenVehicleHeat,
		Condition: between(d.rng(), 40, 80),
		Stolen:    true,
	}
	d.s.Vehicles = append(d.Vehicles(), v)
	if d.s.ActiveVehicleID == "" {
		d.s.ActiveVehicleID = v.ID
	}
	d.s.Counters.VehiclesStolen++
	d.addXP(20)
	d.notify(types.NotifyToast, "Carro roubado", def.Name)
	return true
}

func handleStreetRace(d *draft, a types.Action) bool {
	p, ok := decode[types.AmountPayload](a)
	if !ok || p.Amount <= 0 || p.Amount > d.s.Money || d.s.Daily.RaceUsed {
		return false
	}
	v := d.s.ActiveVehicle()
	if v == nil {
		return false
	}
	def, ok := d.content().Vehicle(v.Model)
	if !ok {
		return false
	}

	d.s.Daily.RaceUsed = true
	if chance(d.rng(), clamp(30+def.Speed/3+v.Condition/10, 5, 90)) {
		d.earn(p.Amount)
		d.notify(types.NotifyToast, "Racha", fmt.Sprintf("Vitória: +%d", p.Amount))
	} else {
		d.spend(p.Amount)
		d.updateVehicle(v.ID, func(v *types.Vehicle) { v.Condition = max(0, v.Condition-10) })
		d.notify(types.NotifyToast, "Racha", fmt.Sprintf("Derrota: -%d", p.Amount))
	}
	d.addVehicleHeat(v.ID, 10)
	d.addXP(10)
	return true
}

func handleBuySafehouse(d *draft, a types.Action) bool {
	if !d.s.HasUnlocked(UnlockSafehouse) {
		return false
	}
	district := d.s.District
	if p, ok := decode[types.IDPayload](a); ok && p.ID != "" {
		district = p.ID
	}
	if _, ok := d.content().District(district); !ok {
		return false
	}
	for _, sh := range d.s.Safehouses {
		if sh.District == district {
			return false
		}
	}
	if !d.spend(d.tuning().SafehousePrice) {
		return false
	}
	d.s.Safehouses = append(d.Safehouses(), types.Safehouse{
		ID:        d.env.NewID(),
		District:  district,
		Capacity:  d.tuning().SafehouseCapacity,
		BoughtDay: d.s.Day,
	})
	return true
}

func (d *draft) hasSafehouseIn(district string) bool {
	for _, sh := range d.s.Safehouses {
		if sh.District == district {
			return true
		}
	}
	return false
}

func handleBuyVilla(d *draft, _ types.Action) bool {
	if !d.s.HasUnlocked(UnlockVilla) || d.s.Villa != nil {
		return false
	}
	if !d.spend(d.tuning().VillaPrice) {
		return false
	}
	d.s.Villa = &types.Villa{Modules: make([]string, 0), BoughtDay: d.s.Day}
	d.notify(types.NotifyPhone, "Mansão", "A mansão é sua. Instale módulos para aproveitar.")
	return true
}

func handleInstallVillaModule(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.Villa == nil || d.s.HasVillaModule(p.ID) {
		return false
	}
	price, ok := d.content().VillaModules[p.ID]
	if !ok || !d.spend(price) {
		return false
	}
	villa := d.Villa()
	villa.Modules = append(villa.Modules, p.ID)
	return true
}

func handleStartDrugEmpire(d *draft, _ types.Action) bool {
	if !d.s.HasUnlocked(UnlockDrugEmpire) || d.s.DrugEmpire != nil {
		return false
	}
	if !d.spend(d.tuning().DrugEmpirePrice) {
		return false
	}
	d.s.DrugEmpire = &types.DrugEmpire{Labs: 1, Quality: 1}
	return true
}

func handleBuildLab(d *draft, _ types.Action) bool {
	if d.s.DrugEmpire == nil || d.s.DrugEmpire.Labs >= d.tuning().MaxLabs {
		return false
	}
	if !d.spend(d.tuning().LabPrice * d.s.DrugEmpire.Labs) {
		return false
	}
	d.DrugEmpire().Labs++
	return true
}

func handleUpgradeLabQuality(d *draft, _ types.Action) bool {
	if d.s.DrugEmpire == nil || d.s.DrugEmpire.Quality >= d.tuning().MaxQuality {
		return false
	}
	if !d.spend(d.tuning().QualityPrice * d.s.DrugEmpire.Quality) {
		return false
	}
	d.DrugEmpire().Quality++
	return true
}

func handleHireCrew(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	role, ok := d.content().CrewRole(p.ID)
	if !ok || len(d.s.Crew) >= d.tuning().MaxCrew {
		return false
	}
	if !d.spend(role.HireCost) {
		return false
	}

	name := role.Role
	if names := d.content().CrewNames; len(names) > 0 {
		name = names[d.rng().Intn(len(names))]
	}
	d.s.Crew = append(d.Crew(), types.CrewMember{
		ID:      d.env.NewID(),
		Name:    name,
		Role:    role.Role,
		Skill:   role.Skill,
		Loyalty: 60,
		Wage:    role.Wage,
		HP:      100,
	})
	return true
}

func (d *draft) removeCrew(id string) {
	kept := make([]types.CrewMember, 0, len(d.s.Crew))
	for _, c := range d.s.Crew {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	d.Crew()
	d.s.Crew = kept
	if plan := d.HeistPlan(); plan != nil {
		plan.Crew = removeString(plan.Crew, id)
	}
}

func handleFireCrew(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok || d.s.CrewMemberByID(p.ID) == nil {
		return false
	}
	if d.s.ActiveHeist != nil && containsString(d.s.ActiveHeist.Crew, p.ID) {
		return false
	}
	d.removeCrew(p.ID)
	return true
}

func handleHealCrew(d *draft, a types.Action) bool {
	p, ok := decode[types.IDPayload](a)
	if !ok {
		return false
	}
	member := d.s.CrewMemberByID(p.ID)
	if member == nil || (!member.Injured && member.HP >= 100) {
		return false
	}
	if !d.spend(d.tuning().CrewHealCost) {
		return false
	}
	crew := d.Crew()
	for i := range crew {
		if crew[i].ID == p.ID {
			crew[i].HP = 100
			crew[i].Injured = false
		}
	}
	return true
}
