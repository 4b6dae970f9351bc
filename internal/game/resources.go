package game

import "github.com/user/vida-loka-empire/internal/types"

const maxHeat = 100

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func pct(v, p int) int {
	return v * p / 100
}

// spend pays from clean money. Insufficient funds leave the state untouched.
func (d *draft) spend(amount int) bool {
	if amount < 0 || d.s.Money < amount {
		return false
	}
	d.s.Money -= amount
	return true
}

// spendUpTo pays as much as possible and returns the unpaid remainder
func (d *draft) spendUpTo(amount int) int {
	if amount <= 0 {
		return 0
	}
	if d.s.Money >= amount {
		d.s.Money -= amount
		return 0
	}
	rest := amount - d.s.Money
	d.s.Money = 0
	return rest
}

func (d *draft) earn(amount int) {
	if amount > 0 {
		d.s.Money += amount
	}
}

func (d *draft) earnDirty(amount int) {
	if amount > 0 {
		d.s.DirtyMoney += amount
	}
}

// adjustMoney applies a signed delta, flooring at zero
func (d *draft) adjustMoney(delta int) {
	if delta >= 0 {
		d.earn(delta)
		return
	}
	d.spendUpTo(-delta)
}

func (d *draft) addRep(delta int) {
	d.s.Reputation = max(0, d.s.Reputation+delta)
}

// addPersonalHeat moves the personal pool and recomposes displayed heat
func (d *draft) addPersonalHeat(delta int) {
	d.s.PersonalHeat = clamp(d.s.PersonalHeat+delta, 0, maxHeat)
	d.recomposeHeat()
}

// addVehicleHeat moves one vehicle's pool and recomposes displayed heat
func (d *draft) addVehicleHeat(vehicleID string, delta int) {
	vehicles := d.Vehicles()
	for i := range vehicles {
		if vehicles[i].ID == vehicleID {
			vehicles[i].Heat = clamp(vehicles[i].Heat+delta, 0, maxHeat)
		}
	}
	d.recomposeHeat()
}

func (d *draft) recomposeHeat() {
	d.s.Heat = ComposeHeat(d.s, d.tuning())
}

// ComposeHeat is the displayed heat: a weighted blend of personal heat and
// the active vehicle's heat, or personal heat alone with no active vehicle.
func ComposeHeat(s *types.WorldState, t *Tuning) int {
	personal := clamp(s.PersonalHeat, 0, maxHeat)
	v := s.ActiveVehicle()
	if v == nil {
		return personal
	}
	total := t.Heat.PersonalWeight + t.Heat.VehicleWeight
	if total <= 0 {
		return personal
	}
	blended := (personal*t.Heat.PersonalWeight + clamp(v.Heat, 0, maxHeat)*t.Heat.VehicleWeight + total/2) / total
	return clamp(blended, 0, maxHeat)
}

// IsWanted reports whether displayed heat crossed the wanted threshold
func IsWanted(s *types.WorldState, t *Tuning) bool {
	return s.Heat >= t.Heat.WantedThreshold
}

// MaxInventory derives carrying capacity from the active vehicle, bag gear and the villa vault
func MaxInventory(s *types.WorldState, c *Content, t *Tuning) int {
	capacity := t.BaseInventory
	if v := s.ActiveVehicle(); v != nil {
		if def, ok := c.Vehicle(v.Model); ok {
			capacity += def.Capacity
		}
	}
	for _, gearID := range s.Equipped {
		if def, ok := c.GearItem(gearID); ok {
			capacity += def.Capacity
		}
	}
	if s.HasVillaModule(ModuleVault) {
		capacity += t.VaultCapacity
	}
	for _, sh := range s.Safehouses {
		capacity += sh.Capacity
	}
	return capacity
}

func (d *draft) recomputeMaxInv() {
	d.s.MaxInv = MaxInventory(d.s, d.content(), d.tuning())
}

// addGoods adds to inventory within the capacity bound
func (d *draft) addGoods(good string, qty int) bool {
	if qty <= 0 {
		return false
	}
	d.recomputeMaxInv()
	if d.s.InventoryUsed()+qty > d.s.MaxInv {
		return false
	}
	d.Inventory()[good] += qty
	return true
}

func (d *draft) removeGoods(good string, qty int) bool {
	if qty <= 0 || d.s.Inventory[good] < qty {
		return false
	}
	inv := d.Inventory()
	inv[good] -= qty
	if inv[good] == 0 {
		delete(inv, good)
	}
	return true
}

// hurt lowers HP without killing; lethal outcomes are owned by combat
func (d *draft) hurt(amount int) {
	if amount <= 0 {
		return
	}
	d.s.HP = max(1, d.s.HP-amount)
}

func (d *draft) heal(amount int) {
	d.s.HP = min(d.s.MaxHP, d.s.HP+amount)
}

func (d *draft) statValue(stat string) int {
	switch stat {
	case StatMuscle:
		return d.s.Stats.Muscle
	case StatBrains:
		return d.s.Stats.Brains
	case StatCharisma:
		return d.s.Stats.Charisma
	case StatStealth:
		return d.s.Stats.Stealth
	}
	return 0
}

func (d *draft) hasPerk(perk string) bool {
	for _, p := range d.s.Perks {
		if p == perk {
			return true
		}
	}
	return false
}

func (d *draft) unlock(key string) bool {
	if d.s.HasUnlocked(key) {
		return false
	}
	d.s.Unlocked = append(d.Unlocked(), key)
	return true
}

func removeString(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
