package world

// snapshot.go implements the read-only StateSnapshot view exposed by the simulation facade.
// A snapshot is a value copy: no returned slice or map shares backing storage
// with live world state, so callers can retain it across ticks safely.

// MarketRow is one good's market state at a settlement.
type MarketRow struct {
	Good       GoodID
	Price      Price
	Available  Quantity
	LastTraded Price
}

// LaborRow is one skill's labor market state at a settlement.
type LaborRow struct {
	Skill  SkillID
	Wage   Price
	Supply int
	Demand int
}

// FacilityRow is one facility's production state.
type FacilityRow struct {
	ID         FacilityID
	Kind       string
	Workers    int
	Optimal    int
	Efficiency float64
}

// SettlementSnapshot is the read-only view of one settlement.
type SettlementSnapshot struct {
	ID   SettlementID
	Name string
	X, Y float64

	Population            int
	Wealth                Currency
	ProvisionSatisfaction float64

	Markets    []MarketRow
	Labor      []LaborRow
	Facilities []FacilityRow
	Inventory  map[GoodID]Quantity
}

// ShipSnapshot is the read-only view of one ship.
type ShipSnapshot struct {
	ID            ShipID
	Owner         OrgID
	Capacity      Quantity
	Cargo         map[GoodID]Quantity
	Status        string
	Location      SettlementID
	Destination   SettlementID
	DaysRemaining int
}

// OrgSnapshot is the read-only view of one merchant org.
type OrgSnapshot struct {
	ID       OrgID
	Name     string
	Treasury Currency
}

// StateSnapshot is the complete immutable view of world state exposed by the
// simulation facade.
type StateSnapshot struct {
	Tick        uint64
	Settlements []SettlementSnapshot
	Ships       []ShipSnapshot
	Orgs        []OrgSnapshot
	Routes      []Route
}

// Snapshot builds an immutable copy of the current committed world state.
func (w *World) Snapshot() StateSnapshot {
	snap := StateSnapshot{Tick: w.tick}

	for _, sid := range w.settlementIDsSorted() {
		snap.Settlements = append(snap.Settlements, w.snapshotSettlement(w.settlements[sid]))
	}
	for _, id := range w.shipIDsSorted() {
		snap.Ships = append(snap.Ships, w.snapshotShip(w.ships[id]))
	}
	for _, id := range w.orgIDsSorted() {
		org := w.orgs[id]
		snap.Orgs = append(snap.Orgs, OrgSnapshot{ID: org.ID, Name: org.Name, Treasury: org.Currency})
	}
	snap.Routes = append(snap.Routes, w.routes...)

	return snap
}

func (w *World) snapshotSettlement(s *Settlement) SettlementSnapshot {
	out := SettlementSnapshot{
		ID: s.ID, Name: s.Name, X: s.X, Y: s.Y,
		Inventory: make(map[GoodID]Quantity),
	}

	popIDs := w.popIDsSorted(s.Pops)
	out.Population = len(popIDs)
	totalSat := 0.0
	for _, pid := range popIDs {
		pop := w.pops[pid]
		out.Wealth += pop.Currency
		totalSat += pop.NeedSatisfaction[FoodNeed]
		for good, qty := range pop.Stocks {
			out.Inventory[good] += qty
		}
	}
	if out.Population > 0 {
		out.ProvisionSatisfaction = totalSat / float64(out.Population)
	}

	goodIDs := make([]GoodID, 0, len(w.goods))
	for g := range w.goods {
		goodIDs = append(goodIDs, g)
	}
	sortGoodIDs(goodIDs)
	for _, good := range goodIDs {
		m, ok := s.Market[good]
		if !ok {
			continue
		}
		out.Markets = append(out.Markets, MarketRow{
			Good: good, Price: m.PriceEMA.Value, Available: out.Inventory[good], LastTraded: m.LastTradedPrice,
		})
	}

	skillIDs := w.skillsByEMAPriority()
	for _, skill := range skillIDs {
		supply := 0
		demand := 0
		for _, pid := range popIDs {
			if w.pops[pid].Skills[skill] {
				supply++
			}
		}
		for _, f := range w.facilitiesAt(s.ID) {
			recipe, ok := w.recipes[f.Recipe]
			if ok && recipe.Skill == skill {
				demand += recipe.OptimalWorkforce
			}
		}
		if supply == 0 && demand == 0 {
			continue
		}
		wage := 0.0
		if ema, ok := w.wageEMA[skill]; ok {
			wage = ema.Value
		}
		out.Labor = append(out.Labor, LaborRow{Skill: skill, Wage: wage, Supply: supply, Demand: demand})
	}

	for _, f := range w.facilitiesAt(s.ID) {
		recipe := w.recipes[f.Recipe]
		out.Facilities = append(out.Facilities, FacilityRow{
			ID: f.ID, Kind: f.Kind, Workers: f.CurrentWorkers(), Optimal: recipe.OptimalWorkforce, Efficiency: f.Efficiency,
		})
	}

	return out
}

func (w *World) snapshotShip(s *Ship) ShipSnapshot {
	cargo := make(map[GoodID]Quantity, len(s.Cargo))
	for g, q := range s.Cargo {
		cargo[g] = q
	}
	status := "in_port"
	if s.Status == ShipEnRoute {
		status = "en_route"
	}
	return ShipSnapshot{
		ID: s.ID, Owner: s.Owner, Capacity: s.Capacity, Cargo: cargo, Status: status,
		Location: s.Location, Destination: s.Destination, DaysRemaining: s.DaysRemaining,
	}
}

func (w *World) shipIDsSorted() []ShipID {
	ids := make([]ShipID, 0, len(w.ships))
	for id := range w.ships {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
