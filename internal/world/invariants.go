package world

import (
	"fmt"
	"math"
)

// invariants.go validates the stock-flow-consistency invariants
// against committed post-tick state. The harness calls CheckInvariants after
// every tick and treats a non-nil result as fatal (debug semantics); release
// callers may log and continue.

// CheckInvariants returns the first violated invariant found, or nil.
func (w *World) CheckInvariants() error {
	t := w.config.Tunables

	for _, pid := range w.allPopIDsSorted() {
		pop := w.pops[pid]
		if pop.Currency < 0 {
			return &InvariantViolationError{Invariant: "non-negative currency", Detail: fmt.Sprintf("pop %s currency %v", pid, pop.Currency)}
		}
		for good, qty := range pop.Stocks {
			if qty < -t.Epsilon {
				return &InvariantViolationError{Invariant: "non-negative stocks", Detail: fmt.Sprintf("pop %s good %s qty %v", pid, good, qty)}
			}
		}
		if pop.EmployedAt != "" {
			f, ok := w.facilities[pop.EmployedAt]
			if !ok {
				return &InvariantViolationError{Invariant: "referential integrity", Detail: fmt.Sprintf("pop %s employed at unknown facility %s", pid, pop.EmployedAt)}
			}
			if f.Workers[pid] == 0 {
				return &InvariantViolationError{Invariant: "worker accounting", Detail: fmt.Sprintf("pop %s claims employment at %s but holds no slot", pid, f.ID)}
			}
		}
		s, ok := w.settlements[pop.Home]
		if !ok {
			return &InvariantViolationError{Invariant: "referential integrity", Detail: fmt.Sprintf("pop %s home settlement %s missing", pid, pop.Home)}
		}
		if _, member := s.Pops[pid]; !member {
			return &InvariantViolationError{Invariant: "referential integrity", Detail: fmt.Sprintf("pop %s not in home settlement %s membership", pid, pop.Home)}
		}
	}

	employedPops := 0
	for _, pid := range w.allPopIDsSorted() {
		if w.pops[pid].Employed() {
			employedPops++
		}
	}
	assignedWorkers := 0
	for _, fid := range w.facilityIDsSorted() {
		f := w.facilities[fid]
		for pid, n := range f.Workers {
			if n < 0 {
				return &InvariantViolationError{Invariant: "worker accounting", Detail: fmt.Sprintf("facility %s negative worker count for pop %s", fid, pid)}
			}
			if _, ok := w.pops[pid]; !ok {
				return &InvariantViolationError{Invariant: "referential integrity", Detail: fmt.Sprintf("facility %s holds worker slot for dead pop %s", fid, pid)}
			}
			if n > 0 {
				assignedWorkers++
			}
		}
	}
	if assignedWorkers != employedPops {
		return &InvariantViolationError{Invariant: "worker accounting", Detail: fmt.Sprintf("facility worker slots %d != employed pops %d", assignedWorkers, employedPops)}
	}

	for _, sid := range w.settlementIDsSorted() {
		s := w.settlements[sid]
		for good, m := range s.Market {
			v := m.PriceEMA.Value
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvariantViolationError{Invariant: "finite price EMA", Detail: fmt.Sprintf("settlement %s good %s", sid, good)}
			}
			if v != 0 && (v < t.MinPrice-t.Epsilon || v > t.MaxPrice+t.Epsilon) {
				return &InvariantViolationError{Invariant: "price EMA bounds", Detail: fmt.Sprintf("settlement %s good %s ema %v outside [%v, %v]", sid, good, v, t.MinPrice, t.MaxPrice)}
			}
		}
	}

	for _, id := range w.shipIDsSorted() {
		ship := w.ships[id]
		if ship.CargoTotal() > ship.Capacity+t.Epsilon {
			return &InvariantViolationError{Invariant: "ship capacity", Detail: fmt.Sprintf("ship %s cargo %v > capacity %v", id, ship.CargoTotal(), ship.Capacity)}
		}
		if ship.Status == ShipEnRoute && ship.DaysRemaining <= 0 {
			return &InvariantViolationError{Invariant: "ship status", Detail: fmt.Sprintf("ship %s en route with days_remaining %d", id, ship.DaysRemaining)}
		}
	}

	for _, oid := range w.orgIDsSorted() {
		org := w.orgs[oid]
		if org.Currency < 0 {
			return &InvariantViolationError{Invariant: "non-negative currency", Detail: fmt.Sprintf("org %s currency %v", oid, org.Currency)}
		}
		for sid, stock := range org.Warehouse {
			for good, qty := range stock {
				if qty < -t.Epsilon {
					return &InvariantViolationError{Invariant: "non-negative stocks", Detail: fmt.Sprintf("org %s warehouse %s good %s qty %v", oid, sid, good, qty)}
				}
			}
		}
	}

	return nil
}

// TotalCurrency sums currency across every pop and org. With external
// anchors disabled, trades, wages and growth move currency without
// creating or destroying it; a pop removed by mortality takes its currency
// out of the total. The closed-economy tests assert on it.
func (w *World) TotalCurrency() Currency {
	total := Currency(0)
	for _, pid := range w.allPopIDsSorted() {
		total += w.pops[pid].Currency
	}
	for _, oid := range w.orgIDsSorted() {
		total += w.orgs[oid].Currency
	}
	return total
}
