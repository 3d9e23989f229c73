package world

import (
	"context"
	"sort"

	"manifestsim/logging/labor"
)

// labor.go implements per-settlement, per-skill labor market clearing
// with an adaptive facility bid controller and a subsistence-anchored pop
// reservation wage.

// LaborAsk is a pop's wage floor for one skill this tick.
type LaborAsk struct {
	PopID PopID
	Wage  Price
}

type laborBidSlot struct {
	FacilityID FacilityID
	Wage       Price
}

type laborAssignment struct {
	PopID      PopID
	FacilityID FacilityID
	Wage       Price
}

// RunLaborMarket clears every settlement's labor market, skill by skill, in
// EMA-priority order (tightest markets first), pays wages, and updates each
// facility's adaptive bid controller for next tick. After all settlements
// clear, the tick's total asks and offered slots decide the global
// labor-excess flag the ratchet-down branch reads next tick.
func (w *World) RunLaborMarket(ctx context.Context, tick uint64) {
	w.laborAsksTick = 0
	w.laborSlotsTick = 0
	for _, sid := range w.settlementIDsSorted() {
		s := w.settlements[sid]
		w.clearSettlementLabor(ctx, tick, s)
	}
	w.laborExcessGlobal = w.laborAsksTick > w.laborSlotsTick
}

func (w *World) clearSettlementLabor(ctx context.Context, tick uint64, s *Settlement) {
	popIDs := w.popIDsSorted(s.Pops)
	for _, pid := range popIDs {
		w.pops[pid].EmployedAt = ""
	}
	facilities := w.facilitiesAt(s.ID)
	for _, f := range facilities {
		f.Workers = make(map[PopID]int)
	}

	rank := make(map[PopID]int, len(popIDs))
	for i, pid := range popIDs {
		rank[pid] = i + 1
	}

	subsistenceWage := w.subsistenceWageRef(s)
	skillsOrdered := w.skillsByEMAPriority()
	claimed := make(map[PopID]bool, len(popIDs))

	wageBills := make(map[OrgID][]facilityWageBillsValue)

	for _, skill := range skillsOrdered {
		asks := w.buildLaborAsks(s, skill, popIDs, claimed, rank)
		slots, facByID := w.buildFacilityBidSlots(s, skill, facilities, subsistenceWage)

		assignments, clearingWage, filled := clearLaborSkill(asks, slots, w.config.Tunables.DemandOnlyLabor)

		for _, a := range assignments {
			pop := w.pops[a.PopID]
			pop.EmployedAt = a.FacilityID
			f := facByID[a.FacilityID]
			f.Workers[a.PopID]++
			claimed[a.PopID] = true
		}

		for _, f := range facilities {
			if f.Recipe == "" {
				continue
			}
			recipe, ok := w.recipes[f.Recipe]
			if !ok || recipe.Skill != skill {
				continue
			}
			bidState := f.BidState[skill]
			offered := recipe.OptimalWorkforce
			got := filled[f.ID]
			bidState.LastFilled = got >= offered
			if got > 0 {
				wageBills[f.Owner] = append(wageBills[f.Owner], facilityWageBillsValue{facility: f, skill: skill, count: got})
			}
		}

		w.laborAsksTick += len(asks)
		w.laborSlotsTick += len(slots)

		if clearingWage > 0 {
			t := w.config.Tunables
			w.wageEMA[skill].Blend(clearingWage, t.IncomeEMAOld, t.IncomeEMANew)
		}

		labor.LaborAssigned(ctx, w.publisher, tick, entityRef(entityKindSettlement, string(s.ID)), labor.LaborAssignedPayload{
			Skill: string(skill), ClearingWage: clearingWage,
		}, nil)
	}

	w.settleWageBills(ctx, tick, s, wageBills)

	t := w.config.Tunables
	for _, pid := range popIDs {
		pop := w.pops[pid]
		if !claimed[pid] {
			pop.IncomeEMA.Blend(0, t.IncomeEMAOld, t.IncomeEMANew)
		}
	}
}

func (w *World) settleWageBills(ctx context.Context, tick uint64, s *Settlement, bills map[OrgID][]facilityWageBillsValue) {
	t := w.config.Tunables
	orgIDs := make([]OrgID, 0, len(bills))
	for id := range bills {
		orgIDs = append(orgIDs, id)
	}
	sort.Slice(orgIDs, func(i, j int) bool { return orgIDs[i] < orgIDs[j] })

	for _, orgID := range orgIDs {
		org := w.orgs[orgID]
		entries := bills[orgID]
		sort.Slice(entries, func(i, j int) bool { return entries[i].facility.ID < entries[j].facility.ID })

		total := Currency(0)
		for _, e := range entries {
			total += Currency(e.count) * e.facility.BidState[e.skill].CurrentBid
		}
		if org == nil {
			continue
		}
		for total > org.Currency+t.Epsilon && len(entries) > 0 {
			last := entries[len(entries)-1]
			w.releaseWorstPaidWorkers(last.facility, last.skill, total, org.Currency)
			total -= Currency(last.count) * last.facility.BidState[last.skill].CurrentBid
			entries = entries[:len(entries)-1]
		}

		for _, e := range entries {
			wage := e.facility.BidState[e.skill].CurrentBid
			cost := Currency(e.count) * wage
			if !DebitCurrency(&org.Currency, cost) {
				continue
			}
			paid := 0
			for pid, f := range e.facility.Workers {
				if f == 0 {
					continue
				}
				pop := w.pops[pid]
				if pop == nil {
					continue
				}
				CreditCurrency(&pop.Currency, wage)
				pop.IncomeEMA.Blend(wage, t.IncomeEMAOld, t.IncomeEMANew)
				paid++
			}
			labor.WagePaid(ctx, w.publisher, tick, entityRef(entityKindFacility, string(e.facility.ID)), labor.WagePaidPayload{
				Skill: string(e.skill), Workers: paid, Wage: wage, Total: cost,
			}, nil)
		}
	}
}

// facilityWageBillsValue is one facility's wage bill for one skill: the
// facility, the skill, and the number of workers hired this tick.
type facilityWageBillsValue = struct {
	facility *Facility
	skill    SkillID
	count    int
}

func (w *World) releaseWorstPaidWorkers(f *Facility, skill SkillID, _ Currency, _ Currency) {
	for pid := range f.Workers {
		pop := w.pops[pid]
		if pop != nil {
			pop.EmployedAt = ""
		}
		delete(f.Workers, pid)
	}
}

func (w *World) buildLaborAsks(s *Settlement, skill SkillID, popIDs []PopID, claimed map[PopID]bool, rank map[PopID]int) []LaborAsk {
	t := w.config.Tunables
	var asks []LaborAsk
	for _, pid := range popIDs {
		if claimed[pid] {
			continue
		}
		pop := w.pops[pid]
		if !pop.Skills[skill] {
			continue
		}
		wage := pop.ReservationWage
		switch {
		case t.DemandOnlyLabor:
			// Demand-side-only variant: supply is inelastic, every skilled
			// pop accepts any positive bid and the facility side alone sets
			// the wage.
			wage = 0
		case t.SubsistenceReservation:
			q := subsistenceYield(rank[pid], t)
			wage = q * w.virtualPrice(s, w.grainGood)
		}
		asks = append(asks, LaborAsk{PopID: pid, Wage: wage})
	}
	return asks
}

func (w *World) buildFacilityBidSlots(s *Settlement, skill SkillID, facilities []*Facility, subsistenceWage Price) ([]laborBidSlot, map[FacilityID]*Facility) {
	var slots []laborBidSlot
	byID := make(map[FacilityID]*Facility)
	for _, f := range facilities {
		if f.Recipe == "" {
			continue
		}
		recipe, ok := w.recipes[f.Recipe]
		if !ok || recipe.Skill != skill {
			continue
		}
		byID[f.ID] = f
		bidState := w.updateFacilityBid(f, skill, s, recipe, subsistenceWage)
		for i := 0; i < recipe.OptimalWorkforce; i++ {
			slots = append(slots, laborBidSlot{FacilityID: f.ID, Wage: bidState.CurrentBid})
		}
	}
	return slots, byID
}

func (w *World) updateFacilityBid(f *Facility, skill SkillID, s *Settlement, recipe Recipe, subsistenceWage Price) *FacilityBidState {
	t := w.config.Tunables
	bidState, ok := f.BidState[skill]
	if !ok {
		bidState = &FacilityBidState{}
		f.BidState[skill] = bidState
	}
	mvp := w.marginalValueProduct(f, recipe, s)
	cap := mvp * (1 - t.MinMargin)

	switch {
	case !bidState.ColdStarted:
		bidState.CurrentBid = subsistenceWage
		bidState.ColdStarted = true
	case !bidState.LastFilled:
		bidState.CurrentBid = clampFloat(bidState.CurrentBid+t.RatchetUp, 0, cap)
	case w.laborExcessGlobal:
		bidState.CurrentBid = maxFloat(bidState.CurrentBid-t.RatchetDown, subsistenceWage)
	}
	return bidState
}

func (w *World) marginalValueProduct(f *Facility, recipe Recipe, s *Settlement) float64 {
	if recipe.OptimalWorkforce <= 0 {
		return 0
	}
	perWorkerOutput := recipe.BaseOutput / float64(recipe.OptimalWorkforce)
	return perWorkerOutput * w.virtualPrice(s, recipe.Output) * f.Efficiency
}

// subsistenceWageRef is the cold-start wage and ratchet-down floor: the
// in-kind value of the best-ranked subsistence yield.
func (w *World) subsistenceWageRef(s *Settlement) Price {
	t := w.config.Tunables
	return subsistenceYield(1, t) * w.virtualPrice(s, w.grainGood)
}

func clearLaborSkill(asks []LaborAsk, slots []laborBidSlot, demandOnly bool) ([]laborAssignment, Price, map[FacilityID]int) {
	sort.SliceStable(asks, func(i, j int) bool {
		if asks[i].Wage != asks[j].Wage {
			return asks[i].Wage < asks[j].Wage
		}
		return asks[i].PopID < asks[j].PopID
	})
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Wage != slots[j].Wage {
			return slots[i].Wage > slots[j].Wage
		}
		return slots[i].FacilityID < slots[j].FacilityID
	})

	var assignments []laborAssignment
	var clearingWage Price
	i, j := 0, 0
	for i < len(asks) && j < len(slots) && slots[j].Wage >= asks[i].Wage {
		assignments = append(assignments, laborAssignment{PopID: asks[i].PopID, FacilityID: slots[j].FacilityID})
		if demandOnly {
			// With zeroed asks the marginal filled bid is the wage signal.
			clearingWage = slots[j].Wage
		} else {
			clearingWage = asks[i].Wage
		}
		i++
		j++
	}
	for idx := range assignments {
		assignments[idx].Wage = clearingWage
	}

	filled := make(map[FacilityID]int)
	for _, a := range assignments {
		filled[a.FacilityID]++
	}
	return assignments, clearingWage, filled
}

func (w *World) skillsByEMAPriority() []SkillID {
	ids := make([]SkillID, 0, len(w.skills))
	for id := range w.skills {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		wi, wj := w.wageEMA[ids[i]], w.wageEMA[ids[j]]
		vi, vj := 0.0, 0.0
		if wi != nil {
			vi = wi.Value
		}
		if wj != nil {
			vj = wj.Value
		}
		if vi != vj {
			return vi > vj
		}
		return ids[i] < ids[j]
	})
	return ids
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
