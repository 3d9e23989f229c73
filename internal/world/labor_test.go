package world

import (
	"context"
	"testing"
)

func TestClearLaborSkillMatchesAscendingAsksToDescendingBids(t *testing.T) {
	asks := []LaborAsk{{PopID: "pop-1", Wage: 1}, {PopID: "pop-2", Wage: 3}}
	slots := []laborBidSlot{{FacilityID: "farm-1", Wage: 5}, {FacilityID: "farm-1", Wage: 2}}

	assignments, clearingWage, filled := clearLaborSkill(asks, slots, false)
	if len(assignments) != 1 {
		t.Fatalf("expected exactly one match (only one slot wage >= one ask wage), got %d", len(assignments))
	}
	if clearingWage != 1 {
		t.Fatalf("expected clearing wage to be the marginal matched ask (1), got %v", clearingWage)
	}
	if filled["farm-1"] != 1 {
		t.Fatalf("expected farm-1 to fill 1 slot, got %v", filled["farm-1"])
	}
}

func TestClearLaborSkillNoMatchWhenNoOverlap(t *testing.T) {
	asks := []LaborAsk{{PopID: "pop-1", Wage: 10}}
	slots := []laborBidSlot{{FacilityID: "farm-1", Wage: 1}}
	assignments, _, _ := clearLaborSkill(asks, slots, false)
	if len(assignments) != 0 {
		t.Fatalf("expected no assignments, got %d", len(assignments))
	}
}

func TestClearLaborSkillDemandOnlyWageIsMarginalBid(t *testing.T) {
	asks := []LaborAsk{{PopID: "pop-1", Wage: 0}, {PopID: "pop-2", Wage: 0}}
	slots := []laborBidSlot{{FacilityID: "farm-1", Wage: 7}, {FacilityID: "farm-1", Wage: 4}}

	assignments, clearingWage, _ := clearLaborSkill(asks, slots, true)
	if len(assignments) != 2 {
		t.Fatalf("expected both zero-ask pops hired, got %d", len(assignments))
	}
	if clearingWage != 4 {
		t.Fatalf("expected the marginal filled bid (4) as clearing wage, got %v", clearingWage)
	}
}

func TestDemandOnlyLaborIgnoresReservationWages(t *testing.T) {
	w := newTestWorld()
	w.config.Tunables.DemandOnlyLabor = true
	org := w.addTestOrg("org-1", "Farmers Co-op")
	f := w.addTestFacility("farm-1", org.ID, "farm-grain")
	org.Currency = 1000

	for i := 0; i < 4; i++ {
		pop := w.addTestPop(PopID(farmerID(i)), 0, "farming")
		pop.ReservationWage = 1e6 // would price everyone out of the ask+bid market
	}

	w.RunLaborMarket(context.Background(), 1)

	if got := f.CurrentWorkers(); got != 4 {
		t.Fatalf("expected demand-only mode to hire all 4 pops despite reservations, got %d", got)
	}
}

func TestRunLaborMarketAssignsWorkersAndPaysWages(t *testing.T) {
	w := newTestWorld()
	org := w.addTestOrg("org-1", "Farmers Co-op")
	f := w.addTestFacility("farm-1", org.ID, "farm-grain")
	org.Currency = 1000

	for i := 0; i < 4; i++ {
		w.addTestPop(PopID(farmerID(i)), 0, "farming")
	}

	w.RunLaborMarket(context.Background(), 1)

	if got := f.CurrentWorkers(); got != 4 {
		t.Fatalf("expected all 4 skilled pops assigned to the sole optimal-4 facility, got %d", got)
	}
	for i := 0; i < 4; i++ {
		pop := w.pops[PopID(farmerID(i))]
		if !pop.Employed() {
			t.Fatalf("expected pop %s to be employed", pop.ID)
		}
		if pop.Currency <= 0 {
			t.Fatalf("expected pop %s to have been paid a wage, got currency=%v", pop.ID, pop.Currency)
		}
	}
}

func TestSubsistenceWageRefUsesBestRank(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	want := subsistenceYield(1, w.config.Tunables) * w.virtualPrice(s, w.grainGood)
	if got := w.subsistenceWageRef(s); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func farmerID(i int) string {
	return "farmer-" + string(rune('a'+i))
}
