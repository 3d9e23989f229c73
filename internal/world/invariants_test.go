package world

import (
	"context"
	"testing"
)

func TestCheckInvariantsPassesOnHealthyWorld(t *testing.T) {
	w := newTestWorld()
	org := w.addTestOrg("org-1", "Farmers Co-op")
	w.addTestFacility("farm-1", org.ID, "farm-grain")
	org.Currency = 500
	org.stockAt("riverton")["grain"] = 50
	for i := 0; i < 4; i++ {
		w.addTestPop(PopID(farmerID(i)), 20, "farming")
	}

	for tick := 0; tick < 5; tick++ {
		if err := w.RunTick(context.Background()); err != nil {
			t.Fatalf("RunTick error: %v", err)
		}
		if err := w.CheckInvariants(); err != nil {
			t.Fatalf("invariant violated after tick %d: %v", tick+1, err)
		}
	}
}

func TestCheckInvariantsCatchesNegativeCurrency(t *testing.T) {
	w := newTestWorld()
	pop := w.addTestPop("pop-1", 10)
	pop.Currency = -1

	err := w.CheckInvariants()
	if err == nil {
		t.Fatal("expected a violation for negative currency")
	}
	if _, ok := err.(*InvariantViolationError); !ok {
		t.Fatalf("expected InvariantViolationError, got %T", err)
	}
}

func TestCheckInvariantsCatchesDanglingEmployment(t *testing.T) {
	w := newTestWorld()
	pop := w.addTestPop("pop-1", 10, "farming")
	pop.EmployedAt = "no-such-facility"

	if err := w.CheckInvariants(); err == nil {
		t.Fatal("expected a violation for employment at an unknown facility")
	}
}

func TestCheckInvariantsCatchesOverloadedShip(t *testing.T) {
	w := newTestWorld()
	w.AddShip(&Ship{
		ID: "ship-1", Owner: "org-1", Capacity: 5,
		Cargo: map[GoodID]Quantity{"grain": 9}, Status: ShipInPort, Location: "riverton",
	})

	if err := w.CheckInvariants(); err == nil {
		t.Fatal("expected a violation for cargo above capacity")
	}
}

func TestClosedEconomyConservesCurrency(t *testing.T) {
	w := newTestWorld()
	org := w.addTestOrg("org-1", "Farmers Co-op")
	w.addTestFacility("farm-1", org.ID, "farm-grain")
	org.Currency = 1000
	org.stockAt("riverton")["grain"] = 100
	// No growth: a child starts with empty stocks, would starve, and take
	// its purse with it.
	w.config.Tunables.GrowthFoodFloor = 100
	for i := 0; i < 6; i++ {
		pop := w.addTestPop(PopID(farmerID(i)), 50, "farming")
		// Well fed: keeps mortality at zero so no pop's purse leaves the system.
		pop.Stocks["grain"] = 100
	}

	before := w.TotalCurrency()
	for tick := 0; tick < 10; tick++ {
		if err := w.RunTick(context.Background()); err != nil {
			t.Fatalf("RunTick error: %v", err)
		}
	}
	after := w.TotalCurrency()

	diff := after - before
	if diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("currency not conserved in closed economy: before %v after %v", before, after)
	}
}
