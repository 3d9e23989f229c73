package world

import "testing"

func TestSnapshotReportsPopulationAndWealth(t *testing.T) {
	w := newTestWorld()
	w.addTestPop("pop-1", 10)
	w.addTestPop("pop-2", 20)

	snap := w.Snapshot()
	if len(snap.Settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(snap.Settlements))
	}
	s := snap.Settlements[0]
	if s.Population != 2 {
		t.Fatalf("expected population 2, got %d", s.Population)
	}
	if s.Wealth != 30 {
		t.Fatalf("expected wealth 30, got %v", s.Wealth)
	}
}

func TestSnapshotIsIndependentOfLiveState(t *testing.T) {
	w := newTestWorld()
	pop := w.addTestPop("pop-1", 10)

	snap := w.Snapshot()
	pop.Currency = 9999

	if snap.Settlements[0].Wealth != 10 {
		t.Fatalf("expected snapshot to be a frozen copy, got %v after live mutation", snap.Settlements[0].Wealth)
	}
}

func TestSnapshotIncludesFacilitiesAndOrgs(t *testing.T) {
	w := newTestWorld()
	org := w.addTestOrg("org-1", "Farmers Co-op")
	org.Currency = 500
	w.addTestFacility("farm-1", org.ID, "farm-grain")

	snap := w.Snapshot()
	if len(snap.Orgs) != 1 || snap.Orgs[0].Treasury != 500 {
		t.Fatalf("expected one org with treasury 500, got %+v", snap.Orgs)
	}
	if len(snap.Settlements[0].Facilities) != 1 {
		t.Fatalf("expected one facility row, got %d", len(snap.Settlements[0].Facilities))
	}
	facRow := snap.Settlements[0].Facilities[0]
	if facRow.Optimal != 4 {
		t.Fatalf("expected optimal workforce 4, got %d", facRow.Optimal)
	}
}

func TestSnapshotTickMatchesWorldTick(t *testing.T) {
	w := newTestWorld()
	snap := w.Snapshot()
	if snap.Tick != w.Tick() {
		t.Fatalf("expected snapshot tick to match world tick, got %d vs %d", snap.Tick, w.Tick())
	}
}
