package world

import "testing"

func TestDiscoveryPassAllocatesWithinBudget(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.IncomeEMA.Value = 10

	desired := w.DiscoveryPass(pop, s)
	grain := desired["grain"]
	if grain <= 0 {
		t.Fatalf("expected positive desired grain, got %v", grain)
	}

	price := w.virtualPrice(s, "grain")
	if spent := grain * price; spent > pop.IncomeEMA.Value+1e-6 {
		t.Fatalf("discovery pass overspent budget: spent=%v budget=%v", spent, pop.IncomeEMA.Value)
	}
}

func TestDiscoveryPassZeroBudgetYieldsNothing(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)

	desired := w.DiscoveryPass(pop, s)
	if len(desired) != 0 {
		t.Fatalf("expected no desired consumption with zero budget, got %v", desired)
	}
}

func TestActualPassConsumesFromStockAndRecordsSatisfaction(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.Stocks["grain"] = 1 // half of the requirement of 2

	w.ActualPass(pop, s)

	if pop.Stocks["grain"] != 0 {
		t.Fatalf("expected stock to be consumed, got %v", pop.Stocks["grain"])
	}
	if got := pop.NeedSatisfaction[FoodNeed]; got != 0.5 {
		t.Fatalf("expected satisfaction 0.5, got %v", got)
	}
}

func TestActualPassCapsConsumptionAtTailCeiling(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.Stocks["grain"] = 100 // requirement is 2, tail ceiling is 1.25x

	w.ActualPass(pop, s)

	wantConsumed := Quantity(2 * needTailCeiling)
	wantRemaining := Quantity(100) - wantConsumed
	if pop.Stocks["grain"] != wantRemaining {
		t.Fatalf("expected %v remaining, got %v", wantRemaining, pop.Stocks["grain"])
	}
	if got := pop.NeedSatisfaction[FoodNeed]; got != needTailCeiling {
		t.Fatalf("expected satisfaction capped at %v, got %v", needTailCeiling, got)
	}
}

func TestActualPassPreservesBufferBelowTarget(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.desiredEMA("grain").Value = 2 // target = 2 * BufferTicks(5) = 10
	pop.Stocks["grain"] = 4           // well below target: surplus stays locked

	w.ActualPass(pop, s)

	// Baseline floor is the requirement (2); the release factor at ratio 0.4
	// is zero, so nothing above the floor is touched.
	if got := pop.Stocks["grain"]; got != 2 {
		t.Fatalf("expected the 2 units above the floor preserved, got stock %v", got)
	}
	if got := pop.NeedSatisfaction[FoodNeed]; got != 1.0 {
		t.Fatalf("expected satisfaction 1.0 from the floor alone, got %v", got)
	}
}

func TestActualPassReleasesSurplusAboveTarget(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.desiredEMA("grain").Value = 2 // target = 10
	pop.Stocks["grain"] = 20          // twice the target: release saturates

	w.ActualPass(pop, s)

	wantConsumed := Quantity(2 * needTailCeiling)
	if got := pop.Stocks["grain"]; got != 20-wantConsumed {
		t.Fatalf("expected %v consumed from abundant stock, got stock %v", wantConsumed, pop.Stocks["grain"])
	}
	if got := pop.NeedSatisfaction[FoodNeed]; got != needTailCeiling {
		t.Fatalf("expected satisfaction at the tail ceiling, got %v", got)
	}
}

func TestBiasedPricesSkewByBufferRatio(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	pop := w.addTestPop("pop-1", 0)
	pop.desiredEMA("grain").Value = 2 // target = 10
	base := w.virtualPrice(s, "grain")

	pop.Stocks["grain"] = 2 // ratio 0.2 (the clamp floor): price x5
	if got := w.biasedPrices(pop, s)["grain"]; got != base/stockBiasRatioMin {
		t.Fatalf("expected low stock to raise the virtual price to %v, got %v", base/stockBiasRatioMin, got)
	}

	pop.Stocks["grain"] = 100 // ratio clamps at 5: price /5
	if got := w.biasedPrices(pop, s)["grain"]; got != base/stockBiasRatioMax {
		t.Fatalf("expected high stock to cut the virtual price to %v, got %v", base/stockBiasRatioMax, got)
	}
}

func TestSurplusReleaseFactorShape(t *testing.T) {
	if got := surplusReleaseFactor(0.4); got != 0 {
		t.Fatalf("expected zero release below the low ratio, got %v", got)
	}
	if got := surplusReleaseFactor(2.0); got != 1 {
		t.Fatalf("expected full release above the high ratio, got %v", got)
	}
	mid := surplusReleaseFactor(1.0)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected a fractional release at ratio 1.0, got %v", mid)
	}
	if surplusReleaseFactor(0.9) >= surplusReleaseFactor(1.1) {
		t.Fatal("release factor must be increasing in the stock/target ratio")
	}
}

func TestSmoothDesiredConsumptionBlendsWithFixedCoefficients(t *testing.T) {
	w := newTestWorld()
	pop := w.addTestPop("pop-1", 0)
	pop.desiredEMA("grain").Value = 10

	w.SmoothDesiredConsumption(pop, map[GoodID]Quantity{"grain": 20})

	want := 10*w.config.Tunables.DesiredEMAOld + 20*w.config.Tunables.DesiredEMANew
	if got := pop.desiredEMA("grain").Value; got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestVirtualPriceFallsBackToDefault(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	if got := w.virtualPrice(s, "grain"); got != w.config.Tunables.DefaultGrainPrice {
		t.Fatalf("expected default grain price fallback, got %v", got)
	}
	s.marketFor("grain").PriceEMA.Value = 3.5
	if got := w.virtualPrice(s, "grain"); got != 3.5 {
		t.Fatalf("expected market price 3.5, got %v", got)
	}
}
