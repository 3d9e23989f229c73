package world

import "math"

// consumption.go implements the two-pass per-pop consumption model.
//
// The discovery pass is a planner probe: it allocates the pop's income EMA
// as a budget against virtual (settlement price EMA) prices to infer desired
// per-good demand, without touching actual stocks. The actual pass then
// consumes from on-hand stock only, independent of budget, and records
// need_satisfaction. Decoupling the two keeps the demand signal from being
// corrupted by a pop's incidental market access that tick.
const discoveryAllocationSteps = 24

// DiscoveryPass solves a greedy utility-maximizing allocation of budget
// across needs at the given virtual prices and returns the inferred desired
// quantity per good. It does not mutate pop state.
func (w *World) DiscoveryPass(pop *Pop, settlement *Settlement) map[GoodID]Quantity {
	budget := pop.IncomeEMA.Value
	desired := make(map[GoodID]Quantity)
	if budget <= 0 || len(w.needs.all) == 0 {
		return desired
	}

	ratios := make(map[GoodID]float64, len(w.needs.all))
	eps := w.config.Tunables.Epsilon

	for budget > eps {
		bestIdx := -1
		bestScore := 0.0
		for i, nd := range w.needs.all {
			if nd.Requirement <= 0 {
				continue
			}
			ratio := ratios[nd.Good]
			if ratio >= needTailCeiling {
				continue
			}
			price := w.virtualPrice(settlement, nd.Good)
			if price <= eps {
				continue
			}
			score := MarginalUtility(ratio) / price
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		nd := w.needs.all[bestIdx]
		price := w.virtualPrice(settlement, nd.Good)
		step := nd.Requirement / discoveryAllocationSteps
		cost := step * price
		if cost > budget {
			step = budget / price
			cost = budget
		}
		if step <= eps {
			break
		}
		desired[nd.Good] += step
		ratios[nd.Good] += step / nd.Requirement
		budget -= cost
	}
	return desired
}

const (
	// Surplus-release controller: stock above the baseline floor is released
	// for consumption as a nonlinear function of the stock/target ratio, near
	// zero below surplusReleaseRatioLow and saturating at one above
	// surplusReleaseRatioHigh.
	surplusReleaseRatioLow  = 0.6
	surplusReleaseRatioHigh = 1.4
	surplusReleaseGamma     = 1.5

	// Stockpile bias on virtual prices is clamped so a pathological target
	// cannot push a price to zero or infinity.
	stockBiasRatioMin = 0.2
	stockBiasRatioMax = 5.0

	// Greedy actual consumption proceeds in at-most-unit steps and stops when
	// the next step would be negligible.
	actualConsumeStep = 1.0
	minConsumeDelta   = 1e-3
)

// ActualPass consumes from the pop's on-hand stocks with no currency budget.
// Restraint comes from two controls instead: virtual prices biased by the
// stock/target ratio (low buffer -> dearer -> consumed later) rank the greedy
// allocation, and a release-gated stock cap keeps surplus above the baseline
// floor in reserve when the buffer is short, so a tick of plenty does not
// drain the stockpile. Records achieved need_satisfaction per need.
func (w *World) ActualPass(pop *Pop, settlement *Settlement) {
	available := w.cappedActualStocks(pop)
	prices := w.biasedPrices(pop, settlement)
	eps := w.config.Tunables.Epsilon

	achieved := make(map[string]Quantity, len(w.needs.all))
	for {
		bestIdx := -1
		bestScore := 0.0
		for i, nd := range w.needs.all {
			if nd.Requirement <= 0 {
				continue
			}
			if available[nd.Good] <= eps {
				continue
			}
			price := prices[nd.Good]
			if price <= eps {
				price = eps
			}
			mu := MarginalUtility(Satisfaction(achieved[nd.Name], nd.Requirement))
			score := mu / price
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		nd := w.needs.all[bestIdx]
		step := minQty(available[nd.Good], actualConsumeStep)
		// Never consume past the utility tail: the last step shrinks to land
		// exactly on the ceiling.
		if maxUseful := nd.Requirement*needTailCeiling - achieved[nd.Name]; step > maxUseful {
			step = maxUseful
		}
		if step <= minConsumeDelta {
			break
		}
		available[nd.Good] -= step
		achieved[nd.Name] += step
	}

	for _, nd := range w.needs.all {
		if nd.Requirement <= 0 {
			pop.NeedSatisfaction[nd.Name] = 0
			continue
		}
		consumed := achieved[nd.Name]
		if consumed > 0 {
			RemoveGood(pop.Stocks, nd.Good, consumed)
		}
		pop.NeedSatisfaction[nd.Name] = Satisfaction(consumed, nd.Requirement)
	}
}

// biasedPrices skews the settlement's virtual prices by each good's
// stock/target ratio: low stock relative to target raises the virtual price
// (consume less, save the buffer), high stock lowers it (draw down excess).
func (w *World) biasedPrices(pop *Pop, settlement *Settlement) map[GoodID]Price {
	t := w.config.Tunables
	prices := make(map[GoodID]Price, len(w.needs.all))
	for _, nd := range w.needs.all {
		price := w.virtualPrice(settlement, nd.Good)
		target := pop.desiredEMA(nd.Good).Value * t.BufferTicks
		ratio := 1.0
		if target > 0 {
			ratio = clampFloat(AvailableGood(pop.Stocks, nd.Good)/target, stockBiasRatioMin, stockBiasRatioMax)
		}
		prices[nd.Good] = price / ratio
	}
	return prices
}

// surplusReleaseFactor maps the stock/target ratio to a [0,1] release share:
// near zero when far below target, saturating at one comfortably above it.
func surplusReleaseFactor(ratio float64) float64 {
	span := surplusReleaseRatioHigh - surplusReleaseRatioLow
	t := clampFloat((ratio-surplusReleaseRatioLow)/span, 0, 1)
	return math.Pow(t, surplusReleaseGamma)
}

// cappedActualStocks builds the effective stock each good exposes to the
// actual pass. A pop always has access to a baseline floor (the need's
// requirement or one tick of desired demand, whichever is higher); only stock
// above that floor is release-gated by the stock/target ratio.
func (w *World) cappedActualStocks(pop *Pop) map[GoodID]Quantity {
	t := w.config.Tunables
	capped := make(map[GoodID]Quantity, len(w.needs.all))
	for _, nd := range w.needs.all {
		stock := AvailableGood(pop.Stocks, nd.Good)
		if stock <= 0 {
			continue
		}
		desiredTick := pop.desiredEMA(nd.Good).Value
		if desiredTick < 0 {
			desiredTick = 0
		}
		target := desiredTick * t.BufferTicks

		norm := 1.0
		if target > 0 {
			norm = clampFloat(stock/target, 0, 10)
		}

		floor := maxFloat(nd.Requirement, desiredTick)
		floor = clampFloat(floor, 0, stock)

		cap := stock
		if stock > floor {
			cap = floor + surplusReleaseFactor(norm)*(stock-floor)
		}
		capped[nd.Good] = clampFloat(cap, 0, stock)
	}
	return capped
}

// SmoothDesiredConsumption blends the discovery pass's output into each
// good's desired_consumption_ema using the fixed 0.8/0.2 coefficients.
func (w *World) SmoothDesiredConsumption(pop *Pop, discovered map[GoodID]Quantity) {
	t := w.config.Tunables
	for _, nd := range w.needs.all {
		ema := pop.desiredEMA(nd.Good)
		ema.Blend(discovered[nd.Good], t.DesiredEMAOld, t.DesiredEMANew)
	}
}

// virtualPrice returns the settlement's price EMA for a good, falling back to
// the configured default grain price (or 1.0) when the market has no history
// yet, so a cold-start settlement doesn't divide by zero.
func (w *World) virtualPrice(settlement *Settlement, good GoodID) Price {
	if settlement == nil {
		return w.config.Tunables.DefaultGrainPrice
	}
	if m, ok := settlement.Market[good]; ok && m.PriceEMA.Value > 0 {
		return m.PriceEMA.Value
	}
	return w.config.Tunables.DefaultGrainPrice
}
