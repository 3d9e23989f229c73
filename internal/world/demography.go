package world

import (
	"context"
	"fmt"
	"math"

	"manifestsim/logging/lifecycle"
)

// demography.go implements stochastic mortality and growth driven by
// the pop's food need satisfaction this tick. Every pop rolls death first,
// then (if it survived) growth, in ascending pop-ID order, reading the
// shared world RNG so the sequence is reproducible given a fixed seed.

// DeathProbability implements the mortality curve: zero above the food
// floor, then quadratic in the shortfall, clamped at 0.99.
func DeathProbability(foodSatisfaction float64, t Tunables) float64 {
	if foodSatisfaction >= t.MortalityFoodFloor {
		return 0
	}
	shortfall := t.MortalityFoodFloor - foodSatisfaction
	p := t.MortalityK * shortfall * shortfall
	return clampFloat(p, 0, 0.99)
}

// GrowthProbability implements the growth ramp: zero at or below the
// growth floor, linear up to MaxGrowth at the growth ceiling.
func GrowthProbability(foodSatisfaction float64, t Tunables) float64 {
	if foodSatisfaction <= t.GrowthFoodFloor {
		return 0
	}
	span := t.GrowthFoodCeiling - t.GrowthFoodFloor
	if span <= 0 {
		return 0
	}
	ratio := (foodSatisfaction - t.GrowthFoodFloor) / span
	return t.MaxGrowth * clampFloat(ratio, 0, 1)
}

// RunDemography applies mortality and growth across every settlement, in
// ascending settlement then pop ID order, and returns the counts for the
// end-of-tick summary event.
func (w *World) RunDemography(ctx context.Context, tick uint64) (deaths, births int) {
	t := w.config.Tunables
	for _, sid := range w.settlementIDsSorted() {
		s := w.settlements[sid]
		var dead []PopID
		var grown []PopID

		for _, pid := range w.popIDsSorted(s.Pops) {
			pop := w.pops[pid]
			satisfaction := pop.NeedSatisfaction[FoodNeed]
			pDeath := DeathProbability(satisfaction, t)
			if RollProbability(w.RNG(), pDeath) {
				dead = append(dead, pid)
				lifecycle.PopDied(ctx, w.publisher, tick, entityRef(entityKindPop, string(pid)), lifecycle.PopDiedPayload{
					FoodSatisfaction: satisfaction, DeathProbability: pDeath,
				}, nil)
				continue
			}
			pGrowth := GrowthProbability(satisfaction, t)
			if RollProbability(w.RNG(), pGrowth) {
				grown = append(grown, pid)
			}
		}

		for _, pid := range dead {
			w.removePop(pid, s)
		}
		for _, pid := range grown {
			child := w.growPop(w.pops[pid], s)
			satisfaction := w.pops[pid].NeedSatisfaction[FoodNeed]
			lifecycle.PopGrew(ctx, w.publisher, tick, entityRef(entityKindPop, string(pid)), lifecycle.PopGrewPayload{
				FoodSatisfaction: satisfaction, GrowthProbability: GrowthProbability(satisfaction, t),
				ChildID: string(child.ID), ChildCurrency: child.Currency,
			}, nil)
		}

		deaths += len(dead)
		births += len(grown)
	}
	return deaths, births
}

// removePop deletes a pop from every world and settlement index.
func (w *World) removePop(id PopID, s *Settlement) {
	pop := w.pops[id]
	if pop != nil && pop.EmployedAt != "" {
		if f, ok := w.facilities[pop.EmployedAt]; ok {
			delete(f.Workers, id)
		}
	}
	delete(s.Pops, id)
	delete(w.pops, id)
}

// growPop clones the parent's traits into a new pop at the same settlement,
// splitting currency with no minting: child gets
// floor(parent/2), parent retains the complement.
func (w *World) growPop(parent *Pop, s *Settlement) *Pop {
	w.nextPopSeq++
	childID := PopID(fmt.Sprintf("%s-child-%d", parent.ID, w.nextPopSeq))

	childCurrency := math.Floor(parent.Currency / 2)
	parent.Currency -= childCurrency

	child := newPop(childID, parent.Home)
	child.Currency = childCurrency
	child.ReservationWage = parent.ReservationWage
	for sk := range parent.Skills {
		child.Skills[sk] = true
	}

	w.AddPop(child)
	_ = s
	return child
}
