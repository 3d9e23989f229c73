package world

import (
	"context"
	"math"

	"manifestsim/logging/production"
)

// production.go implements recipe-constrained output under input and
// workforce gating, run once globally (after labor, before any settlement's
// consumption phase) over every facility.

// RunProduction runs the production phase for every facility in ascending
// facility-ID order. A non-finite output is broken numerics, not an economic
// condition: it aborts the phase and surfaces to the tick driver.
func (w *World) RunProduction(ctx context.Context, tick uint64) error {
	for _, id := range w.facilityIDsSorted() {
		if err := w.runFacilityProduction(ctx, tick, w.facilities[id]); err != nil {
			return err
		}
	}
	return nil
}

func (w *World) runFacilityProduction(ctx context.Context, tick uint64, f *Facility) error {
	if f.Recipe == "" {
		return nil
	}
	recipe, ok := w.recipes[f.Recipe]
	if !ok {
		return nil
	}
	org, ok := w.orgs[f.Owner]
	if !ok {
		return nil
	}
	t := w.config.Tunables
	stock := org.stockAt(f.Location)

	inputEff := 1.0
	maxOutputByInput := math.MaxFloat64
	for _, in := range recipe.Inputs {
		required := in.Ratio * recipe.BaseOutput
		if required <= t.Epsilon {
			continue
		}
		available := AvailableGood(stock, in.Good)
		ratio := available / required
		if ratio < inputEff {
			inputEff = ratio
		}
		allowed := available / in.Ratio
		if allowed < maxOutputByInput {
			maxOutputByInput = allowed
		}
	}
	inputEff = clampFloat(inputEff, 0, 1)

	workforceEff := w.workforceEfficiency(f, recipe)

	actualOutput := recipe.BaseOutput * math.Min(inputEff, workforceEff) * f.Efficiency
	if actualOutput < 0 {
		actualOutput = 0
	}
	if actualOutput > maxOutputByInput {
		actualOutput = maxOutputByInput
	}
	if err := requireFinite("production", "actual_output", actualOutput); err != nil {
		return err
	}

	for _, in := range recipe.Inputs {
		consumed := in.Ratio * actualOutput
		RemoveGood(stock, in.Good, consumed)
	}
	if actualOutput > 0 {
		AddGood(stock, recipe.Output, actualOutput)
	}

	// No dedicated production-EMA coefficients are specified; the 0.7/0.3
	// price-EMA blend is reused since both smooth a per-tick flow signal.
	f.ProductionEMA.Blend(actualOutput, t.PriceEMAOld, t.PriceEMANew)

	production.ProductionRan(ctx, w.publisher, tick, entityRef(entityKindFacility, string(f.ID)), production.ProductionRanPayload{
		Recipe: string(f.Recipe), InputEfficiency: inputEff, WorkforceEfficiency: workforceEff, ActualOutput: actualOutput,
	}, nil)
	return nil
}

func (w *World) workforceEfficiency(f *Facility, recipe Recipe) float64 {
	if recipe.OptimalWorkforce <= 0 {
		return 0
	}
	workers := f.CurrentWorkers()
	optimal := float64(recipe.OptimalWorkforce)
	if workers <= recipe.OptimalWorkforce {
		return float64(workers) / optimal
	}
	excess := float64(workers-recipe.OptimalWorkforce) / optimal
	return math.Exp(-w.config.Tunables.ProductionTaper * excess)
}
