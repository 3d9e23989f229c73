package world

// EMA is an exponentially smoothed signal blended with fixed coefficients.
// Every EMA in the engine (price, income, desired-consumption) shares this
// shape so the blend coefficients are never duplicated ad hoc.
type EMA struct {
	Value float64 `json:"value"`
}

// Blend updates the EMA as old*wOld + sample*wNew. Callers are responsible
// for only calling Blend when the update condition holds (e.g. price EMAs
// only blend on traded volume > 0).
func (e *EMA) Blend(sample, wOld, wNew float64) {
	if e == nil {
		return
	}
	e.Value = e.Value*wOld + sample*wNew
}

// Clamp restricts the EMA to [min, max], guarding against runaway prices or
// wages from a pathological tick.
func (e *EMA) Clamp(min, max float64) {
	if e == nil {
		return
	}
	if e.Value < min {
		e.Value = min
	}
	if e.Value > max {
		e.Value = max
	}
}

// safeDiv divides a by b, substituting eps for a zero-or-negative denominator
// so phases never propagate a NaN or Inf.
func safeDiv(a, b, eps float64) float64 {
	if b <= eps {
		return a / eps
	}
	return a / b
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
