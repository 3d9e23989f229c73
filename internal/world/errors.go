package world

import "fmt"

// errors.go defines the engine's error taxonomy. The fatal categories that
// surface as Go errors are NaNEncountered (from the tick loop) and
// ScenarioInvalid (at construction); there is no RNG-starvation error.
// InvariantViolation surfaces as an error from CheckInvariants only.
// OrderInfeasible and MarketNonConverged are absorbed in-phase and reported
// as counters/events.

// NaNEncounteredError indicates a phase produced a non-finite value, which
// signals broken numerics rather than a recoverable economic condition.
type NaNEncounteredError struct {
	Phase string
	Field string
}

func (e *NaNEncounteredError) Error() string {
	return fmt.Sprintf("world: NaN or Inf encountered in phase %q field %q", e.Phase, e.Field)
}

// ScenarioInvalidError is returned at construction time when a scenario
// descriptor fails validation; it never enters the tick loop.
type ScenarioInvalidError struct {
	Reason string
}

func (e *ScenarioInvalidError) Error() string {
	return fmt.Sprintf("world: invalid scenario: %s", e.Reason)
}

// InvariantViolationError is raised by CheckInvariants when a post-tick
// invariant fails. Callers running in debug mode should treat it as fatal;
// release callers may log and continue.
type InvariantViolationError struct {
	Invariant string
	Detail    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("world: invariant violated (%s): %s", e.Invariant, e.Detail)
}

func requireFinite(phase, field string, v float64) error {
	if v != v { // NaN
		return &NaNEncounteredError{Phase: phase, Field: field}
	}
	if v > 1e300 || v < -1e300 {
		return &NaNEncounteredError{Phase: phase, Field: field}
	}
	return nil
}
