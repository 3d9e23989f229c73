package observability

// Config captures opt-in observability toggles wired by the harness.
type Config struct {
	// EnablePprofTrace records a runtime execution trace for the whole run.
	EnablePprofTrace bool
	// TracePath overrides the trace output file (default trace.out).
	TracePath string
}
