package sim

import (
	"context"
	"sync"

	"manifestsim/internal/scenario"
	"manifestsim/internal/world"
	"manifestsim/logging"
)

// Simulation is the external facade over the world tick engine: construct
// from a scenario, advance one tick at a time, read immutable snapshots,
// and replay the structured event stream. The world is exclusively mutated
// through AdvanceTick; observers only ever see committed post-tick state.
type Simulation struct {
	world *world.World

	mu     sync.RWMutex
	events []logging.Event
}

// Options carries the optional runtime wiring for a Simulation.
type Options struct {
	// Publisher receives every engine event in addition to the simulation's
	// own append-only log (e.g. a logging.Router fanning out to sinks).
	Publisher logging.Publisher
	// Metrics receives engine counters.
	Metrics *logging.Metrics
}

// WithScenario builds a Simulation from a validated descriptor.
func WithScenario(d *scenario.Descriptor, opts Options) (*Simulation, error) {
	s := &Simulation{}
	tee := logging.PublisherFunc(func(ctx context.Context, event logging.Event) {
		s.record(event)
		if opts.Publisher != nil {
			opts.Publisher.Publish(ctx, event)
		}
	})
	w, err := d.Build(world.Deps{Publisher: tee, Metrics: opts.Metrics})
	if err != nil {
		return nil, err
	}
	s.world = w
	return s, nil
}

// AdvanceTick advances the world exactly one tick. The event log is complete
// for the new tick by the time this returns: the engine publishes
// synchronously into the simulation's buffer.
func (s *Simulation) AdvanceTick(ctx context.Context) error {
	return s.world.RunTick(ctx)
}

// Tick reports the committed tick counter.
func (s *Simulation) Tick() uint64 { return s.world.Tick() }

// Snapshot returns an immutable copy of the committed world state.
func (s *Simulation) Snapshot() world.StateSnapshot { return s.world.Snapshot() }

// CheckInvariants validates the committed state against the engine's
// stock-flow invariants.
func (s *Simulation) CheckInvariants() error { return s.world.CheckInvariants() }

// Events returns every recorded event with Tick > sinceTick, in emission
// order. Events(0) replays the whole retained log.
func (s *Simulation) Events(sinceTick uint64) []logging.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []logging.Event
	for _, e := range s.events {
		if e.Tick > sinceTick {
			out = append(out, e)
		}
	}
	return out
}

// PruneEvents drops retained events with Tick <= beforeTick, so a harness
// that persists the stream elsewhere can bound the in-memory log.
func (s *Simulation) PruneEvents(beforeTick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	for _, e := range s.events {
		if e.Tick > beforeTick {
			kept = append(kept, e)
		}
	}
	s.events = kept
}

func (s *Simulation) record(event logging.Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}
