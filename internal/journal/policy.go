package journal

import "sync"

// The journal persists two streams with very different loss tolerance. A
// tick-summary row is singular — every downstream join keys on (run, tick) —
// so a single dropped row is surfaced immediately. Event batches only thin
// the replay stream, so their drops are tolerated up to a rate threshold or
// a consecutive-drop burst. Each surfaced event signal doubles the rate
// threshold, and clean consumes decay it back, so a sustained stall reports
// a handful of escalating signals instead of one per tick.

// Stream names used by the journal writer.
const (
	StreamTicks  = "ticks"
	StreamEvents = "events"
)

// DropClass grades why a signal was raised.
type DropClass int

const (
	// DropTickRow: a per-tick summary row was lost. Always surfaced.
	DropTickRow DropClass = iota + 1
	// DropEventRate: event-batch drops crossed the rate threshold.
	DropEventRate
	// DropEventBurst: too many event batches dropped back to back.
	DropEventBurst
)

func (c DropClass) String() string {
	switch c {
	case DropTickRow:
		return "tick-row"
	case DropEventRate:
		return "event-rate"
	case DropEventBurst:
		return "event-burst"
	default:
		return "unknown"
	}
}

// DropSignal is one graded loss report.
type DropSignal struct {
	Class   DropClass
	Stream  string
	Dropped uint64
	Writes  uint64
}

const (
	// baseEventRatePerTenThousand is the starting event-drop rate threshold
	// (50 = 0.5% of attempted writes).
	baseEventRatePerTenThousand = 50
	// eventBurstLimit raises a burst signal after this many consecutive
	// dropped event batches regardless of the overall rate.
	eventBurstLimit = 8
	// maxPendingSignals bounds the queue between Consume calls.
	maxPendingSignals = 4
)

type streamStats struct {
	writes           uint64
	dropped          uint64
	consecutiveDrops uint64
}

// Policy grades dropped journal writes per stream and queues signals for the
// harness to surface.
type Policy struct {
	mu      sync.Mutex
	streams map[string]*streamStats
	pending []DropSignal

	// eventRateThreshold escalates (doubles) each time a rate signal fires
	// and decays on a clean Consume, bounding log noise under sustained loss.
	eventRateThreshold uint64
}

func NewPolicy() *Policy {
	return &Policy{
		streams:            make(map[string]*streamStats),
		eventRateThreshold: baseEventRatePerTenThousand,
	}
}

func (p *Policy) stats(stream string) *streamStats {
	s, ok := p.streams[stream]
	if !ok {
		s = &streamStats{}
		p.streams[stream] = s
	}
	return s
}

// NoteWrite counts a successfully enqueued write and breaks any running
// drop streak for the stream.
func (p *Policy) NoteWrite(stream string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats(stream)
	s.writes++
	s.consecutiveDrops = 0
}

// NoteDrop counts a dropped write and raises whatever signal the stream's
// grading calls for.
func (p *Policy) NoteDrop(stream string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats(stream)
	s.dropped++
	s.consecutiveDrops++

	switch stream {
	case StreamTicks:
		p.raise(DropSignal{Class: DropTickRow, Stream: stream, Dropped: s.dropped, Writes: s.writes})
	default:
		if s.consecutiveDrops >= eventBurstLimit {
			p.raise(DropSignal{Class: DropEventBurst, Stream: stream, Dropped: s.dropped, Writes: s.writes})
			s.consecutiveDrops = 0
			return
		}
		if s.writes == 0 {
			return
		}
		if s.dropped*10000/s.writes >= p.eventRateThreshold {
			p.raise(DropSignal{Class: DropEventRate, Stream: stream, Dropped: s.dropped, Writes: s.writes})
			p.eventRateThreshold *= 2
		}
	}
}

func (p *Policy) raise(signal DropSignal) {
	if len(p.pending) >= maxPendingSignals {
		return
	}
	p.pending = append(p.pending, signal)
}

// Consume returns and clears the queued signals. A clean consume (nothing
// pending) decays the escalated event-rate threshold halfway back toward its
// base.
func (p *Policy) Consume() ([]DropSignal, bool) {
	if p == nil {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		if p.eventRateThreshold > baseEventRatePerTenThousand {
			p.eventRateThreshold /= 2
			if p.eventRateThreshold < baseEventRatePerTenThousand {
				p.eventRateThreshold = baseEventRatePerTenThousand
			}
		}
		return nil, false
	}
	signals := p.pending
	p.pending = nil
	return signals, true
}
