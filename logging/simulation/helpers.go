package simulation

import (
	"context"

	"manifestsim/logging"
)

// EventTickCompleted is emitted once per tick after all phases have committed,
// summarizing aggregate load for dashboards that do not want to replay the
// full per-phase event stream.
const EventTickCompleted logging.EventType = "simulation.tick_completed"

// TickCompletedPayload summarizes a single committed tick.
type TickCompletedPayload struct {
	Population     int     `json:"population"`
	Employed       int     `json:"employed"`
	Deaths         int     `json:"deaths"`
	Births         int     `json:"births"`
	TradesCleared  int     `json:"tradesCleared"`
	NonConverged   int     `json:"nonConverged"`
	MeanFoodSat    float64 `json:"meanFoodSatisfaction"`
}

// TickCompleted publishes the end-of-tick summary.
func TickCompleted(ctx context.Context, pub logging.Publisher, tick uint64, payload TickCompletedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTickCompleted,
		Tick:     tick,
		Severity: logging.SeverityInfo,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	})
}
