package production

import (
	"context"

	"manifestsim/logging"
)

// EventProductionRan is emitted once per facility per tick after output is deposited.
const EventProductionRan logging.EventType = "production.ran"

// ProductionRanPayload captures the realized output of a production phase.
type ProductionRanPayload struct {
	Recipe             string  `json:"recipe"`
	InputEfficiency    float64 `json:"inputEfficiency"`
	WorkforceEfficiency float64 `json:"workforceEfficiency"`
	ActualOutput       float64 `json:"actualOutput"`
}

// ProductionRan publishes a production event for a facility.
func ProductionRan(ctx context.Context, pub logging.Publisher, tick uint64, facility logging.EntityRef, payload ProductionRanPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProductionRan,
		Tick:     tick,
		Actor:    facility,
		Severity: logging.SeverityInfo,
		Category: "production",
		Payload:  payload,
		Extra:    extra,
	})
}
