package subsistence

import (
	"context"

	"manifestsim/logging"
)

// EventSubsistenceInjected is emitted when ranked in-kind yields are added to a pop's stocks.
const EventSubsistenceInjected logging.EventType = "subsistence.injected"

// SubsistenceInjectedPayload describes a single pop's in-kind yield for the tick.
type SubsistenceInjectedPayload struct {
	Good     string  `json:"good"`
	Rank     int     `json:"rank"`
	Quantity float64 `json:"quantity"`
}

// SubsistenceInjected publishes an in-kind yield event for a pop.
func SubsistenceInjected(ctx context.Context, pub logging.Publisher, tick uint64, pop logging.EntityRef, payload SubsistenceInjectedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSubsistenceInjected,
		Tick:     tick,
		Actor:    pop,
		Severity: logging.SeverityInfo,
		Category: "subsistence",
		Payload:  payload,
		Extra:    extra,
	})
}
