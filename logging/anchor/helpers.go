package anchor

import (
	"context"

	"manifestsim/logging"
)

const (
	// EventOutsideImport is emitted when an outside-ask tier fills against local buyers or stock shortfall.
	EventOutsideImport logging.EventType = "anchor.outside_import"
	// EventOutsideExport is emitted when an outside-bid tier absorbs local excess supply.
	EventOutsideExport logging.EventType = "anchor.outside_export"
)

// OutsideFlowPayload describes a single outside-ladder fill.
type OutsideFlowPayload struct {
	Good     string  `json:"good"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Value    float64 `json:"value"`
}

// OutsideImport publishes an outside-import fill event.
func OutsideImport(ctx context.Context, pub logging.Publisher, tick uint64, settlement logging.EntityRef, payload OutsideFlowPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventOutsideImport,
		Tick:     tick,
		Actor:    settlement,
		Severity: logging.SeverityInfo,
		Category: "anchor",
		Payload:  payload,
		Extra:    extra,
	})
}

// OutsideExport publishes an outside-export fill event.
func OutsideExport(ctx context.Context, pub logging.Publisher, tick uint64, settlement logging.EntityRef, payload OutsideFlowPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventOutsideExport,
		Tick:     tick,
		Actor:    settlement,
		Severity: logging.SeverityInfo,
		Category: "anchor",
		Payload:  payload,
		Extra:    extra,
	})
}
