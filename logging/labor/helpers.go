package labor

import (
	"context"

	"manifestsim/logging"
)

const (
	// EventLaborAssigned is emitted when a pop is matched to a facility at the clearing wage.
	EventLaborAssigned logging.EventType = "labor.assigned"
	// EventWagePaid is emitted when a facility's wage bill is debited and credited to workers.
	EventWagePaid logging.EventType = "labor.wage_paid"
)

// LaborAssignedPayload describes a single skill-market match.
type LaborAssignedPayload struct {
	Skill        string  `json:"skill"`
	FacilityID   string  `json:"facilityId"`
	ClearingWage float64 `json:"clearingWage"`
}

// LaborAssigned publishes a match between a pop and a facility.
func LaborAssigned(ctx context.Context, pub logging.Publisher, tick uint64, pop logging.EntityRef, payload LaborAssignedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLaborAssigned,
		Tick:     tick,
		Actor:    pop,
		Severity: logging.SeverityInfo,
		Category: "labor",
		Payload:  payload,
		Extra:    extra,
	})
}

// WagePaidPayload describes a facility's wage bill for the tick.
type WagePaidPayload struct {
	Skill   string  `json:"skill"`
	Workers int     `json:"workers"`
	Wage    float64 `json:"wage"`
	Total   float64 `json:"total"`
}

// WagePaid publishes a facility wage disbursement event.
func WagePaid(ctx context.Context, pub logging.Publisher, tick uint64, facility logging.EntityRef, payload WagePaidPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWagePaid,
		Tick:     tick,
		Actor:    facility,
		Severity: logging.SeverityInfo,
		Category: "labor",
		Payload:  payload,
		Extra:    extra,
	})
}
