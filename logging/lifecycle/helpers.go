package lifecycle

import (
	"context"

	"manifestsim/logging"
)

const (
	// EventPopDied is emitted when mortality removes a pop from all world indexes.
	EventPopDied logging.EventType = "lifecycle.pop_died"
	// EventPopGrew is emitted when a pop clones into a child with half its currency.
	EventPopGrew logging.EventType = "lifecycle.pop_grew"
)

// PopDiedPayload captures the mortality draw that removed the pop.
type PopDiedPayload struct {
	FoodSatisfaction float64 `json:"foodSatisfaction"`
	DeathProbability float64 `json:"deathProbability"`
}

// PopDied publishes a mortality event.
func PopDied(ctx context.Context, pub logging.Publisher, tick uint64, pop logging.EntityRef, payload PopDiedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPopDied,
		Tick:     tick,
		Actor:    pop,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	})
}

// PopGrewPayload captures the growth draw and the new child pop.
type PopGrewPayload struct {
	FoodSatisfaction  float64 `json:"foodSatisfaction"`
	GrowthProbability float64 `json:"growthProbability"`
	ChildID           string  `json:"childId"`
	ChildCurrency     float64 `json:"childCurrency"`
}

// PopGrew publishes a growth event keyed on the parent pop.
func PopGrew(ctx context.Context, pub logging.Publisher, tick uint64, pop logging.EntityRef, payload PopGrewPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPopGrew,
		Tick:     tick,
		Actor:    pop,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	})
}
