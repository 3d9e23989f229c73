package shipping

import (
	"context"

	"manifestsim/logging"
)

const (
	// EventShipDeparted is emitted when a ship loads cargo and leaves port.
	EventShipDeparted logging.EventType = "shipping.ship_departed"
	// EventShipArrived is emitted when a ship reaches its destination and
	// unloads into the owner's warehouse.
	EventShipArrived logging.EventType = "shipping.ship_arrived"
)

// ShipDepartedPayload describes the departure leg.
type ShipDepartedPayload struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	CargoTotal    float64 `json:"cargoTotal"`
	DaysRemaining int     `json:"daysRemaining"`
}

// ShipDeparted publishes a departure event keyed on the ship.
func ShipDeparted(ctx context.Context, pub logging.Publisher, tick uint64, ship logging.EntityRef, payload ShipDepartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShipDeparted,
		Tick:     tick,
		Actor:    ship,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryShipping,
		Payload:  payload,
		Extra:    extra,
	})
}

// ShipArrivedPayload describes the arrival and unload.
type ShipArrivedPayload struct {
	At         string  `json:"at"`
	CargoTotal float64 `json:"cargoTotal"`
}

// ShipArrived publishes an arrival event keyed on the ship.
func ShipArrived(ctx context.Context, pub logging.Publisher, tick uint64, ship logging.EntityRef, payload ShipArrivedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventShipArrived,
		Tick:     tick,
		Actor:    ship,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryShipping,
		Payload:  payload,
		Extra:    extra,
	})
}
