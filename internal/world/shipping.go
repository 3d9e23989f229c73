package world

import (
	"context"
	"math"

	"manifestsim/logging/shipping"
)

// shipping.go drives the ship lifecycle between production and the
// per-settlement market loop. A ship in port loads its owner's surplus
// warehouse stock and departs along a configured route; en-route ships count
// down DaysRemaining; arrivals unload into the owner's warehouse at the
// destination so the goods are sellable the same tick. The ship is the sole
// owner of its cargo while en route, and cargo never exceeds capacity.

// RunShipping advances every ship one tick, in ascending ship-ID order.
func (w *World) RunShipping(ctx context.Context, tick uint64) {
	for _, id := range w.shipIDsSorted() {
		ship := w.ships[id]
		switch ship.Status {
		case ShipEnRoute:
			w.advanceShip(ctx, tick, ship)
		case ShipInPort:
			w.tryDepartShip(ctx, tick, ship)
		}
	}
}

func (w *World) advanceShip(ctx context.Context, tick uint64, ship *Ship) {
	ship.DaysRemaining--
	if ship.DaysRemaining > 0 {
		return
	}

	ship.Status = ShipInPort
	ship.Location = ship.Destination
	ship.Destination = ""
	ship.DaysRemaining = 0

	if org, ok := w.orgs[ship.Owner]; ok {
		warehouse := org.stockAt(ship.Location)
		goods := make([]GoodID, 0, len(ship.Cargo))
		for g := range ship.Cargo {
			goods = append(goods, g)
		}
		sortGoodIDs(goods)
		for _, g := range goods {
			AddGood(warehouse, g, ship.Cargo[g])
		}
	}
	unloaded := ship.CargoTotal()
	ship.Cargo = make(map[GoodID]Quantity)

	shipping.ShipArrived(ctx, w.publisher, tick, entityRef(entityKindShip, string(ship.ID)), shipping.ShipArrivedPayload{
		At: string(ship.Location), CargoTotal: unloaded,
	}, nil)
}

// tryDepartShip loads the owner's surplus stock at the current port and
// departs along the first configured route out of it. A ship with nothing
// worth carrying stays in port rather than sailing empty.
func (w *World) tryDepartShip(ctx context.Context, tick uint64, ship *Ship) {
	route, ok := w.routeFrom(ship.Location)
	if !ok {
		return
	}
	org, ok := w.orgs[ship.Owner]
	if !ok {
		return
	}

	loaded := w.loadSurplus(ship, org)
	if loaded <= w.config.Tunables.Epsilon {
		return
	}

	t := w.config.Tunables
	days := int(math.Ceil(route.Distance / t.ShipSpeed))
	if days < 1 {
		days = 1
	}

	from := ship.Location
	ship.Status = ShipEnRoute
	ship.Destination = route.To
	ship.Location = ""
	ship.DaysRemaining = days

	shipping.ShipDeparted(ctx, w.publisher, tick, entityRef(entityKindShip, string(ship.ID)), shipping.ShipDepartedPayload{
		From: string(from), To: string(route.To), CargoTotal: loaded, DaysRemaining: days,
	}, nil)
}

// loadSurplus moves warehouse stock above the merchant's local sale target
// (the same production-EMA target the sell ladder uses) onto the ship, in
// ascending GoodID order, bounded by remaining capacity. Returns the total
// quantity loaded.
func (w *World) loadSurplus(ship *Ship, org *Org) Quantity {
	t := w.config.Tunables
	warehouse := org.stockAt(ship.Location)

	goods := make([]GoodID, 0, len(warehouse))
	for g := range warehouse {
		goods = append(goods, g)
	}
	sortGoodIDs(goods)

	if ship.Cargo == nil {
		ship.Cargo = make(map[GoodID]Quantity)
	}
	var loaded Quantity
	for _, g := range goods {
		room := ship.Capacity - ship.CargoTotal()
		if room <= t.Epsilon {
			break
		}
		target := w.facilityOutputEMA(ship.Location, g) * t.BufferTicks
		surplus := warehouse[g] - target
		if surplus <= t.Epsilon {
			continue
		}
		qty := minQty(surplus, room)
		if TransferGood(warehouse, ship.Cargo, g, qty) {
			loaded += qty
		}
	}
	return loaded
}

// routeFrom returns the first configured route departing the settlement, in
// catalog order, so route choice is deterministic across runs.
func (w *World) routeFrom(from SettlementID) (Route, bool) {
	for _, r := range w.routes {
		if r.From == from {
			return r, true
		}
	}
	return Route{}, false
}
