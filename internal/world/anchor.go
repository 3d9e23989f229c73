package world

import (
	"context"

	"manifestsim/logging/anchor"
)

// anchor.go implements per-settlement outside import/export ladders
// anchored to a world reference price. Port-gating is aspirational;
// any settlement carrying an AnchorConfig participates today.

// outsideBudgetCap stands in for the outside economy's effectively unlimited
// currency; only the per-tier quantity depth constrains its export bids.
const outsideBudgetCap = 1e18

// GenerateAnchorOrders emits the outside import (ask) and export (bid)
// ladders for a settlement's anchor configuration, or nil if none is set.
func (w *World) GenerateAnchorOrders(s *Settlement) []Order {
	if s.Anchor == nil {
		return nil
	}
	cfg := *s.Anchor
	t := w.config.Tunables

	tierCount := cfg.TierCount
	if tierCount <= 0 {
		tierCount = t.AnchorTierCount
	}
	tierStepBPS := cfg.TierStepBPS
	if tierStepBPS <= 0 {
		tierStepBPS = t.AnchorTierStepBPS
	}
	depthPerPop := cfg.DepthPerPop
	if depthPerPop <= 0 {
		depthPerPop = t.AnchorDepthPerPop
	}

	totalDepth := depthPerPop * float64(len(s.Pops))
	if totalDepth <= 0 || tierCount <= 0 {
		return nil
	}
	qtyPerTier := totalDepth / float64(tierCount)

	var orders []Order
	for i := 0; i < tierCount; i++ {
		stepFrac := tierStepBPS / 10000.0 * float64(i+1)
		if cfg.SpreadBPS > 0 {
			maxFrac := cfg.SpreadBPS / 10000.0
			if stepFrac > maxFrac {
				stepFrac = maxFrac
			}
		}
		importPrice := cfg.WorldPrice * (1 + stepFrac)
		exportPrice := cfg.WorldPrice * (1 - stepFrac)
		if exportPrice < 0 {
			exportPrice = 0
		}

		orders = append(orders, Order{
			Side: OrderSideSell, AgentKind: AgentKindOutside, AgentID: "outside",
			Good: cfg.Good, Quantity: qtyPerTier, LimitPrice: importPrice,
			Utility: 1, InventoryCap: qtyPerTier,
		})
		orders = append(orders, Order{
			Side: OrderSideBuy, AgentKind: AgentKindOutside, AgentID: "outside",
			Good: cfg.Good, Quantity: qtyPerTier, LimitPrice: exportPrice,
			Utility: 1, BudgetCap: outsideBudgetCap,
		})
	}
	return orders
}

// EmitAnchorEvents scans a settlement's cleared fills for outside
// participation and publishes OutsideImport/OutsideExport events.
func (w *World) EmitAnchorEvents(ctx context.Context, tick uint64, s *Settlement, fills []Fill) {
	ref := entityRef(entityKindSettlement, string(s.ID))
	for _, f := range fills {
		switch {
		case f.SellerKind == AgentKindOutside:
			anchor.OutsideImport(ctx, w.publisher, tick, ref, anchor.OutsideFlowPayload{
				Good: string(f.Good), Quantity: f.Quantity, Price: f.Price, Value: f.Quantity * f.Price,
			}, nil)
		case f.BuyerKind == AgentKindOutside:
			anchor.OutsideExport(ctx, w.publisher, tick, ref, anchor.OutsideFlowPayload{
				Good: string(f.Good), Quantity: f.Quantity, Price: f.Price, Value: f.Quantity * f.Price,
			}, nil)
		}
	}
}
