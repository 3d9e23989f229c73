package world

import (
	"context"
	"testing"
)

func TestGenerateAnchorOrdersNilWithoutConfig(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	if got := w.GenerateAnchorOrders(s); got != nil {
		t.Fatalf("expected nil orders without an anchor config, got %v", got)
	}
}

func TestGenerateAnchorOrdersEmitsImportAndExportLadders(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	w.addTestPop("pop-1", 0)
	s.Anchor = &AnchorConfig{Good: "grain", WorldPrice: 2.0, TierCount: 3, TierStepBPS: 100, DepthPerPop: 10}

	orders := w.GenerateAnchorOrders(s)
	if len(orders) != 6 {
		t.Fatalf("expected 3 tiers x 2 sides = 6 orders, got %d", len(orders))
	}
	var sawImport, sawExport bool
	for _, o := range orders {
		if o.AgentKind != AgentKindOutside {
			t.Fatalf("expected outside agent kind, got %v", o.AgentKind)
		}
		if o.Side == OrderSideSell {
			sawImport = true
			if o.LimitPrice <= 2.0 {
				t.Fatalf("expected import (sell) price above world price, got %v", o.LimitPrice)
			}
		} else {
			sawExport = true
			if o.LimitPrice >= 2.0 {
				t.Fatalf("expected export (buy) price below world price, got %v", o.LimitPrice)
			}
		}
	}
	if !sawImport || !sawExport {
		t.Fatalf("expected both import and export ladders, import=%v export=%v", sawImport, sawExport)
	}
}

func TestGenerateAnchorOrdersRespectsSpreadCap(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	w.addTestPop("pop-1", 0)
	s.Anchor = &AnchorConfig{Good: "grain", WorldPrice: 2.0, TierCount: 5, TierStepBPS: 1000, SpreadBPS: 500, DepthPerPop: 10}

	orders := w.GenerateAnchorOrders(s)
	maxImport := 2.0 * 1.05
	for _, o := range orders {
		if o.Side == OrderSideSell && o.LimitPrice > maxImport+1e-9 {
			t.Fatalf("expected import price capped by spread at %v, got %v", maxImport, o.LimitPrice)
		}
	}
}

func TestEmitAnchorEventsDoesNotPanicOnMixedFills(t *testing.T) {
	w := newTestWorld()
	s := w.testSettlement()
	fills := []Fill{
		{Good: "grain", Quantity: 5, Price: 2, SellerKind: AgentKindOutside, BuyerKind: AgentKindPop},
		{Good: "grain", Quantity: 3, Price: 2, SellerKind: AgentKindOrg, BuyerKind: AgentKindOutside},
		{Good: "grain", Quantity: 1, Price: 2, SellerKind: AgentKindOrg, BuyerKind: AgentKindPop},
	}
	w.EmitAnchorEvents(context.Background(), 1, s, fills) // must not panic
}
