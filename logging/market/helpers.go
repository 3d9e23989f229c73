package market

import (
	"context"

	"manifestsim/logging"
)

const (
	// EventTradeExecuted is emitted whenever a call auction clears volume for a good.
	EventTradeExecuted logging.EventType = "market.trade_executed"
	// EventMarketNonConverged is emitted when the cross-good reconciliation loop
	// hits its iteration cap and the last feasible allocation is accepted.
	EventMarketNonConverged logging.EventType = "market.non_converged"
)

// TradeExecutedPayload describes a single cleared good at a settlement.
type TradeExecutedPayload struct {
	Good            string  `json:"good"`
	ClearingPrice   float64 `json:"clearingPrice"`
	Volume          float64 `json:"volume"`
	BuyOrders       int     `json:"buyOrders"`
	SellOrders      int     `json:"sellOrders"`
	PriceEMA        float64 `json:"priceEma"`
	OutsideVolume   float64 `json:"outsideVolume,omitempty"`
}

// TradeExecuted publishes a cleared-volume event for a settlement-good.
func TradeExecuted(ctx context.Context, pub logging.Publisher, tick uint64, settlement logging.EntityRef, payload TradeExecutedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTradeExecuted,
		Tick:     tick,
		Actor:    settlement,
		Severity: logging.SeverityInfo,
		Category: "market",
		Payload:  payload,
		Extra:    extra,
	})
}

// MarketNonConvergedPayload captures the state of the reconciliation loop when
// it was aborted at MAX_CLEAR_ITER.
type MarketNonConvergedPayload struct {
	Good       string `json:"good"`
	Iterations int    `json:"iterations"`
	Reason     string `json:"reason,omitempty"`
}

// MarketNonConverged publishes a soft-failure event for an unresolved clearing loop.
func MarketNonConverged(ctx context.Context, pub logging.Publisher, tick uint64, settlement logging.EntityRef, payload MarketNonConvergedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventMarketNonConverged,
		Tick:     tick,
		Actor:    settlement,
		Severity: logging.SeverityWarn,
		Category: "market",
		Payload:  payload,
		Extra:    extra,
	})
}
