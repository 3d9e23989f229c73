package world

import (
	"context"

	"manifestsim/logging/market"
	"manifestsim/logging/simulation"
)

// tick.go implements the fixed-order tick orchestration. A tick is
// atomic externally — RunTick only commits w.tick once every phase below has
// completed, so a caller observing an error mid-phase still sees the prior
// committed state via Snapshot.

// RunTick advances the world exactly one tick: Labor -> Production ->
// Shipping -> (per settlement) Subsistence -> Consumption -> Orders ->
// Clear -> Fills -> Price EMA -> Mortality/Growth.
func (w *World) RunTick(ctx context.Context) error {
	nextTick := w.tick + 1

	w.RunLaborMarket(ctx, nextTick)
	if err := w.RunProduction(ctx, nextTick); err != nil {
		return err
	}
	w.RunShipping(ctx, nextTick)

	tradesCleared := 0
	nonConverged := 0

	for _, sid := range w.settlementIDsSorted() {
		s := w.settlements[sid]
		w.InjectSubsistence(ctx, nextTick, s)

		for _, pid := range w.popIDsSorted(s.Pops) {
			pop := w.pops[pid]
			discovered := w.DiscoveryPass(pop, s)
			w.ActualPass(pop, s)
			w.SmoothDesiredConsumption(pop, discovered)
		}

		var orders []Order
		for _, pid := range w.popIDsSorted(s.Pops) {
			orders = append(orders, w.GeneratePopOrders(w.pops[pid], s)...)
		}
		for _, oid := range w.orgIDsSorted() {
			orders = append(orders, w.GenerateMerchantSellOrders(w.orgs[oid], s)...)
		}
		orders = append(orders, w.GenerateAnchorOrders(s)...)

		result := w.ClearSettlement(orders)
		w.ApplyFills(sid, result.Fills)
		if err := w.updatePriceEMA(s, result); err != nil {
			return err
		}
		w.emitMarketEvents(ctx, nextTick, s, orders, result)
		w.EmitAnchorEvents(ctx, nextTick, s, result.Fills)

		for _, v := range result.TradedVolume {
			if v > w.config.Tunables.Epsilon {
				tradesCleared++
			}
		}
		if result.NonConverged {
			nonConverged++
		}
	}

	deaths, births := w.RunDemography(ctx, nextTick)

	w.tick = nextTick
	w.emitTickCompleted(ctx, nextTick, deaths, births, tradesCleared, nonConverged)
	return nil
}

// ApplyFills commits every matched trade to the relevant ledgers: pop and
// org currency/stock maps. The "outside" agent in an anchor fill has no
// local ledger and is left untouched — its flow is recorded only as an
// event.
func (w *World) ApplyFills(settlement SettlementID, fills []Fill) {
	for _, f := range fills {
		cost := f.Quantity * f.Price
		buyerCurrency, buyerStock := w.agentLedger(f.BuyerKind, f.BuyerID, settlement)
		sellerCurrency, sellerStock := w.agentLedger(f.SellerKind, f.SellerID, settlement)

		if buyerCurrency != nil {
			DebitCurrency(buyerCurrency, cost)
		}
		if buyerStock != nil {
			AddGood(buyerStock, f.Good, f.Quantity)
		}
		if sellerStock != nil {
			RemoveGood(sellerStock, f.Good, f.Quantity)
		}
		if sellerCurrency != nil {
			CreditCurrency(sellerCurrency, cost)
		}
	}
}

func (w *World) agentLedger(kind AgentKind, id string, settlement SettlementID) (*Currency, map[GoodID]Quantity) {
	switch kind {
	case AgentKindPop:
		pop, ok := w.pops[PopID(id)]
		if !ok {
			return nil, nil
		}
		return &pop.Currency, pop.Stocks
	case AgentKindOrg:
		org, ok := w.orgs[OrgID(id)]
		if !ok {
			return nil, nil
		}
		return &org.Currency, org.stockAt(settlement)
	default:
		return nil, nil
	}
}

// updatePriceEMA blends each traded good's clearing price into the
// settlement's price EMA, clamped to [MinPrice, MaxPrice]. A non-finite
// clearing price or EMA aborts the tick before the broken value commits.
func (w *World) updatePriceEMA(s *Settlement, result ClearResult) error {
	t := w.config.Tunables
	for good, volume := range result.TradedVolume {
		if volume <= t.Epsilon {
			continue
		}
		price := result.ClearingPrice[good]
		if err := requireFinite("market", "clearing_price", price); err != nil {
			return err
		}
		m := s.marketFor(good)
		m.PriceEMA.Blend(price, t.PriceEMAOld, t.PriceEMANew)
		m.PriceEMA.Clamp(t.MinPrice, t.MaxPrice)
		if err := requireFinite("market", "price_ema", m.PriceEMA.Value); err != nil {
			return err
		}
		m.LastTradedPrice = price
		m.LastVolume = volume
	}
	return nil
}

func (w *World) emitMarketEvents(ctx context.Context, tick uint64, s *Settlement, orders []Order, result ClearResult) {
	ref := entityRef(entityKindSettlement, string(s.ID))
	counts := make(map[GoodID][2]int) // [0]=buy, [1]=sell
	for _, o := range orders {
		c := counts[o.Good]
		if o.Side == OrderSideBuy {
			c[0]++
		} else {
			c[1]++
		}
		counts[o.Good] = c
	}

	goods := make([]GoodID, 0, len(result.ClearingPrice))
	for g := range result.ClearingPrice {
		goods = append(goods, g)
	}
	sortGoodIDs(goods)

	for _, good := range goods {
		volume := result.TradedVolume[good]
		c := counts[good]
		market.TradeExecuted(ctx, w.publisher, tick, ref, market.TradeExecutedPayload{
			Good: string(good), ClearingPrice: result.ClearingPrice[good], Volume: volume,
			BuyOrders: c[0], SellOrders: c[1],
			PriceEMA: s.marketFor(good).PriceEMA.Value,
		}, nil)
	}

	if result.NonConverged {
		market.MarketNonConverged(ctx, w.publisher, tick, ref, market.MarketNonConvergedPayload{
			Good: "*", Iterations: w.config.Tunables.MaxClearIter, Reason: "cross-good budget reconciliation did not converge",
		}, nil)
	}
}

func (w *World) emitTickCompleted(ctx context.Context, tick uint64, deaths, births, tradesCleared, nonConverged int) {
	employed := 0
	totalSat := 0.0
	popCount := len(w.pops)
	for _, pid := range w.allPopIDsSorted() {
		pop := w.pops[pid]
		if pop.Employed() {
			employed++
		}
		totalSat += pop.NeedSatisfaction[FoodNeed]
	}
	meanSat := 0.0
	if popCount > 0 {
		meanSat = totalSat / float64(popCount)
	}

	simulation.TickCompleted(ctx, w.publisher, tick, simulation.TickCompletedPayload{
		Population: popCount, Employed: employed, Deaths: deaths, Births: births,
		TradesCleared: tradesCleared, NonConverged: nonConverged, MeanFoodSat: meanSat,
	}, nil)
}

func (w *World) orgIDsSorted() []OrgID {
	ids := make([]OrgID, 0, len(w.orgs))
	for id := range w.orgs {
		ids = append(ids, id)
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
