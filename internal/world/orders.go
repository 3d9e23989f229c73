package world

// orders.go translates stock-vs-target gaps into ladders of
// bid/ask orders that feed the call auction. A ladder is a fixed sweep
// of price points around the settlement's price EMA; quantity per tier shapes
// a crude demand/supply curve without solving one analytically.

// GeneratePopOrders emits the buy or sell ladder for one pop across every
// good it has a desired-consumption signal for, in ascending GoodID order so
// the resulting order slice is deterministic.
func (w *World) GeneratePopOrders(pop *Pop, settlement *Settlement) []Order {
	var orders []Order
	t := w.config.Tunables

	goods := make([]GoodID, 0, len(pop.DesiredConsumptionEMA))
	for g := range pop.DesiredConsumptionEMA {
		goods = append(goods, g)
	}
	sortGoodIDs(goods)

	for _, good := range goods {
		ema := pop.DesiredConsumptionEMA[good]
		if ema == nil {
			continue
		}
		target := ema.Value * t.BufferTicks
		stock := AvailableGood(pop.Stocks, good)
		price := w.virtualPrice(settlement, good)
		utility := w.needUtility(good, stock)

		switch {
		case stock < target:
			shortfall := target - stock
			orders = append(orders, w.buildBuyLadder(pop, good, shortfall, price, utility)...)
		case stock > target:
			excess := stock - target
			orders = append(orders, w.buildSellLadder(string(pop.ID), AgentKindPop, good, excess, price, utility, stock)...)
		}
	}
	return orders
}

// needUtility reports the marginal utility of the good's associated need at
// the pop's current stock ratio, used only to rank orders during cross-good
// budget reconciliation. Goods with no associated need default to 1.0,
// keeping non-subsistence trade goods in the priority ordering.
func (w *World) needUtility(good GoodID, stock Quantity) float64 {
	nd, ok := w.needs.byGood[good]
	if !ok || nd.Requirement <= 0 {
		return 1.0
	}
	return MarginalUtility(Satisfaction(stock, nd.Requirement))
}

func (w *World) buildBuyLadder(pop *Pop, good GoodID, shortfall Quantity, price Price, utility float64) []Order {
	t := w.config.Tunables
	n := t.LadderPoints
	orders := make([]Order, 0, n)
	for i := 0; i < n; i++ {
		normP := ladderNorm(i, n)
		limit := price * (t.LadderLowMult + normP*(t.LadderHighMult-t.LadderLowMult))
		qty := shortfall * (0.3 + 0.7*(1-normP))
		qty = clampFloat(qty, 0, shortfall)
		if qty <= t.Epsilon {
			continue
		}
		orders = append(orders, Order{
			Side:       OrderSideBuy,
			AgentKind:  AgentKindPop,
			AgentID:    string(pop.ID),
			Good:       good,
			Quantity:   qty,
			LimitPrice: limit,
			Utility:    utility,
			BudgetCap:  pop.Currency,
		})
	}
	return orders
}

func (w *World) buildSellLadder(agentID string, kind AgentKind, good GoodID, excess Quantity, price Price, utility float64, inventory Quantity) []Order {
	t := w.config.Tunables
	n := t.LadderPoints
	orders := make([]Order, 0, n)
	for i := 0; i < n; i++ {
		normP := ladderNorm(i, n)
		limit := price * (t.LadderLowMult + normP*(t.LadderHighMult-t.LadderLowMult))
		qty := excess * (0.3 + 0.7*normP)
		qty = clampFloat(qty, 0, excess)
		if qty <= t.Epsilon {
			continue
		}
		orders = append(orders, Order{
			Side:         OrderSideSell,
			AgentKind:    kind,
			AgentID:      agentID,
			Good:         good,
			Quantity:     qty,
			LimitPrice:   limit,
			Utility:      utility,
			InventoryCap: inventory,
		})
	}
	return orders
}

// ladderNorm returns the normalized position of tier i in [0, 1] across n
// points; n == 1 collapses to the low end of the sweep.
func ladderNorm(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// GenerateMerchantSellOrders emits an org's sell ladder for its warehouse
// stock at a settlement, sized against a production-EMA-derived target
// (BUFFER_TICKS of the settlement's facilities' combined output) rather than
// a consumption signal. Merchants never emit buy orders in this path.
func (w *World) GenerateMerchantSellOrders(org *Org, settlement *Settlement) []Order {
	var orders []Order
	t := w.config.Tunables
	stock := org.stockAt(settlement.ID)

	goods := make([]GoodID, 0, len(stock))
	for g := range stock {
		goods = append(goods, g)
	}
	sortGoodIDs(goods)

	for _, good := range goods {
		onHand := stock[good]
		if onHand <= t.Epsilon {
			continue
		}
		target := w.facilityOutputEMA(settlement.ID, good) * t.BufferTicks
		if onHand <= target {
			continue
		}
		excess := onHand - target
		price := w.virtualPrice(settlement, good)
		orders = append(orders, w.buildSellLadder(string(org.ID), AgentKindOrg, good, excess, price, 1.0, onHand)...)
	}
	return orders
}

// facilityOutputEMA sums production EMA across every facility at settlement
// producing the given good, the target the merchant sell ladder is sized against.
func (w *World) facilityOutputEMA(settlement SettlementID, good GoodID) float64 {
	total := 0.0
	for _, f := range w.facilitiesAt(settlement) {
		recipe, ok := w.recipes[f.Recipe]
		if !ok || recipe.Output != good {
			continue
		}
		total += f.ProductionEMA.Value
	}
	return total
}

func sortGoodIDs(ids []GoodID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
