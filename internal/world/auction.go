package world

import "sort"

// auction.go implements the per-settlement multi-good call auction with
// iterative cross-good budget reconciliation.

// Fill is one matched buy/sell pair produced by clearing.
type Fill struct {
	Good       GoodID
	Quantity   Quantity
	Price      Price
	BuyerID    string
	BuyerKind  AgentKind
	SellerID   string
	SellerKind AgentKind
}

// ClearResult is the outcome of clearing every good in a settlement for one
// tick: the fills to apply, the clearing price and traded volume per good,
// and whether the cross-good reconciliation loop hit its iteration cap.
type ClearResult struct {
	Fills         []Fill
	ClearingPrice map[GoodID]Price
	TradedVolume  map[GoodID]Quantity
	NonConverged  bool
}

// ClearSettlement runs the iterative call auction across every good with
// orders present, reconciling buyers whose tentative cross-good spend
// exceeds their currency by trimming their lowest-priority bid and
// re-clearing, up to MaxClearIter rounds.
func (w *World) ClearSettlement(orders []Order) ClearResult {
	t := w.config.Tunables
	byGood := groupOrdersByGood(orders)
	goods := sortedGoodKeys(byGood)
	budgets := collectBuyerBudgets(orders)

	result := ClearResult{
		ClearingPrice: make(map[GoodID]Price, len(goods)),
		TradedVolume:  make(map[GoodID]Quantity, len(goods)),
		NonConverged:  true,
	}

	maxIter := t.MaxClearIter
	if maxIter <= 0 {
		maxIter = 1
	}

	for iter := 0; iter < maxIter; iter++ {
		perGood := make(map[GoodID]singleGoodClear, len(goods))
		for _, good := range goods {
			perGood[good] = w.clearSingleGood(byGood[good])
		}

		spend := make(map[string]Currency)
		for _, good := range goods {
			for _, f := range perGood[good].fills {
				spend[f.BuyerID] += f.Quantity * f.Price
			}
		}

		overBudget := false
		agentIDs := sortedBudgetKeys(budgets)
		for _, agent := range agentIDs {
			if spend[agent] > budgets[agent]+t.Epsilon {
				overBudget = true
				trimLowestPriorityBid(byGood, goods, agent)
			}
		}

		result.Fills = nil
		for _, good := range goods {
			r := perGood[good]
			result.Fills = append(result.Fills, r.fills...)
			result.ClearingPrice[good] = r.price
			result.TradedVolume[good] = r.volume
		}

		if !overBudget {
			result.NonConverged = false
			break
		}
	}

	return result
}

type singleGoodClear struct {
	fills  []Fill
	price  Price
	volume Quantity
}

// clearSingleGood runs the single-good call auction: enumerate candidate
// clearing prices from the union of limits, pick the one maximizing matched
// volume (seller-favoring tie-break), then allocate fills at
// that price.
func (w *World) clearSingleGood(orders []Order) singleGoodClear {
	var buys, sells []Order
	for _, o := range orders {
		if o.Side == OrderSideBuy {
			buys = append(buys, o)
		} else {
			sells = append(sells, o)
		}
	}
	if len(buys) == 0 || len(sells) == 0 {
		return singleGoodClear{}
	}

	sort.SliceStable(buys, func(i, j int) bool {
		if buys[i].LimitPrice != buys[j].LimitPrice {
			return buys[i].LimitPrice > buys[j].LimitPrice
		}
		return buys[i].AgentID < buys[j].AgentID
	})
	sort.SliceStable(sells, func(i, j int) bool {
		if sells[i].LimitPrice != sells[j].LimitPrice {
			return sells[i].LimitPrice < sells[j].LimitPrice
		}
		return sells[i].AgentID < sells[j].AgentID
	})

	candidates := candidatePrices(buys, sells)

	bestPrice := 0.0
	bestVolume := -1.0
	for _, p := range candidates {
		_, vol := w.walk(buys, sells, p, false)
		if vol >= bestVolume {
			bestVolume = vol
			bestPrice = p
		}
	}
	if bestVolume <= w.config.Tunables.Epsilon {
		return singleGoodClear{}
	}
	fills, vol := w.walk(buys, sells, bestPrice, true)
	return singleGoodClear{fills: fills, price: bestPrice, volume: vol}
}

// walk performs the greedy two-pointer match at a fixed price, respecting
// each buyer's remaining budget and each seller's remaining inventory.
// collect controls whether Fill records are materialized (the candidate-price
// search only needs the volume).
func (w *World) walk(buys, sells []Order, price Price, collect bool) ([]Fill, Quantity) {
	eps := w.config.Tunables.Epsilon
	spent := make(map[string]Currency)
	sold := make(map[string]Quantity)
	buyRemaining := make([]Quantity, len(buys))
	for i, o := range buys {
		buyRemaining[i] = o.Quantity
	}
	sellRemaining := make([]Quantity, len(sells))
	for i, o := range sells {
		sellRemaining[i] = o.Quantity
	}

	var fills []Fill
	var volume Quantity
	bi, si := 0, 0
	for bi < len(buys) && si < len(sells) {
		b := buys[bi]
		if b.LimitPrice < price-eps {
			break
		}
		s := sells[si]
		if s.LimitPrice > price+eps {
			break
		}

		buyBudgetLeft := b.BudgetCap - spent[b.AgentID]
		buyAvailByBudget := Quantity(0)
		if price > eps {
			buyAvailByBudget = buyBudgetLeft / price
		}
		buyAvail := minQty(buyRemaining[bi], buyAvailByBudget)

		sellInvLeft := s.InventoryCap - sold[s.AgentID]
		sellAvail := minQty(sellRemaining[si], sellInvLeft)

		qty := minQty(buyAvail, sellAvail)
		if qty > eps {
			volume += qty
			spent[b.AgentID] += qty * price
			sold[s.AgentID] += qty
			buyRemaining[bi] -= qty
			sellRemaining[si] -= qty
			if collect {
				fills = append(fills, Fill{
					Good: b.Good, Quantity: qty, Price: price,
					BuyerID: b.AgentID, BuyerKind: b.AgentKind,
					SellerID: s.AgentID, SellerKind: s.AgentKind,
				})
			}
		}

		if buyRemaining[bi] <= eps || b.BudgetCap-spent[b.AgentID] <= eps*price {
			bi++
		}
		if sellRemaining[si] <= eps || s.InventoryCap-sold[s.AgentID] <= eps {
			si++
		}
	}
	return fills, volume
}

func minQty(a, b Quantity) Quantity {
	if a < b {
		return a
	}
	return b
}

func groupOrdersByGood(orders []Order) map[GoodID][]Order {
	byGood := make(map[GoodID][]Order)
	for _, o := range orders {
		byGood[o.Good] = append(byGood[o.Good], o)
	}
	return byGood
}

func sortedGoodKeys(byGood map[GoodID][]Order) []GoodID {
	ids := make([]GoodID, 0, len(byGood))
	for g := range byGood {
		ids = append(ids, g)
	}
	sortGoodIDs(ids)
	return ids
}

func sortedBudgetKeys(budgets map[string]Currency) []string {
	ids := make([]string, 0, len(budgets))
	for a := range budgets {
		ids = append(ids, a)
	}
	sort.Strings(ids)
	return ids
}

func collectBuyerBudgets(orders []Order) map[string]Currency {
	budgets := make(map[string]Currency)
	for _, o := range orders {
		if o.Side != OrderSideBuy {
			continue
		}
		if existing, ok := budgets[o.AgentID]; !ok || o.BudgetCap > existing {
			budgets[o.AgentID] = o.BudgetCap
		}
	}
	return budgets
}

func candidatePrices(buys, sells []Order) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, o := range buys {
		if _, ok := seen[o.LimitPrice]; !ok {
			seen[o.LimitPrice] = struct{}{}
			out = append(out, o.LimitPrice)
		}
	}
	for _, o := range sells {
		if _, ok := seen[o.LimitPrice]; !ok {
			seen[o.LimitPrice] = struct{}{}
			out = append(out, o.LimitPrice)
		}
	}
	sort.Float64s(out)
	return out
}

// trimLowestPriorityBid removes the offending buyer's lowest-priority
// (limit·utility, ascending) buy order across every good, mutating byGood in
// place so the next reconciliation round re-clears with it gone.
func trimLowestPriorityBid(byGood map[GoodID][]Order, goods []GoodID, agent string) {
	worstGood := GoodID("")
	worstIdx := -1
	worstScore := 0.0
	found := false

	for _, good := range goods {
		for i, o := range byGood[good] {
			if o.Side != OrderSideBuy || o.AgentID != agent {
				continue
			}
			score := o.LimitPrice * o.Utility
			if !found || score < worstScore {
				found = true
				worstScore = score
				worstGood = good
				worstIdx = i
			}
		}
	}
	if !found {
		return
	}
	orders := byGood[worstGood]
	byGood[worstGood] = append(orders[:worstIdx], orders[worstIdx+1:]...)
}
