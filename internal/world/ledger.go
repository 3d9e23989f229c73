package world

// ledger.go implements the stock and currency mutation primitives every
// other phase builds on. Every mutation here is phase-local — a phase drains
// its own transfers before the next phase reads them — and every removal
// floors at zero rather than going negative, so OrderInfeasible is always a
// caller-side trim rather than a ledger panic.

// AddGood credits qty of good to a good→quantity stock map, creating the
// entry if absent. Negative qty is a no-op.
func AddGood(stock map[GoodID]Quantity, good GoodID, qty Quantity) {
	if stock == nil || qty <= 0 {
		return
	}
	stock[good] += qty
}

// RemoveGood debits qty of good from stock, failing (returning false,
// leaving stock untouched) if the balance would go negative.
func RemoveGood(stock map[GoodID]Quantity, good GoodID, qty Quantity) bool {
	if stock == nil || qty < 0 {
		return false
	}
	if qty == 0 {
		return true
	}
	have := stock[good]
	if have < qty {
		return false
	}
	stock[good] = have - qty
	return true
}

// AvailableGood reports the on-hand quantity of good, treating an absent
// entry as zero.
func AvailableGood(stock map[GoodID]Quantity, good GoodID) Quantity {
	if stock == nil {
		return 0
	}
	return stock[good]
}

// CreditCurrency adds delta to a currency balance. Negative delta is rejected
// (use DebitCurrency) so call sites can't accidentally underflow the floor.
func CreditCurrency(balance *Currency, delta Currency) {
	if balance == nil || delta <= 0 {
		return
	}
	*balance += delta
}

// DebitCurrency subtracts delta from a currency balance, failing if the
// balance would drop below zero (balances never go negative).
func DebitCurrency(balance *Currency, delta Currency) bool {
	if balance == nil || delta < 0 {
		return false
	}
	if *balance < delta {
		return false
	}
	*balance -= delta
	return true
}

// TransferGood moves qty of good from one stock map to another atomically:
// either both sides apply or neither does.
func TransferGood(from, to map[GoodID]Quantity, good GoodID, qty Quantity) bool {
	if !RemoveGood(from, good, qty) {
		return false
	}
	AddGood(to, good, qty)
	return true
}

// SettleTrade applies a cleared buy/sell pair: the buyer's currency is
// debited and stock credited, the seller's stock is debited and currency
// credited. It fails atomically if either leg is infeasible.
func SettleTrade(buyerCurrency *Currency, buyerStock map[GoodID]Quantity, sellerCurrency *Currency, sellerStock map[GoodID]Quantity, good GoodID, qty Quantity, price Price) bool {
	cost := qty * price
	if !DebitCurrency(buyerCurrency, cost) {
		return false
	}
	if !RemoveGood(sellerStock, good, qty) {
		CreditCurrency(buyerCurrency, cost)
		return false
	}
	AddGood(buyerStock, good, qty)
	CreditCurrency(sellerCurrency, cost)
	return true
}
