package world

// FoodNeed is the distinguished need name that demography keys on.
const FoodNeed = "food"

// NeedDef binds a named need to the good that satisfies it and the
// per-tick quantity that counts as full satisfaction.
type NeedDef struct {
	Name        string  `json:"name" yaml:"name"`
	Good        GoodID  `json:"good" yaml:"good"`
	Requirement Quantity `json:"requirement" yaml:"requirement"`
}

// Pop is the atomic population unit.
type Pop struct {
	ID   PopID
	Home SettlementID

	Currency Currency
	Stocks   map[GoodID]Quantity

	DesiredConsumptionEMA map[GoodID]*EMA
	NeedSatisfaction      map[string]float64

	IncomeEMA       EMA
	Skills          map[SkillID]bool
	ReservationWage Price

	EmployedAt FacilityID // "" when unemployed
}

func newPop(id PopID, home SettlementID) *Pop {
	return &Pop{
		ID:                    id,
		Home:                  home,
		Stocks:                make(map[GoodID]Quantity),
		DesiredConsumptionEMA: make(map[GoodID]*EMA),
		NeedSatisfaction:      make(map[string]float64),
		Skills:                make(map[SkillID]bool),
	}
}

// NewPop constructs an empty pop for scenario loaders; all maps are
// initialized so callers can populate them directly.
func NewPop(id PopID, home SettlementID) *Pop { return newPop(id, home) }

// Employed reports whether the pop currently holds a facility assignment.
func (p *Pop) Employed() bool {
	return p != nil && p.EmployedAt != ""
}

func (p *Pop) desiredEMA(good GoodID) *EMA {
	ema, ok := p.DesiredConsumptionEMA[good]
	if !ok {
		ema = &EMA{}
		p.DesiredConsumptionEMA[good] = ema
	}
	return ema
}

// FacilityBidState is the adaptive controller state for one facility×skill
// pair in the labor market.
type FacilityBidState struct {
	CurrentBid  Price
	LastFilled  bool
	ColdStarted bool
}

// Facility is a production asset owned by an org at a settlement.
type Facility struct {
	ID       FacilityID
	Kind     string
	Owner    OrgID
	Location SettlementID
	Recipe   RecipeID

	OptimalWorkforce int
	Efficiency       float64

	Workers  map[PopID]int
	BidState map[SkillID]*FacilityBidState

	ProductionEMA EMA
}

func newFacility(id FacilityID, owner OrgID, location SettlementID, recipe RecipeID, optimal int, efficiency float64) *Facility {
	return &Facility{
		ID:               id,
		Owner:            owner,
		Location:         location,
		Recipe:           recipe,
		OptimalWorkforce: optimal,
		Efficiency:       efficiency,
		Workers:          make(map[PopID]int),
		BidState:         make(map[SkillID]*FacilityBidState),
	}
}

// NewFacility constructs a facility for scenario loaders.
func NewFacility(id FacilityID, owner OrgID, location SettlementID, recipe RecipeID, optimal int, efficiency float64) *Facility {
	return newFacility(id, owner, location, recipe, optimal, efficiency)
}

// CurrentWorkers sums the facility's assigned worker count across pops.
func (f *Facility) CurrentWorkers() int {
	total := 0
	for _, n := range f.Workers {
		total += n
	}
	return total
}

// ShipStatusKind distinguishes a ship's two possible states.
type ShipStatusKind int

const (
	ShipInPort ShipStatusKind = iota
	ShipEnRoute
)

// Ship moves cargo between settlements along routes.
type Ship struct {
	ID       ShipID
	Owner    OrgID
	Capacity Quantity
	Cargo    map[GoodID]Quantity

	Status        ShipStatusKind
	Location      SettlementID // valid when Status == ShipInPort
	Destination   SettlementID // valid when Status == ShipEnRoute
	DaysRemaining int
}

// CargoTotal sums the ship's cargo across all goods.
func (s *Ship) CargoTotal() Quantity {
	total := Quantity(0)
	for _, q := range s.Cargo {
		total += q
	}
	return total
}

// Org is a merchant: it owns facilities and ships and holds a per-settlement
// warehouse stockpile plus a currency treasury.
type Org struct {
	ID        OrgID
	Name      string
	Currency  Currency
	Warehouse map[SettlementID]map[GoodID]Quantity
}

func newOrg(id OrgID, name string) *Org {
	return &Org{ID: id, Name: name, Warehouse: make(map[SettlementID]map[GoodID]Quantity)}
}

// NewOrg constructs a merchant org for scenario loaders.
func NewOrg(id OrgID, name string) *Org { return newOrg(id, name) }

// StockAt returns the org's warehouse stock map at a settlement, creating it
// if absent.
func (o *Org) StockAt(settlement SettlementID) map[GoodID]Quantity {
	return o.stockAt(settlement)
}

func (o *Org) stockAt(settlement SettlementID) map[GoodID]Quantity {
	stock, ok := o.Warehouse[settlement]
	if !ok {
		stock = make(map[GoodID]Quantity)
		o.Warehouse[settlement] = stock
	}
	return stock
}

// AnchorConfig describes a settlement's optional outside import/export
// ladders. Port-gating is aspirational: any settlement may carry
// an AnchorConfig in the current runtime.
type AnchorConfig struct {
	Good        GoodID  `json:"good" yaml:"good"`
	WorldPrice  Price   `json:"worldPrice" yaml:"worldPrice"`
	DepthPerPop float64 `json:"depthPerPop" yaml:"depthPerPop"`
	TierStepBPS float64 `json:"tierStepBps" yaml:"tierStepBps"`
	SpreadBPS   float64 `json:"spreadBps" yaml:"spreadBps"`
	TierCount   int     `json:"tierCount" yaml:"tierCount"`
}

// MarketState is a settlement's per-good price memory.
type MarketState struct {
	PriceEMA        EMA
	LastTradedPrice Price
	LastVolume      Quantity
}

// Settlement groups a population, its markets, and its natural resources.
type Settlement struct {
	ID   SettlementID
	Name string
	X, Y float64

	Pops map[PopID]struct{}

	NaturalResources map[GoodID]float64
	Market           map[GoodID]*MarketState

	Anchor *AnchorConfig
	IsPort bool
}

func newSettlement(id SettlementID, name string, x, y float64) *Settlement {
	return &Settlement{
		ID:               id,
		Name:             name,
		X:                x,
		Y:                y,
		Pops:             make(map[PopID]struct{}),
		NaturalResources: make(map[GoodID]float64),
		Market:           make(map[GoodID]*MarketState),
	}
}

// SeedPrice initializes a good's price EMA before the first tick, so a
// scenario can start a market at its intended equilibrium instead of
// cold-starting from the default grain price.
func (s *Settlement) SeedPrice(good GoodID, price Price) {
	s.marketFor(good).PriceEMA.Value = price
}

// NewSettlement constructs a settlement for scenario loaders.
func NewSettlement(id SettlementID, name string, x, y float64) *Settlement {
	return newSettlement(id, name, x, y)
}

func (s *Settlement) marketFor(good GoodID) *MarketState {
	m, ok := s.Market[good]
	if !ok {
		m = &MarketState{}
		s.Market[good] = m
	}
	return m
}

// Route describes a shipping lane a ship may travel.
type Route struct {
	From     SettlementID `json:"from" yaml:"from"`
	To       SettlementID `json:"to" yaml:"to"`
	Mode     string       `json:"mode" yaml:"mode"`
	Distance float64      `json:"distance" yaml:"distance"`
}
