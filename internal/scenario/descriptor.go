package scenario

import (
	"manifestsim/internal/world"
)

// CurrentVersion is the descriptor format version this loader accepts.
const CurrentVersion = 1

// Descriptor is the versioned, persisted scenario format: everything a
// deterministic world can be constructed from. The YAML form is what
// scenario authors write; the JSON tags drive the generated schema used by
// editor tooling (cmd/scenario-schema).
type Descriptor struct {
	Version int    `json:"version" yaml:"version" jsonschema:"title=Format version,description=Descriptor format version; this loader accepts 1"`
	Name    string `json:"name" yaml:"name" jsonschema:"title=Scenario name"`
	Seed    string `json:"seed,omitempty" yaml:"seed" jsonschema:"description=Root seed for the world RNG hierarchy"`

	Tunables world.Tunables `json:"tunables,omitempty" yaml:"tunables" jsonschema:"description=Engine coefficient overrides; zero fields fall back to engine defaults"`

	Goods     []world.Good    `json:"goods" yaml:"goods"`
	Skills    []world.Skill   `json:"skills" yaml:"skills"`
	Recipes   []world.Recipe  `json:"recipes" yaml:"recipes"`
	Needs     []world.NeedDef `json:"needs" yaml:"needs"`
	Routes    []world.Route   `json:"routes,omitempty" yaml:"routes"`
	GrainGood world.GoodID    `json:"grainGood" yaml:"grainGood" jsonschema:"description=The good subsistence and the default anchor key on"`

	Orgs        []OrgDef        `json:"orgs,omitempty" yaml:"orgs"`
	Settlements []SettlementDef `json:"settlements" yaml:"settlements"`
	Facilities  []FacilityDef   `json:"facilities,omitempty" yaml:"facilities"`
	Ships       []ShipDef       `json:"ships,omitempty" yaml:"ships"`
}

// OrgDef declares a merchant org and its initial treasury and warehouses.
type OrgDef struct {
	ID       world.OrgID    `json:"id" yaml:"id"`
	Name     string         `json:"name" yaml:"name"`
	Currency world.Currency `json:"currency,omitempty" yaml:"currency"`

	// Warehouse maps settlement id -> good id -> initial quantity.
	Warehouse map[world.SettlementID]map[world.GoodID]world.Quantity `json:"warehouse,omitempty" yaml:"warehouse"`
}

// PopDef declares one pop, or (via SettlementDef.PopCount) a template for
// many. An empty ID is minted deterministically at build time.
type PopDef struct {
	ID              world.PopID                      `json:"id,omitempty" yaml:"id"`
	Currency        world.Currency                   `json:"currency,omitempty" yaml:"currency"`
	Stocks          map[world.GoodID]world.Quantity  `json:"stocks,omitempty" yaml:"stocks"`
	Skills          []world.SkillID                  `json:"skills,omitempty" yaml:"skills"`
	ReservationWage world.Price                      `json:"reservationWage,omitempty" yaml:"reservationWage"`
}

// SettlementDef declares a settlement, its resources, optional anchor, and
// its initial population (explicit pops, a count-based template, or both).
type SettlementDef struct {
	ID   world.SettlementID `json:"id" yaml:"id"`
	Name string             `json:"name" yaml:"name"`
	X    float64            `json:"x" yaml:"x"`
	Y    float64            `json:"y" yaml:"y"`
	Port bool               `json:"port,omitempty" yaml:"port" jsonschema:"description=Marks the settlement as a port; advisory until port-gated anchors land"`

	Resources     map[world.GoodID]float64     `json:"resources,omitempty" yaml:"resources"`
	Anchor        *world.AnchorConfig          `json:"anchor,omitempty" yaml:"anchor"`
	InitialPrices map[world.GoodID]world.Price `json:"initialPrices,omitempty" yaml:"initialPrices" jsonschema:"description=Seeds the per-good price EMA before the first tick"`

	Pops        []PopDef `json:"pops,omitempty" yaml:"pops"`
	PopCount    int      `json:"popCount,omitempty" yaml:"popCount" jsonschema:"description=Number of template pops to mint with deterministic ids"`
	PopTemplate *PopDef  `json:"popTemplate,omitempty" yaml:"popTemplate"`
}

// FacilityDef declares a production facility. OptimalWorkforce defaults to
// the recipe's; Efficiency defaults to 1.0.
type FacilityDef struct {
	ID               world.FacilityID   `json:"id" yaml:"id"`
	Kind             string             `json:"kind" yaml:"kind"`
	Owner            world.OrgID        `json:"owner" yaml:"owner"`
	Settlement       world.SettlementID `json:"settlement" yaml:"settlement"`
	Recipe           world.RecipeID     `json:"recipe" yaml:"recipe"`
	OptimalWorkforce int                `json:"optimalWorkforce,omitempty" yaml:"optimalWorkforce"`
	Efficiency       float64            `json:"efficiency,omitempty" yaml:"efficiency"`
}

// ShipDef declares a ship starting in port.
type ShipDef struct {
	ID       world.ShipID                    `json:"id" yaml:"id"`
	Owner    world.OrgID                     `json:"owner" yaml:"owner"`
	Capacity world.Quantity                  `json:"capacity" yaml:"capacity"`
	Location world.SettlementID              `json:"location" yaml:"location"`
	Cargo    map[world.GoodID]world.Quantity `json:"cargo,omitempty" yaml:"cargo"`
}
