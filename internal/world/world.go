package world

import (
	"math/rand"
	"sort"

	"manifestsim/logging"
)

// Deps bundles runtime dependencies required to construct a World instance.
type Deps struct {
	Publisher logging.Publisher
	Metrics   *logging.Metrics
}

// World owns every entity in the simulation. All cross-entity references are
// IDs resolved through these maps; no long-lived borrowed pointers escape a
// phase's scope.
type World struct {
	config Config
	seed   string
	tick   uint64

	publisher logging.Publisher
	metrics   *logging.Metrics
	rng       *rand.Rand

	settlements map[SettlementID]*Settlement
	pops        map[PopID]*Pop
	facilities  map[FacilityID]*Facility
	ships       map[ShipID]*Ship
	orgs        map[OrgID]*Org

	goods   map[GoodID]Good
	skills  map[SkillID]Skill
	recipes map[RecipeID]Recipe
	needs   *needCatalog
	routes  []Route

	grainGood GoodID
	wageEMA   map[SkillID]*EMA

	// laborExcessGlobal is last tick's economy-wide worker surplus flag:
	// total asks exceeded total offered slots summed across every settlement
	// and skill. The adaptive bid controller only ratchets down against this
	// global signal, never a single skill's local imbalance.
	laborExcessGlobal bool
	laborAsksTick     int
	laborSlotsTick    int

	nextPopSeq uint64
}

// New constructs a world instance with normalized configuration and a
// catalog of static scenario data (goods, skills, recipes, needs, routes).
func New(cfg Config, deps Deps, catalog ScenarioCatalog) *World {
	normalized := cfg.normalized()

	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	w := &World{
		config:      normalized,
		seed:        normalized.Seed,
		publisher:   publisher,
		metrics:     deps.Metrics,
		rng:         NewDeterministicRNG(normalized.Seed, "world"),
		settlements: make(map[SettlementID]*Settlement),
		pops:        make(map[PopID]*Pop),
		facilities:  make(map[FacilityID]*Facility),
		ships:       make(map[ShipID]*Ship),
		orgs:        make(map[OrgID]*Org),
		goods:       make(map[GoodID]Good),
		skills:      make(map[SkillID]Skill),
		recipes:     make(map[RecipeID]Recipe),
		wageEMA:     make(map[SkillID]*EMA),
		grainGood:   catalog.GrainGood,
	}
	w.needs = newNeedCatalog(catalog.Needs)

	for _, g := range catalog.Goods {
		w.goods[g.ID] = g
	}
	for _, s := range catalog.Skills {
		w.skills[s.ID] = s
		w.wageEMA[s.ID] = &EMA{}
	}
	for _, r := range catalog.Recipes {
		w.recipes[r.ID] = r
	}
	w.routes = append(w.routes, catalog.Routes...)

	return w
}

// Config returns the normalized configuration captured at construction time.
func (w *World) Config() Config { return w.config }

// Tick returns the current (already-committed) tick counter.
func (w *World) Tick() uint64 { return w.tick }

// Seed reports the deterministic seed applied to the world RNG hierarchy.
func (w *World) Seed() string { return w.seed }

// RNG exposes the root RNG instance seeded for the world. All stochastic
// draws share this single stream so identical seeds reproduce identical
// ticks.
func (w *World) RNG() *rand.Rand {
	if w.rng == nil {
		w.rng = NewDeterministicRNG(w.seed, "world")
	}
	return w.rng
}

func (w *World) recordMetric(key string) {
	if w.metrics != nil {
		w.metrics.TelemetryAdd(key, 1)
	}
}

// settlementIDsSorted returns settlement IDs in ascending order, the
// iteration order required for deterministic per-settlement phases.
func (w *World) settlementIDsSorted() []SettlementID {
	ids := make([]SettlementID, 0, len(w.settlements))
	for id := range w.settlements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) popIDsSorted(membership map[PopID]struct{}) []PopID {
	ids := make([]PopID, 0, len(membership))
	for id := range membership {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) allPopIDsSorted() []PopID {
	ids := make([]PopID, 0, len(w.pops))
	for id := range w.pops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) facilityIDsSorted() []FacilityID {
	ids := make([]FacilityID, 0, len(w.facilities))
	for id := range w.facilities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (w *World) facilitiesAt(settlement SettlementID) []*Facility {
	var out []*Facility
	for _, id := range w.facilityIDsSorted() {
		f := w.facilities[id]
		if f.Location == settlement {
			out = append(out, f)
		}
	}
	return out
}

// AddSettlement registers a settlement built by the scenario loader.
func (w *World) AddSettlement(s *Settlement) { w.settlements[s.ID] = s }

// AddPop registers a pop and its settlement membership.
func (w *World) AddPop(p *Pop) {
	w.pops[p.ID] = p
	if s, ok := w.settlements[p.Home]; ok {
		s.Pops[p.ID] = struct{}{}
	}
}

// AddFacility registers a facility.
func (w *World) AddFacility(f *Facility) { w.facilities[f.ID] = f }

// AddShip registers a ship.
func (w *World) AddShip(s *Ship) { w.ships[s.ID] = s }

// AddOrg registers a merchant org.
func (w *World) AddOrg(o *Org) { w.orgs[o.ID] = o }

func entityRef(kind logging.EntityKind, id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: kind}
}

const (
	entityKindSettlement = logging.EntityKindSettlement
	entityKindPop        = logging.EntityKindPop
	entityKindFacility   = logging.EntityKindFacility
	entityKindShip       = logging.EntityKindShip
)
