package scenario

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"manifestsim/internal/world"
)

// popNamespace roots deterministic UUIDv5 minting for count-based pop
// declarations: identical descriptors always produce identical pop IDs, so
// seeded runs stay bit-reproducible across loads.
var popNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("manifestsim/pop"))

// Load reads and parses a scenario descriptor from a YAML file.
func Load(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML descriptor.
func Parse(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, &world.ScenarioInvalidError{Reason: fmt.Sprintf("yaml: %v", err)}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks version and referential integrity so a bad descriptor is
// rejected at construction time and never enters the tick loop.
func (d *Descriptor) Validate() error {
	if d.Version != CurrentVersion {
		return invalid("unsupported version %d (want %d)", d.Version, CurrentVersion)
	}
	if len(d.Settlements) == 0 {
		return invalid("at least one settlement is required")
	}
	if len(d.Goods) == 0 {
		return invalid("at least one good is required")
	}

	goods := make(map[world.GoodID]bool, len(d.Goods))
	for _, g := range d.Goods {
		if g.ID == "" {
			return invalid("good with empty id")
		}
		if goods[g.ID] {
			return invalid("duplicate good %q", g.ID)
		}
		goods[g.ID] = true
	}
	skills := make(map[world.SkillID]bool, len(d.Skills))
	for _, s := range d.Skills {
		if skills[s.ID] {
			return invalid("duplicate skill %q", s.ID)
		}
		skills[s.ID] = true
	}
	recipes := make(map[world.RecipeID]world.Recipe, len(d.Recipes))
	for _, r := range d.Recipes {
		if _, dup := recipes[r.ID]; dup {
			return invalid("duplicate recipe %q", r.ID)
		}
		if !goods[r.Output] {
			return invalid("recipe %q outputs unknown good %q", r.ID, r.Output)
		}
		for _, in := range r.Inputs {
			if !goods[in.Good] {
				return invalid("recipe %q consumes unknown good %q", r.ID, in.Good)
			}
		}
		if r.Skill != "" && !skills[r.Skill] {
			return invalid("recipe %q requires unknown skill %q", r.ID, r.Skill)
		}
		recipes[r.ID] = r
	}
	for _, n := range d.Needs {
		if n.Name == "" {
			return invalid("need with empty name")
		}
		if !goods[n.Good] {
			return invalid("need %q keyed to unknown good %q", n.Name, n.Good)
		}
	}
	if d.GrainGood != "" && !goods[d.GrainGood] {
		return invalid("grainGood %q is not a declared good", d.GrainGood)
	}

	orgs := make(map[world.OrgID]bool, len(d.Orgs))
	for _, o := range d.Orgs {
		if o.ID == "" {
			return invalid("org with empty id")
		}
		if orgs[o.ID] {
			return invalid("duplicate org %q", o.ID)
		}
		orgs[o.ID] = true
		if o.Currency < 0 {
			return invalid("org %q has negative currency", o.ID)
		}
	}

	settlements := make(map[world.SettlementID]bool, len(d.Settlements))
	for _, s := range d.Settlements {
		if s.ID == "" {
			return invalid("settlement with empty id")
		}
		if settlements[s.ID] {
			return invalid("duplicate settlement %q", s.ID)
		}
		settlements[s.ID] = true
		if s.PopCount < 0 {
			return invalid("settlement %q has negative popCount", s.ID)
		}
		if s.PopCount > 0 && s.PopTemplate == nil {
			return invalid("settlement %q declares popCount without popTemplate", s.ID)
		}
		if s.Anchor != nil && !goods[s.Anchor.Good] {
			return invalid("settlement %q anchors unknown good %q", s.ID, s.Anchor.Good)
		}
		for _, p := range s.Pops {
			if err := validatePop(p, skills); err != nil {
				return err
			}
		}
		if s.PopTemplate != nil {
			if err := validatePop(*s.PopTemplate, skills); err != nil {
				return err
			}
		}
	}

	for _, o := range d.Orgs {
		for sid := range o.Warehouse {
			if !settlements[sid] {
				return invalid("org %q warehouses at unknown settlement %q", o.ID, sid)
			}
		}
	}
	for _, f := range d.Facilities {
		if !orgs[f.Owner] {
			return invalid("facility %q owned by unknown org %q", f.ID, f.Owner)
		}
		if !settlements[f.Settlement] {
			return invalid("facility %q at unknown settlement %q", f.ID, f.Settlement)
		}
		if _, ok := recipes[f.Recipe]; !ok {
			return invalid("facility %q runs unknown recipe %q", f.ID, f.Recipe)
		}
	}
	for _, sh := range d.Ships {
		if !orgs[sh.Owner] {
			return invalid("ship %q owned by unknown org %q", sh.ID, sh.Owner)
		}
		if !settlements[sh.Location] {
			return invalid("ship %q starts at unknown settlement %q", sh.ID, sh.Location)
		}
		if sh.Capacity <= 0 {
			return invalid("ship %q has non-positive capacity", sh.ID)
		}
	}
	for _, r := range d.Routes {
		if !settlements[r.From] || !settlements[r.To] {
			return invalid("route %s->%s references an unknown settlement", r.From, r.To)
		}
	}

	return nil
}

func validatePop(p PopDef, skills map[world.SkillID]bool) error {
	if p.Currency < 0 {
		return invalid("pop %q has negative currency", p.ID)
	}
	for _, sk := range p.Skills {
		if !skills[sk] {
			return invalid("pop %q has unknown skill %q", p.ID, sk)
		}
	}
	for good, qty := range p.Stocks {
		if qty < 0 {
			return invalid("pop %q has negative stock of %q", p.ID, good)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return &world.ScenarioInvalidError{Reason: fmt.Sprintf(format, args...)}
}

// Build constructs a world from a validated descriptor.
func (d *Descriptor) Build(deps world.Deps) (*world.World, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	cfg := world.Config{Seed: d.Seed, Tunables: d.Tunables}
	catalog := world.ScenarioCatalog{
		Goods:     d.Goods,
		Skills:    d.Skills,
		Recipes:   d.Recipes,
		Needs:     d.Needs,
		Routes:    d.Routes,
		GrainGood: d.GrainGood,
	}
	w := world.New(cfg, deps, catalog)

	for _, o := range d.Orgs {
		org := world.NewOrg(o.ID, o.Name)
		org.Currency = o.Currency
		for sid, stock := range o.Warehouse {
			dst := org.StockAt(sid)
			for good, qty := range stock {
				dst[good] = qty
			}
		}
		w.AddOrg(org)
	}

	for _, sd := range d.Settlements {
		s := world.NewSettlement(sd.ID, sd.Name, sd.X, sd.Y)
		s.IsPort = sd.Port
		s.Anchor = sd.Anchor
		for good, amount := range sd.Resources {
			s.NaturalResources[good] = amount
		}
		for good, price := range sd.InitialPrices {
			s.SeedPrice(good, price)
		}
		w.AddSettlement(s)

		for i, pd := range sd.Pops {
			w.AddPop(buildPop(d.Name, sd.ID, pd, i))
		}
		for i := 0; i < sd.PopCount; i++ {
			w.AddPop(buildPop(d.Name, sd.ID, *sd.PopTemplate, len(sd.Pops)+i))
		}
	}

	for _, fd := range d.Facilities {
		optimal := fd.OptimalWorkforce
		if optimal <= 0 {
			optimal = mustRecipe(d.Recipes, fd.Recipe).OptimalWorkforce
		}
		efficiency := fd.Efficiency
		if efficiency <= 0 {
			efficiency = 1.0
		}
		f := world.NewFacility(fd.ID, fd.Owner, fd.Settlement, fd.Recipe, optimal, efficiency)
		f.Kind = fd.Kind
		w.AddFacility(f)
	}

	for _, sh := range d.Ships {
		ship := &world.Ship{
			ID: sh.ID, Owner: sh.Owner, Capacity: sh.Capacity,
			Cargo: make(map[world.GoodID]world.Quantity, len(sh.Cargo)),
			Status: world.ShipInPort, Location: sh.Location,
		}
		for good, qty := range sh.Cargo {
			ship.Cargo[good] = qty
		}
		w.AddShip(ship)
	}

	return w, nil
}

// buildPop materializes a PopDef, minting a deterministic id when the
// definition leaves it empty.
func buildPop(scenarioName string, settlement world.SettlementID, pd PopDef, index int) *world.Pop {
	id := pd.ID
	if id == "" {
		name := fmt.Sprintf("%s/%s/%d", scenarioName, settlement, index)
		id = world.PopID(fmt.Sprintf("pop-%s", uuid.NewSHA1(popNamespace, []byte(name))))
	}
	p := world.NewPop(id, settlement)
	p.Currency = pd.Currency
	p.ReservationWage = pd.ReservationWage
	for good, qty := range pd.Stocks {
		p.Stocks[good] = qty
	}
	for _, sk := range pd.Skills {
		p.Skills[sk] = true
	}
	return p
}

func mustRecipe(recipes []world.Recipe, id world.RecipeID) world.Recipe {
	for _, r := range recipes {
		if r.ID == id {
			return r
		}
	}
	return world.Recipe{}
}
