package scenario

import (
	"testing"

	"manifestsim/internal/world"
)

const fixtureYAML = `
version: 1
name: single-settlement
seed: fixture
grainGood: grain
goods:
  - id: grain
    name: Grain
  - id: flour
    name: Flour
skills:
  - id: farming
    name: Farming
  - id: milling
    name: Milling
recipes:
  - id: farm-grain
    output: grain
    baseOutput: 100
    optimalWorkforce: 4
    skill: farming
  - id: mill-flour
    output: flour
    baseOutput: 80
    optimalWorkforce: 2
    skill: milling
    inputs:
      - good: grain
        ratio: 1.2
needs:
  - name: food
    good: flour
    requirement: 2
orgs:
  - id: org-millers
    name: Millers Guild
    currency: 1000
    warehouse:
      riverton:
        grain: 50
settlements:
  - id: riverton
    name: Riverton
    x: 1
    y: 2
    initialPrices:
      grain: 2.5
    pops:
      - id: pop-anna
        currency: 30
        skills: [farming]
    popCount: 3
    popTemplate:
      currency: 10
      skills: [farming, milling]
facilities:
  - id: farm-1
    kind: farm
    owner: org-millers
    settlement: riverton
    recipe: farm-grain
ships:
  - id: ship-1
    owner: org-millers
    capacity: 40
    location: riverton
`

func TestParseAndBuildFixture(t *testing.T) {
	d, err := Parse([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Name != "single-settlement" || d.Seed != "fixture" {
		t.Fatalf("unexpected header fields: %+v", d)
	}

	w, err := d.Build(world.Deps{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	snap := w.Snapshot()
	if len(snap.Settlements) != 1 {
		t.Fatalf("expected 1 settlement, got %d", len(snap.Settlements))
	}
	s := snap.Settlements[0]
	if s.Population != 4 {
		t.Fatalf("expected 1 explicit + 3 template pops, got %d", s.Population)
	}
	if s.Wealth != 30+3*10 {
		t.Fatalf("expected aggregate wealth 60, got %v", s.Wealth)
	}
	var grainRow bool
	for _, row := range s.Markets {
		if row.Good == "grain" && row.Price == 2.5 {
			grainRow = true
		}
	}
	if !grainRow {
		t.Fatal("expected the seeded grain price to appear in the snapshot")
	}
	if len(snap.Ships) != 1 || snap.Ships[0].Capacity != 40 {
		t.Fatalf("expected one ship of capacity 40, got %+v", snap.Ships)
	}
	if len(snap.Orgs) != 1 || snap.Orgs[0].Treasury != 1000 {
		t.Fatalf("expected one org with treasury 1000, got %+v", snap.Orgs)
	}
}

func TestTemplatePopIDsAreDeterministic(t *testing.T) {
	d1, err := Parse([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	d2, err := Parse([]byte(fixtureYAML))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	w1, err := d1.Build(world.Deps{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	w2, err := d2.Build(world.Deps{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	inv1 := w1.Snapshot().Settlements[0]
	inv2 := w2.Snapshot().Settlements[0]
	if inv1.Population != inv2.Population || inv1.Wealth != inv2.Wealth {
		t.Fatal("identical descriptors must build identical worlds")
	}
}

func TestValidateRejectsBadReferences(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Descriptor)
	}{
		{"wrong version", func(d *Descriptor) { d.Version = 2 }},
		{"unknown recipe output", func(d *Descriptor) { d.Recipes[0].Output = "nothing" }},
		{"unknown facility owner", func(d *Descriptor) { d.Facilities[0].Owner = "ghost-org" }},
		{"unknown ship port", func(d *Descriptor) { d.Ships[0].Location = "atlantis" }},
		{"need keyed to unknown good", func(d *Descriptor) { d.Needs[0].Good = "ambrosia" }},
		{"popCount without template", func(d *Descriptor) { d.Settlements[0].PopTemplate = nil }},
		{"negative org currency", func(d *Descriptor) { d.Orgs[0].Currency = -5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse([]byte(fixtureYAML))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			tc.mutate(d)
			err = d.Validate()
			if err == nil {
				t.Fatal("expected validation to fail")
			}
			if _, ok := err.(*world.ScenarioInvalidError); !ok {
				t.Fatalf("expected ScenarioInvalidError, got %T", err)
			}
		})
	}
}
