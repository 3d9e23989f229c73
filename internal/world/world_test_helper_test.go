package world

import "manifestsim/logging"

// newTestWorld builds a minimal single-settlement world: a grain good
// satisfying the food need (plus a tools good), one skill, and one farm
// recipe. It adds no pops, facilities or orgs; tests add those before
// running a phase.
func newTestWorld() *World {
	catalog := ScenarioCatalog{
		Goods: []Good{
			{ID: "grain", Name: "Grain"},
			{ID: "tools", Name: "Tools"},
		},
		Skills: []Skill{
			{ID: "farming", Name: "Farming"},
		},
		Recipes: []Recipe{
			{
				ID:               "farm-grain",
				Output:           "grain",
				BaseOutput:       100,
				OptimalWorkforce: 4,
				Skill:            "farming",
				Inputs:           nil,
			},
		},
		Needs: []NeedDef{
			{Name: FoodNeed, Good: "grain", Requirement: 2},
		},
		GrainGood: "grain",
	}
	w := New(DefaultConfig(), Deps{Publisher: logging.NopPublisher()}, catalog)
	s := newSettlement("riverton", "Riverton", 0, 0)
	w.AddSettlement(s)
	return w
}

func (w *World) testSettlement() *Settlement {
	return w.settlements["riverton"]
}

func (w *World) addTestPop(id PopID, currency Currency, skills ...SkillID) *Pop {
	p := newPop(id, "riverton")
	p.Currency = currency
	for _, sk := range skills {
		p.Skills[sk] = true
	}
	w.AddPop(p)
	return p
}

func (w *World) addTestFacility(id FacilityID, owner OrgID, recipe RecipeID) *Facility {
	f := newFacility(id, owner, "riverton", recipe, w.recipes[recipe].OptimalWorkforce, 1.0)
	w.AddFacility(f)
	return f
}

func (w *World) addTestOrg(id OrgID, name string) *Org {
	o := newOrg(id, name)
	w.AddOrg(o)
	return o
}
