package world

import "testing"

func TestMarginalUtilityDecreasing(t *testing.T) {
	a := MarginalUtility(0)
	b := MarginalUtility(0.5)
	c := MarginalUtility(1.1)
	d := MarginalUtility(1.25)
	if !(a > b && b > c && c > d) {
		t.Fatalf("expected strictly decreasing marginal utility, got %v %v %v %v", a, b, c, d)
	}
	if d != 0 {
		t.Fatalf("expected zero utility at tail ceiling, got %v", d)
	}
}

func TestMarginalUtilityBeyondCeilingIsZero(t *testing.T) {
	if got := MarginalUtility(2.0); got != 0 {
		t.Fatalf("expected 0 beyond ceiling, got %v", got)
	}
}

func TestMarginalUtilityNegativeRatioClamped(t *testing.T) {
	if MarginalUtility(-1) != MarginalUtility(0) {
		t.Fatalf("expected negative ratio to clamp to 0")
	}
}

func TestSatisfaction(t *testing.T) {
	if got := Satisfaction(5, 10); got != 0.5 {
		t.Fatalf("expected 0.5, got %v", got)
	}
	if got := Satisfaction(5, 0); got != 0 {
		t.Fatalf("expected 0 for zero requirement, got %v", got)
	}
}

func TestNeedCatalogLookup(t *testing.T) {
	c := newNeedCatalog([]NeedDef{
		{Name: "food", Good: "grain", Requirement: 3},
		{Name: "warmth", Good: "wood", Requirement: 1},
	})
	def, ok := c.byGood["grain"]
	if !ok || def.Name != "food" {
		t.Fatalf("expected grain to map to the food need, got %+v ok=%v", def, ok)
	}
	if _, ok := c.byGood["unknown"]; ok {
		t.Fatalf("expected unknown good to be absent")
	}
}
