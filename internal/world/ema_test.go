package world

import "testing"

func TestEMABlend(t *testing.T) {
	e := &EMA{Value: 10}
	e.Blend(20, 0.7, 0.3)
	want := 10*0.7 + 20*0.3
	if e.Value != want {
		t.Fatalf("expected %v, got %v", want, e.Value)
	}
}

func TestEMABlendNilReceiver(t *testing.T) {
	var e *EMA
	e.Blend(20, 0.7, 0.3) // must not panic
}

func TestEMAClamp(t *testing.T) {
	e := &EMA{Value: 5}
	e.Clamp(1, 3)
	if e.Value != 3 {
		t.Fatalf("expected clamp to 3, got %v", e.Value)
	}
	e.Value = -1
	e.Clamp(1, 3)
	if e.Value != 1 {
		t.Fatalf("expected clamp to 1, got %v", e.Value)
	}
}

func TestSafeDiv(t *testing.T) {
	if got := safeDiv(10, 0, 1e-9); got != 10/1e-9 {
		t.Fatalf("expected fallback division by eps, got %v", got)
	}
	if got := safeDiv(10, 2, 1e-9); got != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestClampFloat(t *testing.T) {
	if got := clampFloat(5, 0, 3); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := clampFloat(-5, 0, 3); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := clampFloat(2, 0, 3); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}
