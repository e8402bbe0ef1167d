package entropy

import "testing"

func TestSeededReplays(t *testing.T) {
	a := NewSeeded(7)
	b := NewSeeded(7)
	for i := 0; i < 50; i++ {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %v", i, x)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	sources := map[string]Source{
		"seeded": NewSeeded(1),
		"crypto": Crypto(),
		"fixed":  Fixed(0, 0.5, 0.999999),
	}
	for name, src := range sources {
		for i := 0; i < 100; i++ {
			if n := src.Intn(3); n < 0 || n >= 3 {
				t.Fatalf("%s: Intn(3) = %d", name, n)
			}
		}
		if n := src.Intn(0); n != 0 {
			t.Errorf("%s: Intn(0) = %d, want 0", name, n)
		}
	}
}

func TestFixedCycles(t *testing.T) {
	s := Fixed(0.1, 0.2)
	want := []float64{0.1, 0.2, 0.1}
	for i, w := range want {
		if got := s.Float64(); got != w {
			t.Errorf("draw %d = %v, want %v", i, got, w)
		}
	}
	if s.Draws() != 3 {
		t.Errorf("draws = %d, want 3", s.Draws())
	}
	if got := Fixed().Float64(); got != 0 {
		t.Errorf("empty script = %v, want 0", got)
	}
}
