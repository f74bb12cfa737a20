package optim

import (
	"math"
	"testing"
)

func TestGridSearchBest(t *testing.T) {
	g := NewGridSearch([]string{"x", "y"}, [][]float64{Linspace(-2, 2, 5), Linspace(-2, 2, 5)})

	got := g.Search(func(p map[string]float64) float64 {
		return (p["x"]-1)*(p["x"]-1) + (p["y"]+1)*(p["y"]+1)
	}, 3)

	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(got))
	}
	if got[0].Params["x"] != 1 || got[0].Params["y"] != -1 || got[0].Value != 0 {
		t.Errorf("expected best at (1, -1), got %+v", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Value < got[i-1].Value {
			t.Errorf("candidates not sorted: %v before %v", got[i-1].Value, got[i].Value)
		}
	}
	if v := got[0].Vector([]string{"y", "x"}); v[0] != -1 || v[1] != 1 {
		t.Errorf("expected vector [-1 1], got %v", v)
	}
}

func TestGridSearchSkipsNonFinite(t *testing.T) {
	g := NewGridSearch([]string{"x"}, [][]float64{{0, 1, 2, 3}})

	got := g.Search(func(p map[string]float64) float64 {
		if p["x"] < 2 {
			return math.NaN()
		}
		return p["x"]
	}, 0)

	if len(got) != 2 {
		t.Fatalf("expected 2 finite candidates, got %d", len(got))
	}
	if got[0].Params["x"] != 2 {
		t.Errorf("expected x=2 first, got %v", got[0].Params["x"])
	}
}

func TestLinspace(t *testing.T) {
	v := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if math.Abs(v[i]-want[i]) > 1e-15 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], v[i])
		}
	}
	if single := Linspace(1, 3, 1); len(single) != 1 || single[0] != 2 {
		t.Errorf("expected midpoint, got %v", single)
	}
}
