package optim

import (
	"math"
	"sort"

	"github.com/san-kum/growthfit/internal/dynamo"
)

// GridSearch evaluates an objective on the cartesian product of per-parameter
// value lists. It is used to seed local fits from several starting points.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

type Candidate struct {
	Params map[string]float64
	Value  float64
}

// Vector returns the candidate's values in the given name order.
func (c Candidate) Vector(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = c.Params[name]
	}
	return out
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Linspace returns n evenly spaced values in [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{(lo + hi) / 2}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Search evaluates every grid point and returns up to keep candidates with
// the lowest finite objective, best first. keep <= 0 returns all of them.
func (g *GridSearch) Search(objective func(params map[string]float64) float64, keep int) []Candidate {
	var points []map[string]float64
	g.searchRecursive(0, make(map[string]float64), &points)

	values := make([]float64, len(points))
	dynamo.ParallelFor(len(points), 4, func(start, end int) {
		for i := start; i < end; i++ {
			values[i] = objective(points[i])
		}
	})

	candidates := make([]Candidate, 0, len(points))
	for i, p := range points {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		candidates = append(candidates, Candidate{Params: p, Value: values[i]})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Value < candidates[j].Value
	})

	if keep > 0 && len(candidates) > keep {
		candidates = candidates[:keep]
	}
	return candidates
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, points *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*points = append(*points, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, points)
	}
}
