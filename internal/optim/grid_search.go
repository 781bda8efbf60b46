// Package optim searches controller gains offline. The controllers
// themselves never adapt during a run; a search only picks the fixed gains a
// later run will use.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/experiment"
)

// BuildFunc assembles a ready-to-run experiment for one gain combination.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Candidate is one evaluated point of the grid.
type Candidate struct {
	Params  map[string]float64
	Score   float64
	Outcome dynamo.Outcome
}

// Search evaluates every combination and returns the one with the lowest
// metricName among runs that converged. Runs that time out or fail are
// ranked after every converged run. A canceled context stops the search and
// its error is returned.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (Candidate, []Candidate, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Candidate{}, nil, fmt.Errorf("grid has %d names and %d ranges", len(g.paramNames), len(g.ranges))
	}

	var all []Candidate
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), build, metricName, &all); err != nil {
		return Candidate{}, all, err
	}
	if len(all) == 0 {
		return Candidate{}, nil, fmt.Errorf("empty grid")
	}

	sort.SliceStable(all, func(i, j int) bool {
		return rank(all[i]) < rank(all[j])
	})
	return all[0], all, nil
}

func rank(c Candidate) float64 {
	if c.Outcome != dynamo.Converged {
		return math.Inf(1)
	}
	return c.Score
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	build BuildFunc,
	metricName string,
	all *[]Candidate,
) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		exp, err := build(current)
		if err != nil {
			return err
		}

		c := Candidate{Params: current, Score: math.Inf(1), Outcome: dynamo.Failed}
		result, err := exp.Run(ctx)
		if errors.Is(err, dynamo.ErrContextCanceled) {
			return err
		}
		if err == nil {
			c.Outcome = result.Summary.Outcome
			if v, ok := result.Metrics[metricName]; ok {
				c.Score = v
			} else {
				return fmt.Errorf("unknown metric %q", metricName)
			}
		}
		*all = append(*all, c)
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, build, metricName, all); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
