package control

import (
	"fmt"
	"math"
)

const (
	DefaultFuzzyKi            = 0.1
	DefaultFuzzyIntegralLimit = 300.0
	defaultResolution         = 1.0
)

// Inference is the static Mamdani system: min for AND, max aggregation of
// clipped output sets, centroid defuzzification on a sampled universe.
type Inference struct {
	Error      Variable
	Delta      Variable
	Output     Variable
	Rules      [numLabels][numLabels]Label
	Resolution float64
}

func DefaultInference() Inference {
	return Inference{
		Error:      ErrorVariable,
		Delta:      DeltaVariable,
		Output:     OutputVariable,
		Rules:      RuleTable,
		Resolution: defaultResolution,
	}
}

// Strengths returns the firing strength aggregated per output label.
func (inf Inference) Strengths(e, de float64) [numLabels]float64 {
	eMu := inf.Error.Fuzzify(e)
	dMu := inf.Delta.Fuzzify(de)

	var out [numLabels]float64
	for i := Label(0); i < numLabels; i++ {
		for j := Label(0); j < numLabels; j++ {
			w := math.Min(eMu[i], dMu[j])
			o := inf.Rules[i][j]
			out[o] = math.Max(out[o], w)
		}
	}
	return out
}

// Evaluate returns the crisp output for (e, de). When no rule fires the
// output is 0.
func (inf Inference) Evaluate(e, de float64) float64 {
	strength := inf.Strengths(e, de)

	step := inf.Resolution
	if step <= 0 {
		step = defaultResolution
	}
	n := int(math.Round((inf.Output.Max-inf.Output.Min)/step)) + 1

	var num, den float64
	for k := 0; k < n; k++ {
		x := inf.Output.Min + float64(k)*step
		mu := 0.0
		for l := range inf.Output.Sets {
			mu = math.Max(mu, math.Min(strength[l], inf.Output.Sets[l].Degree(x)))
		}
		num += x * mu
		den += mu
	}

	if den == 0 {
		return 0
	}
	return num / den
}

// Fuzzy is the fuzzy controller plus an integral term that removes the
// steady-state bias the 3×3 rule base leaves.
type Fuzzy struct {
	Ki            float64
	IntegralLimit float64
	inference     Inference
	integral      float64
	lastFuzzy     float64
}

func NewFuzzy(ki float64) *Fuzzy {
	return &Fuzzy{
		Ki:            ki,
		IntegralLimit: DefaultFuzzyIntegralLimit,
		inference:     DefaultInference(),
	}
}

func NewFuzzyWith(inf Inference, ki float64) *Fuzzy {
	f := NewFuzzy(ki)
	f.inference = inf
	return f
}

func (f *Fuzzy) Compute(err, dErr, dt float64) float64 {
	f.integral += err * dt
	if f.IntegralLimit > 0 {
		f.integral = math.Max(-f.IntegralLimit, math.Min(f.IntegralLimit, f.integral))
	}

	f.lastFuzzy = f.inference.Evaluate(err, dErr)
	return f.lastFuzzy + f.Ki*f.integral
}

// Reset clears the integral accumulator.
func (f *Fuzzy) Reset() {
	f.integral = 0
	f.lastFuzzy = 0
}

func (f *Fuzzy) Integral() float64 {
	return f.integral
}

// LastInference is the defuzzified part of the latest Compute, without the
// integral term.
func (f *Fuzzy) LastInference() float64 {
	return f.lastFuzzy
}

func (f *Fuzzy) Inference() Inference {
	return f.inference
}

// Surface evaluates the rule base over a grid; rows follow deltas, columns
// follow errors. The integral is not involved.
func (f *Fuzzy) Surface(errs, deltas []float64) [][]float64 {
	out := make([][]float64, len(deltas))
	for i, de := range deltas {
		out[i] = make([]float64, len(errs))
		for j, e := range errs {
			out[i][j] = f.inference.Evaluate(e, de)
		}
	}
	return out
}

func (f *Fuzzy) GetParams() map[string]float64 {
	return map[string]float64{
		"Ki":            f.Ki,
		"IntegralLimit": f.IntegralLimit,
	}
}

func (f *Fuzzy) SetParam(name string, value float64) error {
	switch name {
	case "Ki":
		f.Ki = value
	case "IntegralLimit":
		f.IntegralLimit = value
	default:
		return fmt.Errorf("unknown param: %s", name)
	}
	return nil
}
