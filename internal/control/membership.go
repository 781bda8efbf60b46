package control

// Label is a linguistic term of a fuzzy variable.
type Label int

const (
	Negative Label = iota
	Zero
	Positive
	numLabels
)

func (l Label) String() string {
	switch l {
	case Negative:
		return "N"
	case Zero:
		return "Z"
	case Positive:
		return "P"
	default:
		return "?"
	}
}

// Trapezoid is a membership function rising over [A,B], flat over [B,C] and
// falling over [C,D]. A triangle is a trapezoid with B == C. A shoulder
// (A == B or C == D) is flat up to the edge of the universe.
type Trapezoid struct {
	A, B, C, D float64
}

func Triangle(a, b, c float64) Trapezoid {
	return Trapezoid{A: a, B: b, C: b, D: c}
}

func (m Trapezoid) Degree(x float64) float64 {
	switch {
	case x < m.A || x > m.D:
		return 0
	case x >= m.B && x <= m.C:
		return 1
	case x < m.B:
		return (x - m.A) / (m.B - m.A)
	default:
		return (m.D - x) / (m.D - m.C)
	}
}

// Variable is a bounded universe with one membership function per label.
type Variable struct {
	Name     string
	Min, Max float64
	Sets     [numLabels]Trapezoid
}

// Clamp saturates x to the universe so out-of-range inputs take the
// boundary label's degree.
func (v Variable) Clamp(x float64) float64 {
	if x < v.Min {
		return v.Min
	}
	if x > v.Max {
		return v.Max
	}
	return x
}

// Fuzzify returns the degree of x in every label.
func (v Variable) Fuzzify(x float64) [numLabels]float64 {
	x = v.Clamp(x)
	var out [numLabels]float64
	for l := range v.Sets {
		out[l] = v.Sets[l].Degree(x)
	}
	return out
}

// Default universes. The derivative breakpoints are in degrees/second: the
// per-step values (±1, ±2, ±6, ±50 degrees) scaled by a 1 ms control period.
var (
	ErrorVariable = Variable{
		Name: "error",
		Min:  -180, Max: 180,
		Sets: [numLabels]Trapezoid{
			Negative: {A: -180, B: -180, C: -30, D: -5},
			Zero:     Triangle(-8, 0, 8),
			Positive: {A: 5, B: 30, C: 180, D: 180},
		},
	}

	DeltaVariable = Variable{
		Name: "delta_error",
		Min:  -50000, Max: 50000,
		Sets: [numLabels]Trapezoid{
			Negative: {A: -50000, B: -50000, C: -6000, D: -1000},
			Zero:     Triangle(-2000, 0, 2000),
			Positive: {A: 1000, B: 6000, C: 50000, D: 50000},
		},
	}

	OutputVariable = Variable{
		Name: "control",
		Min:  -100, Max: 100,
		Sets: [numLabels]Trapezoid{
			Negative: {A: -100, B: -100, C: -35, D: -10},
			Zero:     Triangle(-15, 0, 15),
			Positive: {A: 10, B: 35, C: 100, D: 100},
		},
	}
)

// RuleTable maps (error label, delta label) to the output label.
var RuleTable = [numLabels][numLabels]Label{
	Negative: {Negative, Negative, Zero},
	Zero:     {Zero, Zero, Zero},
	Positive: {Zero, Positive, Positive},
}
