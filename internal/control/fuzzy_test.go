package control

import (
	"math"
	"testing"
)

func TestTrapezoidDegree(t *testing.T) {
	tri := Triangle(-8, 0, 8)
	shoulder := Trapezoid{A: 5, B: 30, C: 180, D: 180}

	tests := []struct {
		name string
		m    Trapezoid
		x    float64
		want float64
	}{
		{"triangle peak", tri, 0, 1},
		{"triangle left", tri, -4, 0.5},
		{"triangle right", tri, 6, 0.25},
		{"triangle outside", tri, 9, 0},
		{"shoulder rising", shoulder, 17.5, 0.5},
		{"shoulder flat", shoulder, 100, 1},
		{"shoulder edge", shoulder, 180, 1},
		{"shoulder below", shoulder, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Degree(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Degree(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestFuzzifySaturates(t *testing.T) {
	mu := ErrorVariable.Fuzzify(1000)
	if mu[Positive] != 1 || mu[Zero] != 0 || mu[Negative] != 0 {
		t.Errorf("expected full Positive membership, got %v", mu)
	}

	mu = DeltaVariable.Fuzzify(-1e9)
	if mu[Negative] != 1 {
		t.Errorf("expected full Negative membership, got %v", mu)
	}
}

func TestStrengthsAtOrigin(t *testing.T) {
	s := DefaultInference().Strengths(0, 0)
	if s[Zero] != 1 || s[Negative] != 0 || s[Positive] != 0 {
		t.Errorf("expected only Zero to fire, got %v", s)
	}
}

func TestEvaluateZeroZeroNearZero(t *testing.T) {
	inf := DefaultInference()
	if u := inf.Evaluate(0, 0); math.Abs(u) > 1e-9 {
		t.Errorf("expected ~0 at origin, got %v", u)
	}

	f := NewFuzzy(DefaultFuzzyKi)
	if u := f.Compute(0, 0, 0.001); math.Abs(u) > 1e-9 {
		t.Errorf("expected ~0 from controller at origin, got %v", u)
	}
	if u := f.Compute(0.1, 5, 0.001); math.Abs(u) > 1 {
		t.Errorf("expected near-zero output close to origin, got %v", u)
	}
}

func TestEvaluateRuleTable(t *testing.T) {
	inf := DefaultInference()

	tests := []struct {
		name   string
		e, de  float64
		expect func(float64) bool
	}{
		{"P/Z drives positive", 90, 0, func(u float64) bool { return u > 40 }},
		{"P/P drives positive", 90, 20000, func(u float64) bool { return u > 40 }},
		{"N/Z drives negative", -90, 0, func(u float64) bool { return u < -40 }},
		{"N/N drives negative", -90, -20000, func(u float64) bool { return u < -40 }},
		{"P/N brakes to zero", 90, -20000, func(u float64) bool { return math.Abs(u) < 1e-9 }},
		{"N/P brakes to zero", -90, 20000, func(u float64) bool { return math.Abs(u) < 1e-9 }},
		{"Z/P holds zero", 0, 20000, func(u float64) bool { return math.Abs(u) < 1e-9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if u := inf.Evaluate(tt.e, tt.de); !tt.expect(u) {
				t.Errorf("Evaluate(%v, %v) = %v", tt.e, tt.de, u)
			}
		})
	}
}

func TestEvaluateOddSymmetry(t *testing.T) {
	inf := DefaultInference()
	for _, e := range []float64{-150, -20, -6, 3, 12, 45, 170} {
		for _, de := range []float64{-30000, -1500, 0, 800, 4000} {
			a := inf.Evaluate(e, de)
			b := inf.Evaluate(-e, -de)
			if math.Abs(a+b) > 1e-9 {
				t.Errorf("Evaluate(%v,%v)=%v but Evaluate(%v,%v)=%v", e, de, a, -e, -de, b)
			}
		}
	}
}

func TestEvaluateOutOfUniverse(t *testing.T) {
	inf := DefaultInference()
	if a, b := inf.Evaluate(1e6, 0), inf.Evaluate(180, 0); a != b {
		t.Errorf("out-of-range error should saturate: %v vs %v", a, b)
	}
	if u := inf.Evaluate(math.Inf(1), math.Inf(-1)); math.IsNaN(u) {
		t.Error("infinite inputs should saturate, not produce NaN")
	}
}

func TestEvaluateBounded(t *testing.T) {
	inf := DefaultInference()
	for e := -180.0; e <= 180; e += 7.5 {
		for de := -50000.0; de <= 50000; de += 2500 {
			u := inf.Evaluate(e, de)
			if u < -100 || u > 100 {
				t.Fatalf("Evaluate(%v,%v)=%v outside output universe", e, de, u)
			}
		}
	}
}

func TestFuzzyIntegral(t *testing.T) {
	f := NewFuzzy(0.1)

	f.Compute(10, 0, 0.5)
	if math.Abs(f.Integral()-5) > 1e-12 {
		t.Errorf("expected integral 5, got %v", f.Integral())
	}

	u := f.Compute(0, 0, 0.001)
	if math.Abs(u-0.1*5) > 1e-9 {
		t.Errorf("expected integral contribution 0.5, got %v", u)
	}

	for i := 0; i < 100; i++ {
		f.Compute(180, 0, 1)
	}
	if f.Integral() != DefaultFuzzyIntegralLimit {
		t.Errorf("expected integral clamped at %v, got %v", DefaultFuzzyIntegralLimit, f.Integral())
	}

	f.Reset()
	if f.Integral() != 0 || f.LastInference() != 0 {
		t.Error("Reset should clear the integral")
	}
}

func TestFuzzySurface(t *testing.T) {
	f := NewFuzzy(DefaultFuzzyKi)
	errs := []float64{-90, 0, 90}
	deltas := []float64{0, 1000}

	s := f.Surface(errs, deltas)
	if len(s) != 2 || len(s[0]) != 3 {
		t.Fatalf("unexpected surface shape %dx%d", len(s), len(s[0]))
	}
	if s[0][0] >= 0 || s[0][2] <= 0 {
		t.Errorf("surface row should go from negative to positive: %v", s[0])
	}
	if f.Integral() != 0 {
		t.Error("Surface must not touch the integral")
	}
}

func TestFuzzyParams(t *testing.T) {
	f := NewFuzzy(DefaultFuzzyKi)
	if err := f.SetParam("Ki", 0.3); err != nil {
		t.Fatal(err)
	}
	if f.GetParams()["Ki"] != 0.3 {
		t.Errorf("expected Ki 0.3, got %v", f.GetParams()["Ki"])
	}
	if err := f.SetParam("Kp", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}
