package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/motorsim/internal/dynamo"
)

func TestDominantFrequency(t *testing.T) {
	const (
		dt   = 0.001
		freq = 50.0
	)
	data := make([]float64, 200)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	if got := DominantFrequency(data, dt); math.Abs(got-freq) > 1e-9 {
		t.Errorf("dominant frequency = %v, want %v", got, freq)
	}
}

func TestDominantFrequencyConstant(t *testing.T) {
	data := []float64{2, 2, 2, 2, 2, 2}
	if got := DominantFrequency(data, 0.001); got != 0 {
		t.Errorf("constant signal frequency = %v", got)
	}
	if DominantFrequency([]float64{1}, 0.001) != 0 {
		t.Error("single sample should give 0")
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 10))
	if len(ps) != 6 {
		t.Errorf("len = %d, want 6", len(ps))
	}
}

func TestZeroCrossings(t *testing.T) {
	trace := dynamo.Trace{
		{Step: 0, Error: -5},
		{Step: 1, Error: 10},
		{Step: 2, Error: 0},
		{Step: 3, Error: -1},
		{Step: 4, Error: -2},
		{Step: 5, Error: 3},
	}
	if got := ZeroCrossings(trace); got != 2 {
		t.Errorf("crossings = %d, want 2", got)
	}
}

func TestErrorPhasePortrait(t *testing.T) {
	trace := dynamo.Trace{
		{Step: 0, Error: 10},
		{Step: 1, Error: 9, DeltaError: -1000},
		{Step: 2, Error: 7, DeltaError: -2000},
	}
	p := ErrorPhasePortrait(trace)
	if len(p.Points) != 2 {
		t.Fatalf("points = %d, want 2", len(p.Points))
	}
	if p.Points[1] != (Point{X: 7, Y: -2000}) {
		t.Errorf("point = %+v", p.Points[1])
	}

	out := PhasePortraitToASCII(p, 20, 8)
	if strings.Count(out, "•") != 2 {
		t.Errorf("ascii portrait:\n%s", out)
	}
	if PhasePortraitToASCII(&PhasePortrait2D{}, 20, 8) != "" {
		t.Error("empty portrait should render nothing")
	}
}

func TestStatePhasePortrait(t *testing.T) {
	trace := dynamo.Trace{{TruePosition: 1, Velocity: 2}, {TruePosition: 3, Velocity: 4}}
	p := StatePhasePortrait(trace)
	if len(p.Points) != 2 || p.Points[1].Y != 4 {
		t.Errorf("portrait = %+v", p)
	}
}
