package export

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/san-kum/motorsim/internal/dynamo"
)

func sampleTrace() dynamo.Trace {
	return dynamo.Trace{
		{Step: 0, Time: 0, TruePosition: -90, MeasuredPosition: -89.98, Error: 134.98},
		{Step: 1, Time: 0.001, TruePosition: -89.99, MeasuredPosition: -90.07, Error: 134.98, DeltaError: 0, Control: 100, Voltage: 8.2, Velocity: 12.5, Current: 0.3},
		{Step: 2, Time: 0.002, TruePosition: -89.95, MeasuredPosition: -89.9, Error: 135.07, DeltaError: 90, Control: 100, Voltage: 8.2, Velocity: 40.1, Current: 0.9},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	trace := sampleTrace()
	if err := WriteCSV(&buf, trace); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(trace)+1 {
		t.Fatalf("got %d lines, want %d", len(lines), len(trace)+1)
	}
	if !strings.HasPrefix(lines[0], "step,time,true_position") {
		t.Errorf("header = %q", lines[0])
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != len(trace) {
		t.Fatalf("read %d records", len(back))
	}
	for i := range trace {
		if back[i].Step != trace[i].Step {
			t.Errorf("record %d: step %d", i, back[i].Step)
		}
		if math.Abs(back[i].Voltage-trace[i].Voltage) > 1e-6 || math.Abs(back[i].Error-trace[i].Error) > 1e-6 {
			t.Errorf("record %d: %+v", i, back[i])
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2\n")); err == nil {
		t.Error("expected error for wrong column count")
	}
	bad := strings.Join(csvHeader, ",") + "\nx,0,0,0,0,0,0,0,0,0\n"
	if _, err := ReadCSV(strings.NewReader(bad)); err == nil {
		t.Error("expected error for bad step")
	}
	empty, err := ReadCSV(strings.NewReader(strings.Join(csvHeader, ",") + "\n"))
	if err != nil || len(empty) != 0 {
		t.Errorf("header only: %v, %v", empty, err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	result := &dynamo.Result{
		Trace: sampleTrace(),
		Summary: dynamo.Summary{
			Outcome:        dynamo.TimedOut,
			StepsTaken:     2,
			StartPosition:  -90,
			TargetPosition: 45,
		},
		Metrics: map[string]float64{"iae": 0.27},
	}
	data := NewRunExport("pid", "rk4", 42, dynamo.DefaultConfig(), result)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"outcome": "timed_out"`) {
		t.Errorf("outcome not written as text:\n%s", buf.String())
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if back.Summary != result.Summary {
		t.Errorf("summary = %+v", back.Summary)
	}
	if back.Seed != 42 || back.Controller != "pid" || back.MaxSteps != 300 {
		t.Errorf("header = %+v", back)
	}
	if len(back.Trace) != 3 || back.Trace[2] != result.Trace[2] {
		t.Errorf("trace = %+v", back.Trace)
	}
}

func TestReadJSONError(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{")); err == nil {
		t.Error("expected decode error")
	}
}

func TestTraceToSVG(t *testing.T) {
	svg := TraceToSVG(sampleTrace(), 45, 400, 200)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("not an svg document: %q", svg)
	}
	if got := strings.Count(svg, "<path"); got != 3 {
		t.Errorf("paths = %d, want 3", got)
	}
	if TraceToSVG(sampleTrace()[:1], 45, 400, 200) != "" {
		t.Error("single record should produce no figure")
	}
}

func TestSeriesToSVGFlat(t *testing.T) {
	svg := SeriesToSVG([]Series{{Points: []Point{{0, 1}, {1, 1}}, Stroke: "#fff"}}, 100, 100)
	if strings.Contains(svg, "NaN") || strings.Contains(svg, "Inf") {
		t.Errorf("flat series produced non-finite coordinates: %s", svg)
	}
	if SeriesToSVG(nil, 100, 100) != "" {
		t.Error("empty series should produce no figure")
	}
}

func TestPositionPlotPNG(t *testing.T) {
	p, err := PositionPlot(sampleTrace(), 45, "test")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, 2, 1.5); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
	if _, err := PositionPlot(nil, 0, "empty"); err == nil {
		t.Error("expected error for empty trace")
	}
}

func TestSavePlots(t *testing.T) {
	dir := t.TempDir()
	files, err := SavePlots(dir, "pid_", sampleTrace(), 45)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 4 {
		t.Fatalf("wrote %d files", len(files))
	}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", f)
		}
	}
}
