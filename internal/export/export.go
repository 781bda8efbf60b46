// Package export writes simulation traces to files and streams: CSV and JSON
// for data, SVG and PNG for figures.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/motorsim/internal/dynamo"
)

// RunExport is the JSON document for one run.
type RunExport struct {
	Controller string             `json:"controller"`
	Integrator string             `json:"integrator"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	MaxSteps   int                `json:"max_steps"`
	Summary    dynamo.Summary     `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
	Trace      dynamo.Trace       `json:"trace"`
}

func NewRunExport(controller, integrator string, seed int64, cfg dynamo.Config, result *dynamo.Result) RunExport {
	return RunExport{
		Controller: controller,
		Integrator: integrator,
		Seed:       seed,
		Dt:         cfg.Dt,
		MaxSteps:   cfg.MaxSteps,
		Summary:    result.Summary,
		Metrics:    result.Metrics,
		Trace:      result.Trace,
	}
}

func WriteJSON(w io.Writer, data RunExport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ReadJSON(r io.Reader) (*RunExport, error) {
	var data RunExport
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &data, nil
}

var csvHeader = []string{
	"step", "time", "true_position", "measured_position", "error",
	"delta_error", "control", "voltage", "velocity", "current",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// WriteCSV writes one row per record with a header line.
func WriteCSV(w io.Writer, trace dynamo.Trace) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range trace {
		row := []string{
			strconv.Itoa(r.Step),
			formatFloat(r.Time),
			formatFloat(r.TruePosition),
			formatFloat(r.MeasuredPosition),
			formatFloat(r.Error),
			formatFloat(r.DeltaError),
			formatFloat(r.Control),
			formatFloat(r.Voltage),
			formatFloat(r.Velocity),
			formatFloat(r.Current),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the format written by WriteCSV. Values are rounded to six
// decimals by the writer.
func ReadCSV(r io.Reader) (dynamo.Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return dynamo.Trace{}, nil
	}

	trace := make(dynamo.Trace, 0, len(records)-1)
	for i, record := range records[1:] {
		step, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		var vals [9]float64
		for j := range vals {
			vals[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i+1, csvHeader[j+1], err)
			}
		}
		trace = append(trace, dynamo.Record{
			Step:             step,
			Time:             vals[0],
			TruePosition:     vals[1],
			MeasuredPosition: vals[2],
			Error:            vals[3],
			DeltaError:       vals[4],
			Control:          vals[5],
			Voltage:          vals[6],
			Velocity:         vals[7],
			Current:          vals[8],
		})
	}
	return trace, nil
}
