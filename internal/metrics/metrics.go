// Package metrics holds per-run scores computed from the simulation trace as
// it is produced.
package metrics

import "github.com/san-kum/motorsim/internal/dynamo"

// Standard returns the metric set reported for every run.
func Standard(start, target, positionBand, outputLimit float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewControlEffort(),
		NewIAE(),
		NewRMSError(),
		NewOvershoot(start, target),
		NewSettlingStep(positionBand),
		NewSaturation(outputLimit),
		NewEnergy(),
		NewPeakVoltage(),
		NewSensorNoise(),
	}
}
