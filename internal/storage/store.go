// Package storage writes a single run as a bundle directory holding
// metadata.json and trace.csv, and reads it back. The directory is always
// chosen by the caller.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/export"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var ErrNoBundle = errors.New("storage: not a run bundle")

// RunMetadata is everything about a run except its trace.
type RunMetadata struct {
	Timestamp  time.Time          `json:"timestamp"`
	Controller string             `json:"controller"`
	Integrator string             `json:"integrator"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	MaxSteps   int                `json:"max_steps"`
	Summary    dynamo.Summary     `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
}

type Bundle struct {
	dir string
	now func() time.Time
}

func New(dir string) *Bundle {
	return &Bundle{dir: dir, now: time.Now}
}

func (b *Bundle) Dir() string {
	return b.dir
}

// Save writes run into the bundle directory, creating it if needed and
// replacing any earlier bundle there.
func (b *Bundle) Save(run export.RunExport) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return err
	}

	meta := RunMetadata{
		Timestamp:  b.now(),
		Controller: run.Controller,
		Integrator: run.Integrator,
		Seed:       run.Seed,
		Dt:         run.Dt,
		MaxSteps:   run.MaxSteps,
		Summary:    run.Summary,
		Metrics:    run.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(b.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	if err := metaFile.Close(); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(b.dir, traceFile))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	if err := export.WriteCSV(csvFile, run.Trace); err != nil {
		return err
	}
	return csvFile.Close()
}

func (b *Bundle) Metadata() (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoBundle, b.dir)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", metadataFile, err)
	}
	return &meta, nil
}

func (b *Bundle) Trace() (dynamo.Trace, error) {
	file, err := os.Open(filepath.Join(b.dir, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoBundle, b.dir)
		}
		return nil, err
	}
	defer file.Close()

	return export.ReadCSV(file)
}

// Load reassembles the full export document.
func (b *Bundle) Load() (*export.RunExport, error) {
	meta, err := b.Metadata()
	if err != nil {
		return nil, err
	}
	trace, err := b.Trace()
	if err != nil {
		return nil, err
	}
	return &export.RunExport{
		Controller: meta.Controller,
		Integrator: meta.Integrator,
		Seed:       meta.Seed,
		Dt:         meta.Dt,
		MaxSteps:   meta.MaxSteps,
		Summary:    meta.Summary,
		Metrics:    meta.Metrics,
		Trace:      trace,
	}, nil
}

// IsBundle reports whether path looks like a directory written by Save.
func IsBundle(path string) bool {
	info, err := os.Stat(filepath.Join(path, metadataFile))
	return err == nil && !info.IsDir()
}
