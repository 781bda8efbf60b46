package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/integrators"
	"github.com/san-kum/motorsim/internal/metrics"
)

// Registry maps controller and integrator names to factories.
type Registry struct {
	integrators map[string]func() dynamo.Integrator
	controllers map[string]func() dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
		controllers: make(map[string]func() dynamo.Controller),
	}

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	r.controllers["fuzzy"] = func() dynamo.Controller { return control.NewFuzzy(control.DefaultFuzzyKi) }
	r.controllers["pid"] = func() dynamo.Controller {
		return control.NewPID(control.DefaultKp, control.DefaultKi, control.DefaultKd)
	}

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownIntegrator, name)
	}
	return fn(), nil
}

// GetController builds a fresh controller and applies params on top of its
// defaults. Param names are the controller's own (see GetParams).
func (r *Registry) GetController(name string, params map[string]float64) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", dynamo.ErrUnknownController, name)
	}
	c := fn()
	if len(params) == 0 {
		return c, nil
	}
	cfg, ok := c.(dynamo.Configurable)
	if !ok {
		return nil, fmt.Errorf("controller %s takes no parameters", name)
	}
	for _, k := range sortedKeys(params) {
		if err := cfg.SetParam(k, params[k]); err != nil {
			return nil, fmt.Errorf("controller %s: %w", name, err)
		}
	}
	return c, nil
}

func (r *Registry) HasController(name string) bool {
	_, ok := r.controllers[name]
	return ok
}

func (r *Registry) HasIntegrator(name string) bool {
	_, ok := r.integrators[name]
	return ok
}

func (r *Registry) ListControllers() []string {
	return sortedNames(r.controllers)
}

func (r *Registry) ListIntegrators() []string {
	return sortedNames(r.integrators)
}

// DefaultMetrics is the metric set attached to every run.
func (r *Registry) DefaultMetrics(start, target float64, cfg dynamo.Config) []dynamo.Metric {
	return metrics.Standard(start, target, cfg.PositionThreshold, control.DefaultOutputMax)
}

func sortedNames[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]float64) []string {
	return sortedNames(m)
}
