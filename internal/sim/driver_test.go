package sim_test

import (
	"context"
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/motorsim/internal/control"
	"github.com/san-kum/motorsim/internal/dynamo"
	"github.com/san-kum/motorsim/internal/integrators"
	"github.com/san-kum/motorsim/internal/physics"
	"github.com/san-kum/motorsim/internal/sensor"
	"github.com/san-kum/motorsim/internal/sim"
)

func newRun(controller dynamo.Controller, start float64, seed int64) *sim.Simulator {
	plant := physics.NewPlant(physics.DefaultMotorParams(), integrators.NewRK4(), start)
	encoder := sensor.NewEncoder(sensor.DefaultPPR, sensor.DefaultNoiseStd, rand.New(rand.NewSource(seed)))
	return sim.New(plant, encoder, controller)
}

func newPID() dynamo.Controller {
	return control.NewPID(control.DefaultKp, control.DefaultKi, control.DefaultKd)
}

type nanController struct{}

func (nanController) Compute(err, dErr, dt float64) float64 { return math.NaN() }
func (nanController) Reset()                                {}

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		cfg dynamo.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		cfg = dynamo.DefaultConfig()
	})

	Context("PID quarter turn from -90 to 45", func() {
		It("converges within the step budget", func() {
			result, err := newRun(newPID(), -90, 42).Run(ctx, 45, cfg)
			Expect(err).NotTo(HaveOccurred())

			s := result.Summary
			Expect(s.Outcome).To(Equal(dynamo.Converged))
			Expect(s.Converged).To(BeTrue())
			Expect(s.StepsTaken).To(BeNumerically("<=", 300))
			Expect(s.FinalError).To(BeNumerically("~", 0, 0.5))
			Expect(s.StartPosition).To(Equal(-90.0))
			Expect(s.TargetPosition).To(Equal(45.0))
		})

		It("records the initial reading and one record per step", func() {
			result, err := newRun(newPID(), -90, 42).Run(ctx, 45, cfg)
			Expect(err).NotTo(HaveOccurred())

			trace := result.Trace
			Expect(trace).To(HaveLen(result.Summary.StepsTaken + 1))
			Expect(trace[0].Time).To(BeZero())
			Expect(trace[0].Control).To(BeZero())
			Expect(trace[0].Voltage).To(BeZero())
			for i, r := range trace {
				Expect(r.Step).To(Equal(i))
				Expect(r.Voltage).To(BeNumerically("~", r.Control*cfg.VoltageScale, 1e-12))
			}
		})

		It("fills the metric map", func() {
			s := newRun(newPID(), -90, 42)
			s.AddMetric(newEffort())
			result, err := s.Run(ctx, 45, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Metrics).To(HaveKey("abs_control"))
			Expect(result.Metrics["abs_control"]).To(BeNumerically(">", 0))
		})
	})

	Context("already at the target", func() {
		It("converges almost immediately", func() {
			result, err := newRun(newPID(), 0, 7).Run(ctx, 0, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Summary.Converged).To(BeTrue())
			Expect(result.Summary.StepsTaken).To(BeNumerically("<=", 5))
		})
	})

	DescribeTable("determinism",
		func(newController func() dynamo.Controller, start, target float64) {
			a, errA := newRun(newController(), start, 1234).Run(ctx, target, cfg)
			b, errB := newRun(newController(), start, 1234).Run(ctx, target, cfg)
			Expect(errA).NotTo(HaveOccurred())
			Expect(errB).NotTo(HaveOccurred())
			Expect(a.Trace).To(Equal(b.Trace))
			Expect(a.Summary).To(Equal(b.Summary))
		},
		Entry("pid", newPID, -90.0, 45.0),
		Entry("fuzzy", func() dynamo.Controller { return control.NewFuzzy(control.DefaultFuzzyKi) }, 0.0, 180.0),
	)

	It("produces different noise for different seeds", func() {
		a, _ := newRun(newPID(), -90, 1).Run(ctx, 45, cfg)
		b, _ := newRun(newPID(), -90, 2).Run(ctx, 45, cfg)
		Expect(a.Trace[0].MeasuredPosition).NotTo(Equal(b.Trace[0].MeasuredPosition))
	})

	Context("with a small step budget", func() {
		It("times out without returning an error", func() {
			cfg.MaxSteps = 5
			result, err := newRun(newPID(), -90, 3).Run(ctx, 45, cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Summary.Outcome).To(Equal(dynamo.TimedOut))
			Expect(result.Summary.Converged).To(BeFalse())
			Expect(result.Summary.StepsTaken).To(Equal(5))
			Expect(result.Trace).To(HaveLen(6))
		})
	})

	Context("when the plant state becomes non-finite", func() {
		It("aborts with a numeric instability error", func() {
			result, err := newRun(nanController{}, 10, 3).Run(ctx, 20, cfg)
			Expect(err).To(MatchError(dynamo.ErrNumericInstability))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(simErr.State.IsValid()).To(BeFalse())
			Expect(result).NotTo(BeNil())
			Expect(result.Summary.Outcome).To(Equal(dynamo.Failed))
			Expect(result.Summary.StepsTaken).To(Equal(1))
		})
	})

	Context("with a canceled context", func() {
		It("stops with ErrContextCanceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := newRun(newPID(), -90, 3).Run(canceled, 45, cfg)
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	DescribeTable("rejects invalid configuration",
		func(mutate func(*dynamo.Config), target float64) {
			mutate(&cfg)
			_, err := newRun(newPID(), 0, 1).Run(ctx, target, cfg)
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		},
		Entry("zero dt", func(c *dynamo.Config) { c.Dt = 0 }, 10.0),
		Entry("no steps", func(c *dynamo.Config) { c.MaxSteps = 0 }, 10.0),
		Entry("infinite voltage scale", func(c *dynamo.Config) { c.VoltageScale = math.Inf(1) }, 10.0),
		Entry("NaN target", func(c *dynamo.Config) {}, math.NaN()),
	)
})

type effort struct{ sum float64 }

func newEffort() *effort                  { return &effort{} }
func (e *effort) Name() string            { return "abs_control" }
func (e *effort) Observe(r dynamo.Record) { e.sum += math.Abs(r.Control) }
func (e *effort) Value() float64          { return e.sum }
func (e *effort) Reset()                  { e.sum = 0 }
