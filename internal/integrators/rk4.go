package integrators

import "github.com/san-kum/motorsim/internal/dynamo"

// RK4 is the classic fourth-order Runge–Kutta method. A plant calls it once
// per sub-step, so it keeps every buffer between calls, including the one it
// returns: the result of Step is overwritten by the next Step. Passing that
// result back in as x is allowed.
type RK4 struct {
	k     [4]dynamo.State
	stage dynamo.State
	out   dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.out) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.stage = make(dynamo.State, n)
	r.out = make(dynamo.State, n)
}

// advance fills r.stage with x + h·k.
func (r *RK4) advance(x, k dynamo.State, h float64) dynamo.State {
	for i := range x {
		r.stage[i] = x[i] + h*k[i]
	}
	return r.stage
}

func (r *RK4) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k[0], dyn.Derive(x, u, t))
	copy(r.k[1], dyn.Derive(r.advance(x, r.k[0], half), u, t+half))
	copy(r.k[2], dyn.Derive(r.advance(x, r.k[1], half), u, t+half))
	copy(r.k[3], dyn.Derive(r.advance(x, r.k[2], dt), u, t+dt))

	dt6 := dt / 6
	for i := range x {
		r.out[i] = x[i] + dt6*(r.k[0][i]+2*r.k[1][i]+2*r.k[2][i]+r.k[3][i])
	}
	return r.out
}
