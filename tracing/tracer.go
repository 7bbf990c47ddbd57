// Package tracing observes running solvers through the hook positions
// the mg and krylov packages expose. Tracers receive cycle and step
// records and aggregate or persist them; CollectTrace wires a tracer to
// a solver without the solver knowing about it.
package tracing

import "time"

// A Step is one engine phase executed at one level of one cycle.
type Step struct {
	Cycle int
	Level int
	Phase string

	// Norm is the 2-norm of the vector the step wrote. It is only set
	// on completed steps.
	Norm float64
}

// key is the identity of the step within a solve, without the measured
// norm. Start and end records of the same step share it.
func (s Step) key() Step {
	s.Norm = 0
	return s
}

// A CycleMark is the state of a solve at a cycle boundary. At the start
// of a cycle Norm is the norm of the defect the cycle corrects for; at
// the end it is the norm of the correction produced.
type CycleMark struct {
	Cycle int
	Norm  float64
}

// A Tracer collects cycle and step traces.
type Tracer interface {
	StartCycle(c CycleMark)
	EndCycle(c CycleMark)
	StartStep(s Step)
	EndStep(s Step)
}

// A StepFilter selects the steps a tracer collects. If this function
// returns true, the step is considered interesting.
type StepFilter func(s Step) bool

// A TimeSource tells the current wall-clock time. It exists so that
// tests can drive time-measuring tracers with a deterministic clock.
type TimeSource interface {
	Now() time.Time
}

// WallClock is the TimeSource backed by the system clock.
type WallClock struct{}

// Now returns the current time.
func (WallClock) Now() time.Time {
	return time.Now()
}
