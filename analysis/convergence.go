// Package analysis derives convergence measurements from running
// solvers. Analyzers attach to the hook positions the solvers expose
// and answer questions like "how fast is this iteration contracting"
// without storing full traces.
package analysis

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/krylov"
)

// ConvergenceAnalyzer observes the residual norm after every outer
// iteration and derives contraction factors and the asymptotic
// convergence rate. It implements hooking.Hook, so it can be attached
// to a Krylov solver directly.
type ConvergenceAnalyzer struct {
	lock  sync.Mutex
	norms []float64
}

// NewConvergenceAnalyzer creates a new ConvergenceAnalyzer.
func NewConvergenceAnalyzer() *ConvergenceAnalyzer {
	return &ConvergenceAnalyzer{}
}

// Func observes the residual norm when a solver completes an iteration.
func (a *ConvergenceAnalyzer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != krylov.HookPosIteration {
		return
	}

	info := ctx.Item.(krylov.IterationInfo)
	a.Observe(info.ResidualNorm)
}

// Observe appends one residual norm to the history.
func (a *ConvergenceAnalyzer) Observe(norm float64) {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.norms = append(a.norms, norm)
}

// Reset drops the history, preparing the analyzer for another solve.
func (a *ConvergenceAnalyzer) Reset() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.norms = nil
}

// Iterations returns the number of observations so far.
func (a *ConvergenceAnalyzer) Iterations() int {
	a.lock.Lock()
	defer a.lock.Unlock()

	return len(a.norms)
}

// History returns a copy of the observed residual norms.
func (a *ConvergenceAnalyzer) History() []float64 {
	a.lock.Lock()
	defer a.lock.Unlock()

	history := make([]float64, len(a.norms))
	copy(history, a.norms)

	return history
}

// Contractions returns the factor by which the residual norm shrank at
// each iteration after the first.
func (a *ConvergenceAnalyzer) Contractions() []float64 {
	a.lock.Lock()
	defer a.lock.Unlock()

	if len(a.norms) < 2 {
		return nil
	}

	contractions := make([]float64, len(a.norms)-1)
	for i := 1; i < len(a.norms); i++ {
		contractions[i-1] = contraction(a.norms[i-1], a.norms[i])
	}

	return contractions
}

// AsymptoticRate estimates the convergence rate as the geometric mean
// of the contraction factors over the second half of the history,
// skipping the initial transient. It returns 0 until two norms have
// been observed.
func (a *ConvergenceAnalyzer) AsymptoticRate() float64 {
	a.lock.Lock()
	defer a.lock.Unlock()

	n := len(a.norms)
	if n < 2 {
		return 0
	}

	k := n / 2
	if k == n-1 {
		k = n - 2
	}

	if a.norms[k] == 0 {
		return 0
	}

	return math.Pow(a.norms[n-1]/a.norms[k], 1/float64(n-1-k))
}

// Report summarizes the observed convergence in a short human-readable
// form.
func (a *ConvergenceAnalyzer) Report() string {
	a.lock.Lock()
	norms := a.norms
	a.lock.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "iterations: %d\n", len(norms))

	if len(norms) > 0 {
		fmt.Fprintf(&b, "final residual: %.6e\n", norms[len(norms)-1])
	}

	if rate := a.AsymptoticRate(); rate > 0 {
		fmt.Fprintf(&b, "asymptotic rate: %.4f\n", rate)
	}

	return b.String()
}

func contraction(prev, curr float64) float64 {
	if prev == 0 {
		return 0
	}

	return curr / prev
}
