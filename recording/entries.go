package recording

// Table names shared between the tracers that produce telemetry and
// the readers and dashboards that consume it.
const (
	RunTable      = "runs"
	ResidualTable = "residuals"
	StepTable     = "steps"
)

// RunEntry summarizes one complete solve.
type RunEntry struct {
	RunID      string
	Problem    string
	Method     string
	MinLevel   int
	MaxLevel   int
	Unknowns   int
	Tolerance  float64
	Iterations int
	Converged  bool
	Seconds    float64
}

// ResidualEntry records the residual norm after one iteration or
// cycle.
type ResidualEntry struct {
	RunID        string
	Iteration    int
	ResidualNorm float64
}

// StepEntry records one phase of one cycle on one level.
type StepEntry struct {
	RunID   string
	Cycle   int
	Level   int
	Phase   string
	Norm    float64
	Seconds float64
}
