// Package session bundles the services around one observed solve: a
// run identity, the telemetry recorder, the step and residual tracers,
// the convergence analyzer and the optional monitor. The command line
// front end and benchmark drivers configure a Session instead of
// wiring these services by hand.
package session

import (
	"github.com/fealab/strata/analysis"
	"github.com/fealab/strata/monitoring"
	"github.com/fealab/strata/recording"
	"github.com/fealab/strata/tracing"
)

// A Session provides the services required to run one solve.
type Session struct {
	id string

	recorder       recording.DataRecorder
	execRecorder   *recording.ExecRecorder
	monitor        *monitoring.Monitor
	stepTracer     *tracing.DBTracer
	residualTracer *tracing.ResidualTracer
	csvTracer      *tracing.CSVTracer
	analyzer       *analysis.ConvergenceAnalyzer
}

// ID returns the run ID that tags every recorded row of this session.
func (s *Session) ID() string {
	return s.id
}

// GetDataRecorder returns the recorder used in the session.
func (s *Session) GetDataRecorder() recording.DataRecorder {
	return s.recorder
}

// GetMonitor returns the monitor used in the session. It is nil when
// monitoring is disabled.
func (s *Session) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetAnalyzer returns the convergence analyzer of the session.
func (s *Session) GetAnalyzer() *analysis.ConvergenceAnalyzer {
	return s.analyzer
}

// RegisterCycleSolver attaches the step tracers and the monitor to a
// V-cycle solver.
func (s *Session) RegisterCycleSolver(m tracing.NamedHookable) {
	tracing.CollectTrace(m, s.stepTracer)

	if s.csvTracer != nil {
		tracing.CollectTrace(m, s.csvTracer)
	}

	if s.monitor != nil {
		s.monitor.RegisterSolver(m)
	}
}

// RegisterOuterSolver attaches the residual tracer and the analyzer to
// the outer iteration.
func (s *Session) RegisterOuterSolver(k tracing.NamedHookable) {
	tracing.CollectResiduals(k, s.residualTracer)
	k.AcceptHook(s.analyzer)

	if s.monitor != nil {
		s.monitor.RegisterSolver(k)
	}
}

// RegisterHierarchy announces a level hierarchy to the monitor.
func (s *Session) RegisterHierarchy(h monitoring.Hierarchy) {
	if s.monitor != nil {
		s.monitor.RegisterHierarchy(h)
	}
}

// RecordRun writes the summary row of a completed solve. The entry's
// RunID is overwritten with the session's ID.
func (s *Session) RecordRun(e recording.RunEntry) {
	e.RunID = s.id
	s.recorder.InsertData(recording.RunTable, e)
}

// Terminate ends the session. It stamps the end of the run and flushes
// everything still buffered.
func (s *Session) Terminate() {
	s.execRecorder.End()

	if s.csvTracer != nil {
		s.csvTracer.Flush()
	}

	if c, ok := s.recorder.(*recording.ClickHouseRecorder); ok {
		if err := c.Close(); err != nil {
			panic(err)
		}
	}
}
