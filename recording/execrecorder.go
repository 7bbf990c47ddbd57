package recording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that stores execution metadata.
const ExecInfoTable = "exec_info"

// ExecInfo is one property of the recorded execution, such as the
// command line or the start time.
type ExecInfo struct {
	Property string
	Value    string
}

// An ExecRecorder stores metadata about the running process alongside
// the telemetry, so that a database can be traced back to the solve
// that produced it.
type ExecRecorder struct {
	recorder DataRecorder
}

// NewExecRecorder creates an ExecRecorder writing into the given
// DataRecorder.
func NewExecRecorder(rec DataRecorder) *ExecRecorder {
	return &ExecRecorder{recorder: rec}
}

// Start records the start time, the command line, and the working
// directory. It creates the exec_info table.
func (r *ExecRecorder) Start() {
	r.recorder.CreateTable(ExecInfoTable, ExecInfo{})

	r.recorder.InsertData(ExecInfoTable, ExecInfo{
		Property: "Start Time",
		Value:    time.Now().Format(time.RFC3339),
	})

	r.recorder.InsertData(ExecInfoTable, ExecInfo{
		Property: "Command",
		Value:    strings.Join(os.Args, " "),
	})

	wd, err := os.Getwd()
	if err == nil {
		r.recorder.InsertData(ExecInfoTable, ExecInfo{
			Property: "Working Directory",
			Value:    wd,
		})
	}
}

// End records the end time and flushes the recorder.
func (r *ExecRecorder) End() {
	r.recorder.InsertData(ExecInfoTable, ExecInfo{
		Property: "End Time",
		Value:    time.Now().Format(time.RFC3339),
	})

	r.recorder.Flush()
}
