package session

import (
	"github.com/rs/xid"

	"github.com/fealab/strata/analysis"
	"github.com/fealab/strata/monitoring"
	"github.com/fealab/strata/recording"
	"github.com/fealab/strata/tracing"
)

// Builder can be used to build a session.
type Builder struct {
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
	outputFileName string
	csvTracePath   string
	clickHouse     *clickHouseParams
}

type clickHouseParams struct {
	host     string
	port     int
	database string
	username string
	password string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the session to not start a monitor.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor page in the default browser once the
// server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithCSVTrace additionally writes the step trace to a CSV file at the
// given path.
func (b Builder) WithCSVTrace(path string) Builder {
	b.csvTracePath = path
	return b
}

// WithClickHouse records into a ClickHouse database instead of a local
// SQLite file.
func (b Builder) WithClickHouse(
	host string,
	port int,
	database, username, password string,
) Builder {
	b.clickHouse = &clickHouseParams{
		host:     host,
		port:     port,
		database: database,
		username: username,
		password: password,
	}
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		panic("browser cannot be opened when monitoring is disabled")
	}

	if b.clickHouse != nil && b.outputFileName != "" {
		panic("output file name cannot be set when recording into ClickHouse")
	}
}

// Build builds the session.
func (b Builder) Build() *Session {
	b.parametersMustBeValid()

	s := &Session{
		id: xid.New().String(),
	}

	s.recorder = b.buildRecorder(s.id)
	s.recorder.CreateTable(recording.RunTable, recording.RunEntry{})

	s.execRecorder = recording.NewExecRecorder(s.recorder)
	s.execRecorder.Start()

	s.stepTracer = tracing.NewDBTracer(tracing.WallClock{}, s.id, s.recorder)
	s.residualTracer = tracing.NewResidualTracer(s.id, s.recorder)
	s.analyzer = analysis.NewConvergenceAnalyzer()

	if b.csvTracePath != "" {
		s.csvTracer = tracing.NewCSVTracer(tracing.WallClock{}, b.csvTracePath)
		s.csvTracer.Init()
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowser()
		}
		s.monitor.RegisterAnalyzer(s.analyzer)
		s.monitor.StartServer()
	}

	return s
}

func (b Builder) buildRecorder(id string) recording.DataRecorder {
	if b.clickHouse != nil {
		return recording.NewClickHouse(
			b.clickHouse.host,
			b.clickHouse.port,
			b.clickHouse.database,
			b.clickHouse.username,
			b.clickHouse.password,
			0)
	}

	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "strata_run_" + id
	}

	return recording.New(outputPath)
}
