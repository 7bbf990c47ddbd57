package tracing

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTracer stores completed steps in a CSV file.
type CSVTracer struct {
	timeSource TimeSource
	path       string
	file       *os.File
	initTime   time.Time

	mu            sync.Mutex
	inflightSteps map[Step]time.Time
	rows          []csvRow
	bufferSize    int
}

type csvRow struct {
	step    Step
	start   float64
	seconds float64
}

// NewCSVTracer creates a new CSVTracer. Call Init before attaching it
// to a solver.
func NewCSVTracer(timeSource TimeSource, path string) *CSVTracer {
	return &CSVTracer{
		timeSource:    timeSource,
		path:          path,
		inflightSteps: make(map[Step]time.Time),
		bufferSize:    1000,
	}
}

// Init creates the tracing CSV file. If the file already exists, Init
// panics.
func (t *CSVTracer) Init() {
	if t.path == "" {
		t.path = "strata_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}

	t.file = file
	t.initTime = t.timeSource.Now()

	fmt.Fprintf(file, "Cycle, Level, Phase, Norm, Start, Seconds\n")

	atexit.Register(func() {
		t.Flush()

		err := t.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// StartCycle does nothing.
func (t *CSVTracer) StartCycle(_ CycleMark) {
}

// EndCycle does nothing.
func (t *CSVTracer) EndCycle(_ CycleMark) {
}

// StartStep records the step start time.
func (t *CSVTracer) StartStep(s Step) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflightSteps[s.key()] = t.timeSource.Now()
}

// EndStep buffers the completed step for writing.
func (t *CSVTracer) EndStep(s Step) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, ok := t.inflightSteps[s.key()]
	if !ok {
		return
	}

	delete(t.inflightSteps, s.key())

	t.rows = append(t.rows, csvRow{
		step:    s,
		start:   start.Sub(t.initTime).Seconds(),
		seconds: t.timeSource.Now().Sub(start).Seconds(),
	})

	if len(t.rows) >= t.bufferSize {
		t.flush()
	}
}

// Flush writes the buffered steps to the CSV file.
func (t *CSVTracer) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.flush()
}

func (t *CSVTracer) flush() {
	for _, row := range t.rows {
		fmt.Fprintf(t.file, "%d, %d, %s, %.10e, %.10f, %.10f\n",
			row.step.Cycle,
			row.step.Level,
			row.step.Phase,
			row.step.Norm,
			row.start,
			row.seconds,
		)
	}

	t.rows = nil
}
