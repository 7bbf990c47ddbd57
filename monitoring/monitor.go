// Package monitoring turns a running solve into a web server, so that
// its progress, state and resource usage can be watched from a browser
// while it runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/fealab/strata/analysis"
	"github.com/fealab/strata/hooking"
	"github.com/fealab/strata/monitoring/web"
)

// NamedHookable represents a solver that has a name and accepts hooks.
type NamedHookable interface {
	Name() string
	hooking.Hookable
}

// A Hierarchy exposes the level structure of a solve.
type Hierarchy interface {
	MinLevel() int
	MaxLevel() int
	Size(level int) int
}

// Monitor can turn a solve into a server and allows external observing
// and pausing of the solve.
type Monitor struct {
	portNumber  int
	openBrowser bool

	solvers     []NamedHookable
	hierarchies []Hierarchy
	analyzer    *analysis.ConvergenceAnalyzer
	pauser      *pauseHook

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		pauser: newPauseHook(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser lets StartServer open the dashboard in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true

	return m
}

// RegisterSolver registers a solver to be monitored. The monitor's
// pause hook is attached, so the solver halts at its next hook boundary
// when paused through the web API.
func (m *Monitor) RegisterSolver(s NamedHookable) {
	m.solvers = append(m.solvers, s)

	s.AcceptHook(m.pauser)
}

// RegisterHierarchy registers the level structure of a problem so that
// the dashboard can show it.
func (m *Monitor) RegisterHierarchy(h Hierarchy) {
	m.hierarchies = append(m.hierarchies, h)
}

// RegisterAnalyzer sets the convergence analyzer whose measurements the
// monitor reports.
func (m *Monitor) RegisterAnalyzer(a *analysis.ConvergenceAnalyzer) {
	m.analyzer = a
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/pause", m.pauseSolvers)
	r.HandleFunc("/api/continue", m.continueSolvers)
	r.HandleFunc("/api/status", m.status)
	r.HandleFunc("/api/residuals", m.listResiduals)
	r.HandleFunc("/api/rates", m.listRates)
	r.HandleFunc("/api/levels", m.listLevels)
	r.HandleFunc("/api/list_solvers", m.listSolvers)
	r.HandleFunc("/api/solver/{name}", m.listSolverDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring solve with %s\n", url)

	if m.openBrowser {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseSolvers(w http.ResponseWriter, _ *http.Request) {
	m.pauser.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueSolvers(w http.ResponseWriter, _ *http.Request) {
	m.pauser.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type statusRsp struct {
	Paused         bool    `json:"paused"`
	Iterations     int     `json:"iterations"`
	Residual       float64 `json:"residual"`
	AsymptoticRate float64 `json:"asymptotic_rate"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	rsp := statusRsp{
		Paused: m.pauser.Paused(),
	}

	if m.analyzer != nil {
		history := m.analyzer.History()

		rsp.Iterations = len(history)
		if len(history) > 0 {
			rsp.Residual = history[len(history)-1]
		}

		rsp.AsymptoticRate = m.analyzer.AsymptoticRate()
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listResiduals(w http.ResponseWriter, _ *http.Request) {
	if m.analyzerMissing(w) {
		return
	}

	history := m.analyzer.History()
	if history == nil {
		history = []float64{}
	}

	bytes, err := json.Marshal(history)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type ratesRsp struct {
	Contractions   []float64 `json:"contractions"`
	AsymptoticRate float64   `json:"asymptotic_rate"`
}

func (m *Monitor) listRates(w http.ResponseWriter, _ *http.Request) {
	if m.analyzerMissing(w) {
		return
	}

	rsp := ratesRsp{
		Contractions:   m.analyzer.Contractions(),
		AsymptoticRate: m.analyzer.AsymptoticRate(),
	}
	if rsp.Contractions == nil {
		rsp.Contractions = []float64{}
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) analyzerMissing(w http.ResponseWriter) bool {
	if m.analyzer == nil {
		w.WriteHeader(http.StatusNotFound)

		_, err := w.Write([]byte("No analyzer registered"))
		dieOnErr(err)

		return true
	}

	return false
}

type levelRsp struct {
	Hierarchy int `json:"hierarchy"`
	Level     int `json:"level"`
	Unknowns  int `json:"unknowns"`
}

func (m *Monitor) listLevels(w http.ResponseWriter, _ *http.Request) {
	levels := []levelRsp{}

	for i, h := range m.hierarchies {
		for l := h.MinLevel(); l <= h.MaxLevel(); l++ {
			levels = append(levels, levelRsp{
				Hierarchy: i,
				Level:     l,
				Unknowns:  h.Size(l),
			})
		}
	}

	bytes, err := json.Marshal(levels)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listSolvers(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, s := range m.solvers {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "%q", s.Name())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listSolverDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	solver := m.findSolverOr404(w, name)
	if solver == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(solver)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

type fieldReq struct {
	SolverName string `json:"solver_name,omitempty"`
	FieldName  string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	dieOnErr(err)

	fields := strings.Split(req.FieldName, ".")

	solver := m.findSolverOr404(w, req.SolverName)
	if solver == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(solver)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(fields)
	dieOnErr(err)

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findSolverOr404(
	w http.ResponseWriter,
	name string,
) NamedHookable {
	var solver NamedHookable

	for _, s := range m.solvers {
		if s.Name() == name {
			solver = s
		}
	}

	if solver == nil {
		w.WriteHeader(http.StatusNotFound)

		_, err := w.Write([]byte("Solver not found"))
		dieOnErr(err)
	}

	return solver
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
