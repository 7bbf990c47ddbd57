package recording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type tableType int

const (
	tableTypeExecInfo tableType = iota
	tableTypeRun
	tableTypeResidual
	tableTypeStep
)

// ClickHouseRecorder is a DataRecorder backed by a ClickHouse server.
// It keeps typed batches for the telemetry tables defined in this
// package and sends them with the native batch protocol, avoiding
// per-entry reflection.
type ClickHouseRecorder struct {
	conn clickhouse.Conn

	mu         sync.Mutex
	batchSize  int
	entryCount int
	tables     map[string]tableType

	execInfoBatch []ExecInfo
	runBatch      []RunEntry
	residualBatch []ResidualEntry
	stepBatch     []StepEntry
}

// NewClickHouse connects to a ClickHouse server and returns a recorder
// writing into the given database. A zero batchSize selects the
// default of 100000 entries.
func NewClickHouse(
	host string,
	port int,
	database, username, password string,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize == 0 {
		batchSize = 100000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("cannot reach ClickHouse at %s:%d: %w",
			host, port, err))
	}

	return &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]tableType),
	}
}

// CreateTable creates a telemetry table if it does not exist. Only the
// entry types defined in this package are supported.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tType tableType
	var sql string

	switch sampleEntry.(type) {
	case ExecInfo:
		tType = tableTypeExecInfo
		sql = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			property String,
			value String
		) ENGINE = MergeTree()
		ORDER BY (property)`
	case RunEntry:
		tType = tableTypeRun
		sql = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			run_id String,
			problem String,
			method String,
			min_level Int64,
			max_level Int64,
			unknowns Int64,
			tolerance Float64,
			iterations Int64,
			converged Bool,
			seconds Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id)`
	case ResidualEntry:
		tType = tableTypeResidual
		sql = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			run_id String,
			iteration Int64,
			residual_norm Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id, iteration)`
	case StepEntry:
		tType = tableTypeStep
		sql = `CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			run_id String,
			cycle Int64,
			level Int64,
			phase String,
			norm Float64,
			seconds Float64
		) ENGINE = MergeTree()
		ORDER BY (run_id, cycle, level)`
	default:
		panic(fmt.Sprintf(
			"clickhouse recorder does not support entry type %T",
			sampleEntry))
	}

	err := r.conn.Exec(context.Background(), sql)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = tType
}

// InsertData buffers an entry into its typed batch. Inserting the
// batchSize-th entry triggers a flush.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tType, exists := r.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	switch tType {
	case tableTypeExecInfo:
		r.execInfoBatch = append(r.execInfoBatch, entry.(ExecInfo))
	case tableTypeRun:
		r.runBatch = append(r.runBatch, entry.(RunEntry))
	case tableTypeResidual:
		r.residualBatch = append(r.residualBatch, entry.(ResidualEntry))
	case tableTypeStep:
		r.stepBatch = append(r.stepBatch, entry.(StepEntry))
	}

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flush()
	}
}

// ListTables returns the names of all created tables.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	return tables
}

// Flush sends all buffered batches to the server.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flush()
}

// Close flushes outstanding batches and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	return r.conn.Close()
}

func (r *ClickHouseRecorder) flush() {
	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for tableName, tType := range r.tables {
		switch tType {
		case tableTypeExecInfo:
			if len(r.execInfoBatch) > 0 {
				r.flushExecInfo(ctx, tableName)
			}
		case tableTypeRun:
			if len(r.runBatch) > 0 {
				r.flushRuns(ctx, tableName)
			}
		case tableTypeResidual:
			if len(r.residualBatch) > 0 {
				r.flushResiduals(ctx, tableName)
			}
		case tableTypeStep:
			if len(r.stepBatch) > 0 {
				r.flushSteps(ctx, tableName)
			}
		}
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) flushExecInfo(
	ctx context.Context,
	tableName string,
) {
	batch, err := r.conn.PrepareBatch(
		ctx, fmt.Sprintf("INSERT INTO %s", tableName))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w",
			tableName, err))
	}

	for _, entry := range r.execInfoBatch {
		err = batch.Append(entry.Property, entry.Value)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err = batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	r.execInfoBatch = r.execInfoBatch[:0]
}

func (r *ClickHouseRecorder) flushRuns(
	ctx context.Context,
	tableName string,
) {
	batch, err := r.conn.PrepareBatch(
		ctx, fmt.Sprintf("INSERT INTO %s", tableName))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w",
			tableName, err))
	}

	for _, entry := range r.runBatch {
		err = batch.Append(
			entry.RunID,
			entry.Problem,
			entry.Method,
			int64(entry.MinLevel),
			int64(entry.MaxLevel),
			int64(entry.Unknowns),
			entry.Tolerance,
			int64(entry.Iterations),
			entry.Converged,
			entry.Seconds,
		)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err = batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	r.runBatch = r.runBatch[:0]
}

func (r *ClickHouseRecorder) flushResiduals(
	ctx context.Context,
	tableName string,
) {
	batch, err := r.conn.PrepareBatch(
		ctx, fmt.Sprintf("INSERT INTO %s", tableName))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w",
			tableName, err))
	}

	for _, entry := range r.residualBatch {
		err = batch.Append(
			entry.RunID,
			int64(entry.Iteration),
			entry.ResidualNorm,
		)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err = batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	r.residualBatch = r.residualBatch[:0]
}

func (r *ClickHouseRecorder) flushSteps(
	ctx context.Context,
	tableName string,
) {
	batch, err := r.conn.PrepareBatch(
		ctx, fmt.Sprintf("INSERT INTO %s", tableName))
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w",
			tableName, err))
	}

	for _, entry := range r.stepBatch {
		err = batch.Append(
			entry.RunID,
			int64(entry.Cycle),
			int64(entry.Level),
			entry.Phase,
			entry.Norm,
			entry.Seconds,
		)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	if err = batch.Send(); err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	r.stepBatch = r.stepBatch[:0]
}
