package recording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// QueryParams narrows and pages a table query.
type QueryParams struct {
	// Where is an optional SQL condition, e.g., "run_id = ?". Use "?"
	// placeholders and pass values through Args.
	Where string

	// Args holds the arguments for the Where condition.
	Args []any

	// Limit caps the number of returned entries. Zero means no limit.
	Limit int

	// Offset skips entries before the first returned one.
	Offset int

	// OrderBy is an optional SQL ordering clause, e.g., "iteration ASC".
	OrderBy string
}

// DataReader reads recorded telemetry back from a database.
type DataReader interface {
	// MapTable declares the struct type that rows of a table unmarshal
	// into. A table must be mapped before it can be queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the names of all mapped tables.
	ListTables() []string

	// Query retrieves entries from a table. It returns the entries in
	// the requested window and the total number of entries matching
	// the condition.
	Query(
		ctx context.Context,
		tableName string,
		params QueryParams,
	) (results []any, totalCount int, err error)

	// Close closes the underlying database connection.
	Close() error
}

// NewReader creates a DataReader on an existing SQLite database file.
func NewReader(path string) DataReader {
	filename := path
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	if _, err := os.Stat(filename); err != nil {
		panic(fmt.Errorf("database %s does not exist", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		DB:     db,
		tables: make(map[string]reflect.Type),
	}
}

// NewReaderWithDB creates a DataReader on an open database connection.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:     db,
		tables: make(map[string]reflect.Type),
	}
}

type sqliteReader struct {
	*sql.DB

	tables map[string]reflect.Type
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t.Kind() != reflect.Struct {
		panic("sample entry must be a struct")
	}

	r.tables[tableName] = t
}

func (r *sqliteReader) ListTables() []string {
	tables := make([]string, 0, len(r.tables))
	for table := range r.tables {
		tables = append(tables, table)
	}

	return tables
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (results []any, totalCount int, err error) {
	structType, exists := r.tables[tableName]
	if !exists {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	totalCount, err = r.countEntries(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM " + tableName
	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", params.Offset)
	}

	rows, err := r.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err = r.scanRows(rows, structType)
	if err != nil {
		return nil, 0, err
	}

	return results, totalCount, nil
}

func (r *sqliteReader) countEntries(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	query := "SELECT COUNT(*) FROM " + tableName
	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	var count int

	err := r.QueryRowContext(ctx, query, params.Args...).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *sqliteReader) scanRows(
	rows *sql.Rows,
	structType reflect.Type,
) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex, err := r.mapColumnsToFields(columns, structType)
	if err != nil {
		return nil, err
	}

	results := []any{}

	for rows.Next() {
		elem := reflect.New(structType).Elem()

		dest := make([]any, len(columns))
		for i, f := range fieldIndex {
			dest[i] = elem.Field(f).Addr().Interface()
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		results = append(results, elem.Interface())
	}

	return results, rows.Err()
}

func (r *sqliteReader) mapColumnsToFields(
	columns []string,
	structType reflect.Type,
) ([]int, error) {
	fieldIndex := make([]int, len(columns))

	for i, col := range columns {
		found := false

		for f := 0; f < structType.NumField(); f++ {
			if strings.EqualFold(structType.Field(f).Name, col) {
				fieldIndex[i] = f
				found = true

				break
			}
		}

		if !found {
			return nil, fmt.Errorf(
				"column %s has no field in %s", col, structType.Name())
		}
	}

	return fieldIndex, nil
}
