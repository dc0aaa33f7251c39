// Package datarecording stores simulation records in an SQLite database.
// Tables are created from sample struct entries; inserts are batched and
// flushed at exit.
package datarecording

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table with the given name
	CreateTable(tableName string, sampleEntry any)

	// InsertData writes a same-type entry into a table that already exists
	InsertData(tableName string, entry any)

	// ListTables returns a slice containing names of all tables
	ListTables() []string

	// Flush flushes all the buffered entries into the database
	Flush()
}

// New creates a new DataRecorder writing to path plus an ".sqlite3" suffix.
// An empty path picks a unique name.
func New(path string) DataRecorder {
	w := &sqliteWriter{
		dbName:    path,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	w.init()

	atexit.Register(func() { w.Flush() })

	return w
}

// NewWithDB creates a new DataRecorder on an existing database connection.
func NewWithDB(db *sql.DB) DataRecorder {
	w := &sqliteWriter{
		db:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

type table struct {
	structType reflect.Type
	fields     []string
	entries    []any
}

type sqliteWriter struct {
	db        *sql.DB
	dbName    string
	tables    map[string]*table
	batchSize int
	numQueued int
}

func (w *sqliteWriter) init() {
	if w.dbName == "" {
		w.dbName = "ramulator_data_recording_" + xid.New().String()
	}

	filename := w.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	w.db = db
}

func fieldNames(entry any) ([]string, error) {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		return nil, errors.New("entry must be a struct")
	}

	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			return nil, errors.New("entry fields must be exported")
		}

		switch f.Type.Kind() {
		case reflect.Bool,
			reflect.Int, reflect.Int8, reflect.Int16,
			reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16,
			reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64,
			reflect.String:
			names = append(names, f.Name)
		default:
			return nil, fmt.Errorf(
				"field %s has unsupported type %s", f.Name, f.Type)
		}
	}

	return names, nil
}

func (w *sqliteWriter) CreateTable(tableName string, sampleEntry any) {
	fields, err := fieldNames(sampleEntry)
	if err != nil {
		panic(err)
	}

	createTableSQL := `CREATE TABLE ` + tableName +
		` (` + "\n\t" + strings.Join(fields, ", \n\t") + "\n" + `);`
	w.mustExecute(createTableSQL)

	w.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
		fields:     fields,
	}
}

func (w *sqliteWriter) InsertData(tableName string, entry any) {
	t, exists := w.tables[tableName]
	if !exists {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("entry type mismatch for table %s", tableName))
	}

	t.entries = append(t.entries, entry)

	w.numQueued++
	if w.numQueued >= w.batchSize {
		w.Flush()
	}
}

func (w *sqliteWriter) ListTables() []string {
	tables := make([]string, 0, len(w.tables))
	for name := range w.tables {
		tables = append(tables, name)
	}

	return tables
}

func (w *sqliteWriter) Flush() {
	if w.numQueued == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for tableName, t := range w.tables {
		if len(t.entries) == 0 {
			continue
		}

		stmt := w.prepareInsert(tableName, t)
		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)

			args := make([]any, len(t.fields))
			for i, f := range t.fields {
				args[i] = v.FieldByName(f).Interface()
			}

			if _, err := stmt.Exec(args...); err != nil {
				panic(err)
			}
		}

		t.entries = nil
	}

	w.numQueued = 0
}

func (w *sqliteWriter) prepareInsert(tableName string, t *table) *sql.Stmt {
	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.fields)), ", ")
	insertSQL := `INSERT INTO ` + tableName +
		` (` + strings.Join(t.fields, ", ") + `) VALUES (` +
		placeholders + `)`

	stmt, err := w.db.Prepare(insertSQL)
	if err != nil {
		panic(err)
	}

	return stmt
}

func (w *sqliteWriter) mustExecute(query string) sql.Result {
	res, err := w.db.Exec(query)
	if err != nil {
		panic(fmt.Errorf("%w: %s", err, query))
	}

	return res
}
