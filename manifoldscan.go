package manifoldscan

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/hupe1980/manifoldscan/scan"
	"github.com/hupe1980/manifoldscan/storage"
	"github.com/hupe1980/manifoldscan/storage/bolt"
)

// Names of the registered table functions.
const (
	EntitiesFunction = "manifold_entities"
	EdgesFunction    = "manifold_edges"
)

// Materializer resolves a database location to a local file path before
// the engine opens it. Implementations for remote schemes download and
// cache; local paths must pass through unchanged.
type Materializer interface {
	Materialize(ctx context.Context, location string) (string, error)
}

// localOnly treats every location as a local path.
type localOnly struct{}

func (localOnly) Materialize(_ context.Context, location string) (string, error) {
	return location, nil
}

// defaultHandles is the process-wide handle cache. Scans open databases
// read-only and the handles stay open for the rest of the process, so
// every registration reusing this cache shares one engine per location.
var defaultHandles = scan.NewHandles(func(path string) (storage.Engine, error) {
	return bolt.OpenReadOnly(path)
})

// Register installs the manifold_entities and manifold_edges table
// functions on the connection. Each takes one VARCHAR argument, the
// database location, and streams the respective collection as rows.
// The column set is discovered per invocation; see the scan package for
// the schema and pagination rules.
func Register(conn *sql.Conn, optFns ...Option) error {
	o := applyOptions(optFns)

	varchar, err := duckdb.NewTypeInfo(duckdb.TYPE_VARCHAR)
	if err != nil {
		return fmt.Errorf("varchar type info: %w", err)
	}

	entities := duckdb.ChunkTableFunction{
		Config: duckdb.TableFunctionConfig{
			Arguments: []duckdb.TypeInfo{varchar},
		},
		BindArguments: func(_ map[string]any, args ...any) (duckdb.ChunkTableSource, error) {
			return bindEntities(o, args...)
		},
	}
	if err := duckdb.RegisterTableUDF(conn, EntitiesFunction, entities); err != nil {
		return fmt.Errorf("register %s: %w", EntitiesFunction, err)
	}

	edges := duckdb.ChunkTableFunction{
		Config: duckdb.TableFunctionConfig{
			Arguments: []duckdb.TypeInfo{varchar},
		},
		BindArguments: func(_ map[string]any, args ...any) (duckdb.ChunkTableSource, error) {
			return bindEdges(o, args...)
		},
	}
	if err := duckdb.RegisterTableUDF(conn, EdgesFunction, edges); err != nil {
		return fmt.Errorf("register %s: %w", EdgesFunction, err)
	}

	o.logger.Debug("table functions registered",
		"functions", []string{EntitiesFunction, EdgesFunction},
	)
	return nil
}

// acquire resolves the single location argument and returns the shared
// engine behind it.
func acquire(o options, args ...any) (storage.Engine, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	location, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("database location must be VARCHAR, got %T", args[0])
	}
	if strings.TrimSpace(location) == "" {
		return nil, ErrMissingPath
	}

	start := time.Now()
	path, err := o.materializer.Materialize(context.Background(), location)
	o.metrics.RecordMaterialize(time.Since(start), err)
	o.logger.LogMaterialize(location, path, err)
	if err != nil {
		return nil, scan.NewOpenError(location, err)
	}

	return o.handles.Acquire(path)
}

func bindEntities(o options, args ...any) (_ duckdb.ChunkTableSource, err error) {
	start := time.Now()
	defer func() { o.metrics.RecordBind(EntitiesFunction, time.Since(start), err) }()
	defer guard(EntitiesFunction+" bind", o.logger, &err)

	eng, err := acquire(o, args...)
	if err != nil {
		o.logger.LogBind(EntitiesFunction, argLocation(args), 0, err)
		return nil, err
	}

	schema, err := scan.DiscoverEntities(eng, o.sampleSize)
	if err != nil {
		o.logger.LogBind(EntitiesFunction, eng.Path(), 0, err)
		return nil, err
	}

	columns, err := columnInfos(schema)
	if err != nil {
		return nil, err
	}

	o.logger.LogBind(EntitiesFunction, eng.Path(), len(columns), nil)

	return &entitySource{tableSource: tableSource{
		eng:     eng,
		schema:  schema,
		columns: columns,
		project: scan.NewProjector(o.codec),
		batch:   o.batchSize,
		logger:  o.logger.WithFunction(EntitiesFunction),
		metrics: o.metrics,
	}}, nil
}

func bindEdges(o options, args ...any) (_ duckdb.ChunkTableSource, err error) {
	start := time.Now()
	defer func() { o.metrics.RecordBind(EdgesFunction, time.Since(start), err) }()
	defer guard(EdgesFunction+" bind", o.logger, &err)

	eng, err := acquire(o, args...)
	if err != nil {
		o.logger.LogBind(EdgesFunction, argLocation(args), 0, err)
		return nil, err
	}

	schema, err := scan.DiscoverEdges(eng, o.sampleSize)
	if err != nil {
		o.logger.LogBind(EdgesFunction, eng.Path(), 0, err)
		return nil, err
	}

	columns, err := columnInfos(schema)
	if err != nil {
		return nil, err
	}

	o.logger.LogBind(EdgesFunction, eng.Path(), len(columns), nil)

	return &edgeSource{tableSource: tableSource{
		eng:     eng,
		schema:  schema,
		columns: columns,
		project: scan.NewProjector(o.codec),
		batch:   o.batchSize,
		logger:  o.logger.WithFunction(EdgesFunction),
		metrics: o.metrics,
	}}, nil
}

// argLocation extracts the location argument for log fields without
// re-validating it.
func argLocation(args []any) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	return ""
}
