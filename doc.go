// Package manifoldscan exposes manifold graph databases as DuckDB table
// functions.
//
// A manifold database is a bolt file with two collections, nodes and
// edges, holding binary-encoded records with open-ended property maps.
// Register installs two table functions on a DuckDB connection:
//
//	db, _ := sql.Open("duckdb", "")
//	conn, _ := db.Conn(ctx)
//	_ = manifoldscan.Register(conn)
//
//	SELECT * FROM manifold_entities('people.manifold');
//	SELECT prop_since FROM manifold_edges('people.manifold') WHERE edge_type = 'WORKS_AT';
//
// # Schema Discovery
//
// The column set of each invocation is discovered by sampling stored
// records: fixed columns first (id and labels for entities; id, source,
// target and edge_type for edges), then one nullable VARCHAR column per
// property name observed in the sample, in lexicographic order. Property
// values render as text; composite values render as JSON, so they stay
// castable inside SQL:
//
//	SELECT prop_name FROM manifold_entities('people.manifold')
//	WHERE CAST(prop_age AS INTEGER) > 25;
//
// # Remote Databases
//
// With a materializer configured, locations may name remote objects
// (s3://bucket/graph.manifold) that are downloaded and cached before the
// scan opens them. See the fetch package.
//
// Database handles are cached per location for the lifetime of the
// process and shared across queries and connections.
package manifoldscan
