// Package scan implements the adapter core between a Manifold storage
// engine and a columnar query engine: the shared handle cache, schema
// discovery over sampled records, the paginated batch scanner, and the
// record projector.
//
// A scan runs in two phases. Bind acquires the shared engine handle for
// the database path, samples the collection to discover a column list,
// and publishes it. Produce then repeatedly fetches one batch of decoded
// records and projects it into the host's columnar buffer (the Sink)
// until the scanner is exhausted. Schema, pager, and projector hold no
// storage resources between calls; every sample and every batch opens its
// own short-lived read transaction.
package scan
