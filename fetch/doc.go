// Package fetch materializes remote graph databases onto local disk so
// they can be scanned with ordinary file access.
//
// A Fetcher maps location prefixes to object stores (local directories,
// S3, MinIO), downloads objects in parallel ranged chunks under resource
// limits, transparently decompresses zstd and lz4 payloads, and caches
// the result keyed by location. It satisfies the scanner's Materializer
// hook, which turns locations like "s3://graphs/social.manifold.zst"
// into paths a table function can open.
package fetch
