// Package ingest implements the streaming ingestion pipeline that loads
// mixed-entity CSV and JSON files into the relational store.
//
// A single uploaded file may contain customers, products, orders, and order
// items in any order. The pipeline never materializes the whole file in
// memory; it processes the decoded record stream chunk by chunk:
//
//  1. Decode: [OpenReader] turns the byte stream into a lazy sequence of
//     [RawRecord] values (CSV, JSON array, single JSON object, or NDJSON).
//  2. Chunk: [Chunker] buffers the sequence into fixed-size batches
//     (default 1000 records) that bound peak memory and form the
//     transaction unit.
//  3. Classify: [Classify] assigns each record to an entity kind from its
//     field-name set alone.
//  4. Validate: per-kind validators coerce raw values into typed records
//     and collect field-level constraint errors.
//  5. Verify: [Verifier] resolves cross-entity references against the
//     union of persisted keys and keys introduced earlier in the same
//     chunk; dependents with missing parents are excluded.
//  6. Load: [Loader] persists each chunk in dependency order (customers,
//     products, orders, order items) inside one transaction, skipping rows
//     whose natural key already exists so re-uploads are idempotent.
//
// Chunks are processed strictly sequentially: the visibility sets used by
// the verifier depend on all prior chunks' committed writes.
//
// Row-level failures (unclassifiable records, validation errors, missing
// references) skip only the offending row and accumulate in the [Result];
// a store failure rolls back the whole chunk and processing continues with
// the next one. Only an unsupported file extension aborts before any work.
package ingest
