// Package sqlite stores passage vectors in a single SQLite file.
//
// It uses modernc.org/sqlite, so no CGO is needed. Vectors are kept as
// little-endian float32 blobs next to their JSON payload and searched by a
// full cosine scan per query, which suits single-node deployments of up to
// a few hundred thousand passages.
//
// The schema comes from the numbered migrations in migrations/, applied on
// open. The file defaults to ragline.db in the working directory and is
// opened in WAL mode so searches do not block ingestion.
package sqlite
