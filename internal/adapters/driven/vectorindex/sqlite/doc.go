// Package sqlite provides a vector index persisted in a local SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Vectors are stored as little-endian float32 blobs and
// ranked in process with brute-force cosine similarity, which is adequate for
// the tens of thousands of chunks a single-user corpus produces.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files. One
// database file can hold several named indexes.
//
// # Data Location
//
// By default, the database is stored at ~/.docqa/data/vectors.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The database runs in WAL mode.
package sqlite
