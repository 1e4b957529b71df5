// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It is the embedded backend for offline
// devices and implements multiple store interfaces through a single database:
//
//   - VectorStore: Pack chunks with embeddings, scanned in document id order
//   - RegistryStore: Pack registry entries
//   - IngestRunStore: Ingestion history
//   - SyncStateStore: Pull progress
//   - SchedulerStore: Re-ingestion tasks and their results
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.zerosignal/data/packs.db
//
// # Thread Safety
//
// All operations are thread-safe. Writers take an immediate transaction lock and
// readers proceed concurrently under WAL mode.
package sqlite
