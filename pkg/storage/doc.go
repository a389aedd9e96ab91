// Package storage persists form documents. Three Repository implementations
// share one contract: MemoryRepository for tests and ephemeral servers,
// FileRepository for one JSON file per document, and SQLiteRepository on the
// pure Go modernc.org/sqlite driver.
package storage
