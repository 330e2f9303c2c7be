// Package database provides SQLite-based storage for privacyscan jobs.
//
// The store keeps exactly one row per target URL: the latest job, with its
// report serialized as JSON. It lets a repeated scan return the cached report
// and lets a forced scan overwrite it. It is not a history of past reports.
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
