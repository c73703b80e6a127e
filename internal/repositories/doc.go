// Package repositories implements SQLite persistence for the resolution
// journal.
//
// The journal records one row per catalog record processed in a run, so
// past resolutions can be inspected after the catalog itself has been
// rewritten. It is optional; without a journal path the pipeline runs
// with a nil repository.
//
// Key Implementations:
//   - [ResolutionRepository] : journal rows with per-run and recency queries
//
// Rows carry UUID identifiers from [shared.GenerateID] and are written
// incrementally as records finish, one insert per record.
package repositories
