// Package domain defines the core entities for couchfeed.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRef: A document identifier plus its revision token
//   - Document: A revisioned JSON document with an ordered field tree
//   - RawChangeEntry: One row of a database change feed
//   - ClassifiedChange: A reconciled Created/Updated/Deleted change
//   - ChangeWatchState: Per-database polling state owned by the watcher
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
