// Package services implements the driving port interfaces.
// Services contain the core logic and orchestrate calls to
// driven ports (adapters).
//
// The change-feed pipeline is split across four services:
//
//   - DocumentStore: revision-aware GET/PUT/DELETE
//   - ChangeFeedReader: one pass over a database's _changes feed
//   - ChangeReconciler: classifies each change entry as created, updated or deleted
//   - DatabaseWatcher: per-database polling loop that publishes on the EventBus
package services
