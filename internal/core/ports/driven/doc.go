// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Transport: Verb-level requests to the remote document store
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Signer: Authorization header for each request. Without it requests are unsigned.
//   - DocumentCache: Local mirror of watched documents.
//   - ChangeLog: History of applied changes.
//   - ConfigStore: Application configuration.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
