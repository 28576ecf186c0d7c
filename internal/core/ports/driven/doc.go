// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the engine to function:
//
//   - RemoteGateway: Applies create, update and delete to the remote board store
//   - OperationLogStore: Durable storage for the serialized operation log
//   - Clock: Time source for the debounce timer and the sync ticker
//
// # Optional Interfaces
//
// These can be nil - the engine degrades gracefully:
//
//   - AppliedSnapshotStore: Without it the no-op check only covers the current process.
//   - PassHistoryStore: Without it drain passes are not recorded.
//   - SyncMetrics: Without it no measurements are emitted.
//   - ConfigStore: Without it the engine runs on defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
