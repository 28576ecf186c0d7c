// Package domain defines the core entities of the board sync engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Operation: A pending mutation awaiting remote application
//   - Snapshot: An opaque serialized board (canvas) state
//   - SyncStatus: The engine's externally observable state
//   - PassResult: The outcome of one drain pass
//   - EngineConfig: Timing, retry and namespace settings
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
