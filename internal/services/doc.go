// Package services defines shared utilities consumed by the processor client
// and the dispatcher.
//
// Key responsibilities:
//   - Context helpers that stamp a run identifier for logging and history.
//   - Structured error markers plus the Wrap helper so processor failures keep
//     a consistent "component: operation: detail" shape.
package services
