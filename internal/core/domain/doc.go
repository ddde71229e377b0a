// Package domain defines the core entities of the extraction engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Token: A positioned word on a page
//   - Occurrence: One detected mention of a person on one page
//   - Person: A resolved identity aggregating compatible occurrences
//   - DocSnapshot: A marker that a document content was already extracted
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
