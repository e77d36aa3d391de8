// Package domain defines the core business entities for docqa.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Raw bytes fetched from object storage
//   - Chunk: An overlapping slice of a document's extracted text
//   - IndexEntry / QueryMatch: What the vector index stores and returns
//   - StructuredAnswer: The shape every question is answered with
//   - ChatRecord: The audit trail written after each question
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
