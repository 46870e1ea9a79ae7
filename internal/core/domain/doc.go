// Package domain defines the core business entities for ragline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: One logical source (an uploaded file or a CMS record)
//   - Chunk: A bounded passage of a document, the unit of retrieval
//   - Hit: A ranked retrieval result with its stored payload
//   - Answer: The composed reply and the sources it cites
//
// It also holds the text normaliser shared by extraction and chunking,
// and the error taxonomy every layer reports through.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
