// Package domain defines the core business entities for InsightGen.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Session: The authenticated identity for one user session
//   - SourceFile: A user-selected document (primary PPTX or reference PDF)
//   - InspectionResult: Structural findings for a pair of source files
//   - GeneratorDescriptor: A server-defined generation profile
//   - Job: A server-tracked unit of asynchronous processing
//
// It also holds the progress estimator, a pure table-driven function used
// while a job reports the coarse "processing" status.
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
