// Package domain defines the core business entities for reqbridge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Record / RecordSet: flat rows extracted from the request database
//   - Contact: contact details resolved from the identity directory
//   - Scenario: a named notification workflow and its mail configuration
//   - HistoryEntry: one logged notification send
//   - SheetRow: a spreadsheet row addressed by its physical position
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
