// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RecordSource: Runs the extraction query against the request database
//   - SheetStore: Reads, rewrites and updates spreadsheet tabs
//   - HistoryStore: Notification history persistence
//   - WorkbookBuilder: Renders records into an XLSX byte buffer
//   - Mailer: Delivers a rendered notification
//   - ScenarioSource: Supplies the notification scenario catalogue
//   - TemplateStore: Loads HTML body templates
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Directory: Identity directory lookups. Without it, enrichment is skipped.
//   - Archive: Stores generated attachments. Without it, nothing is archived.
//   - ScriptRunner: Maintenance commands. Without it, script endpoints are disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
