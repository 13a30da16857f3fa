package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoData indicates an operation had no rows to work with.
	ErrNoData = errors.New("no data")

	// Configuration Errors.

	// ErrConfigMissing indicates a required configuration value is not set.
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrScenarioNotFound indicates no notification scenario matches the request.
	ErrScenarioNotFound = errors.New("notification scenario not found")

	// ErrNoRecipients indicates recipient resolution produced an empty list.
	// This is terminal; the send is not retried.
	ErrNoRecipients = errors.New("no recipients resolved")

	// Upstream Errors.

	// ErrUpstream indicates an external system (database, spreadsheet, SMTP) failed.
	ErrUpstream = errors.New("upstream call failed")

	// ErrDirectoryUnavailable indicates the identity directory could not be reached.
	// Enrichment degrades gracefully when this is returned.
	ErrDirectoryUnavailable = errors.New("identity directory unavailable")

	// ErrRowChanged indicates a spreadsheet row no longer matches the revision
	// it was read at, so an in-place update was skipped.
	ErrRowChanged = errors.New("spreadsheet row changed since read")

	// ErrUnknownScript indicates a maintenance script name is not configured.
	ErrUnknownScript = errors.New("unknown script")
)
