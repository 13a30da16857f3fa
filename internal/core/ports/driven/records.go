package driven

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// RecordSource executes extraction queries against the request database.
type RecordSource interface {
	// Extract runs query and returns its columns and rows.
	// A positive limit is applied when the query has no LIMIT of its own.
	// Date values are returned as spreadsheet serial numbers.
	Extract(ctx context.Context, query string, limit int) (domain.RecordSet, error)
}
