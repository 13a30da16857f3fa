package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// HistoryStore persists the notification history log.
type HistoryStore interface {
	// Entries returns all entries for a scenario, oldest first.
	Entries(ctx context.Context, scenario string) ([]domain.HistoryEntry, error)

	// Append adds one entry to a scenario's log.
	Append(ctx context.Context, scenario string, entry domain.HistoryEntry) error

	// PruneBefore removes entries dated before cutoff and returns how many went.
	PruneBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Scenarios lists the scenarios that have entries.
	Scenarios(ctx context.Context) ([]string, error)
}
