package driving

import (
	"context"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

// HistoryService is the notification dedup log.
type HistoryService interface {
	// SentIDs returns ids logged for scenario within maxAgeDays (0 = no limit).
	SentIDs(ctx context.Context, scenario string, maxAgeDays int) (domain.IDSet, error)

	// IDsToExclude returns ids of records already sent and unchanged since.
	IDsToExclude(ctx context.Context, scenario string, records []domain.Record, maxAgeDays int) (domain.IDSet, error)

	// LogSend appends a history entry for a successful send.
	LogSend(ctx context.Context, scenario string, ids []domain.RecordID, recipient, subject string, changeDates map[domain.RecordID]string) error

	// Prune removes entries older than days and returns how many were removed.
	Prune(ctx context.Context, days int) (int, error)

	// Entries returns the log of one scenario.
	Entries(ctx context.Context, scenario string) ([]domain.HistoryEntry, error)

	// Scenarios lists the scenarios that have history, sorted.
	Scenarios(ctx context.Context) ([]string, error)
}
