package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

// sentAtLayout is fixed width so sent_at sorts lexicographically.
const sentAtLayout = "2006-01-02T15:04:05.000000000Z"

// historyStore implements driven.HistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.HistoryStore = (*historyStore)(nil)

// Entries returns a scenario's entries, oldest first.
func (s *historyStore) Entries(ctx context.Context, scenario string) ([]domain.HistoryEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT entry_id, request_id, sent_at, recipient, subject, change_date
		FROM notification_history
		WHERE scenario = ?
		ORDER BY sent_at, rowid
	`, scenario)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	index := make(map[string]int)
	for rows.Next() {
		var entryID, requestID, sentAt, recipient, subject string
		var changeDate sql.NullString
		if err := rows.Scan(&entryID, &requestID, &sentAt, &recipient, &subject, &changeDate); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}

		i, ok := index[entryID]
		if !ok {
			date, err := time.Parse(sentAtLayout, sentAt)
			if err != nil {
				return nil, fmt.Errorf("parsing sent_at %q: %w", sentAt, err)
			}
			entries = append(entries, domain.HistoryEntry{
				ID:        entryID,
				Date:      date,
				Recipient: recipient,
				Subject:   subject,
			})
			i = len(entries) - 1
			index[entryID] = i
		}

		e := &entries[i]
		id := domain.RecordID(requestID)
		e.RequestIDs = append(e.RequestIDs, id)
		if changeDate.Valid {
			if e.ChangeDatesByRequestID == nil {
				e.ChangeDatesByRequestID = make(map[domain.RecordID]string)
			}
			e.ChangeDatesByRequestID[id] = changeDate.String
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// Append writes one entry as one row per request id in a single transaction.
// Rows that already exist for (scenario, request_id, sent_at) are ignored.
func (s *historyStore) Append(ctx context.Context, scenario string, entry domain.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	sentAt := entry.Date.UTC().Format(sentAtLayout)

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range entry.RequestIDs {
		var changeDate sql.NullString
		if v, ok := entry.ChangeDatesByRequestID[id]; ok {
			changeDate = sql.NullString{String: v, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notification_history
				(entry_id, scenario, request_id, sent_at, recipient, subject, change_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (scenario, request_id, sent_at) DO NOTHING
		`, entry.ID, scenario, id.String(), sentAt, entry.Recipient, entry.Subject, changeDate)
		if err != nil {
			return fmt.Errorf("inserting history row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history: %w", err)
	}
	return nil
}

// PruneBefore deletes entries sent before cutoff and returns how many entries went.
func (s *historyStore) PruneBefore(ctx context.Context, cutoff time.Time) (int, error) {
	bound := cutoff.UTC().Format(sentAtLayout)

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var removed int
	row := tx.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT entry_id) FROM notification_history WHERE sent_at < ?", bound)
	if err := row.Scan(&removed); err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM notification_history WHERE sent_at < ?", bound); err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing prune: %w", err)
	}
	return removed, nil
}

// Scenarios lists scenarios that have entries.
func (s *historyStore) Scenarios(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT DISTINCT scenario FROM notification_history ORDER BY scenario")
	if err != nil {
		return nil, fmt.Errorf("querying scenarios: %w", err)
	}
	defer rows.Close()

	var scenarios []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning scenario: %w", err)
		}
		scenarios = append(scenarios, name)
	}
	return scenarios, rows.Err()
}
